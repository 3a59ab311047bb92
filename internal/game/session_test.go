package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mineduel/internal/domain"
	"mineduel/internal/protocol"
)

type sent struct {
	Type    string
	Payload any
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeConn) Send(msgType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{Type: msgType, Payload: payload})
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Type
	}
	return out
}

func (f *fakeConn) last(msgType string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].Type == msgType {
			return f.msgs[i].Payload
		}
	}
	return nil
}

func (f *fakeConn) count(msgType string) int {
	n := 0
	for _, t := range f.types() {
		if t == msgType {
			n++
		}
	}
	return n
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.msgs = nil
	f.mu.Unlock()
}

type fakeStats struct {
	mu   sync.Mutex
	recs []domain.MatchRecord
}

func (f *fakeStats) RecordMatch(_ context.Context, rec domain.MatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStats) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

type duel struct {
	s      *Session
	a, b   *Player
	ca, cb *fakeConn
	clock  time.Time
}

func (d *duel) advance(dt time.Duration) { d.clock = d.clock.Add(dt) }

// newDuel starts a session where both players already hold a copy of the
// same hand-built board.
func newDuel(t *testing.T, size int, mines ...Point) *duel {
	t.Helper()

	d := &duel{ca: &fakeConn{}, cb: &fakeConn{}, clock: time.Unix(1700000000, 0)}
	d.a = NewPlayer("a", "Alice", d.ca)
	d.b = NewPlayer("b", "Bob", d.cb)
	d.a.board = boardWithMines(size, mines...)
	d.b.board = boardWithMines(size, mines...)

	rules := DefaultRules()
	rules.TeardownGrace = 0
	d.s = NewSession("s1", Difficulty{Name: "test", GridSize: size, MineCount: len(mines)}, rules, d.a, d.b)
	d.s.now = func() time.Time { return d.clock }
	return d
}

func TestSessionStartSendsGameStart(t *testing.T) {
	d := newDuel(t, 4)
	d.s.Start()
	t.Cleanup(func() { d.s.expire() })

	start, ok := d.ca.last(protocol.MsgGameStart).(protocol.GameStartPayload)
	require.True(t, ok)
	assert.Equal(t, "s1", start.GameID)
	assert.Equal(t, "a", start.PlayerID)
	assert.Equal(t, "Bob", start.Opponent)
	assert.Equal(t, int64(120000), start.Duration)
	assert.Equal(t, 4, start.GridSize)

	start, ok = d.cb.last(protocol.MsgGameStart).(protocol.GameStartPayload)
	require.True(t, ok)
	assert.Equal(t, "Alice", start.Opponent)
}

func TestCellClickScoresAndNotifiesOpponent(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})

	d.s.CellClick("a", 2, 2)

	res, ok := d.ca.last(protocol.MsgCellResult).(protocol.CellResultPayload)
	require.True(t, ok)
	assert.False(t, res.HitMine)
	assert.Equal(t, CellReward, res.Points)
	assert.Equal(t, CellReward, res.Score)
	assert.Equal(t, CellReward, d.a.Score)

	upd, ok := d.cb.last(protocol.MsgOpponentUpdate).(protocol.OpponentUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, CellReward, upd.Score)
	require.NotNil(t, upd.CellsRevealed)
	assert.Equal(t, 1, *upd.CellsRevealed)
	require.NotNil(t, upd.Completion)
	assert.InDelta(t, 100.0/15, *upd.Completion, 0.001)

	// own board only
	assert.False(t, d.b.board.At(2, 2).IsRevealed)
}

func TestCellClickIgnoresOutOfBoundsAndRevealed(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})

	d.s.CellClick("a", 4, 0)
	d.s.CellClick("a", -1, 2)
	assert.Empty(t, d.ca.types())

	d.s.CellClick("a", 2, 2)
	d.ca.reset()
	d.cb.reset()
	d.s.CellClick("a", 2, 2)
	assert.Empty(t, d.ca.types())
	assert.Empty(t, d.cb.types())
}

func TestFirstClickGeneratesBoard(t *testing.T) {
	d := newDuel(t, 10)
	d.a.board = nil
	d.s.Difficulty = Difficulty{Name: DifficultyMedium, GridSize: 10, MineCount: 20}

	d.s.CellClick("a", 5, 5)

	require.True(t, d.a.BoardInitialized())
	res, ok := d.ca.last(protocol.MsgCellResult).(protocol.CellResultPayload)
	require.True(t, ok)
	assert.False(t, res.HitMine)
	assert.Equal(t, 20, countMines(d.a.board))
}

func TestMineHitPenaltyFloorsAtZero(t *testing.T) {
	d := newDuel(t, 4, Point{0, 0}, Point{3, 3})
	d.a.Score = 10

	d.s.CellClick("a", 0, 0)

	res, ok := d.ca.last(protocol.MsgCellResult).(protocol.CellResultPayload)
	require.True(t, ok)
	assert.True(t, res.HitMine)
	assert.Equal(t, 30, res.Damage)
	assert.Zero(t, res.Score)
	assert.Zero(t, d.a.Score)

	upd := d.cb.last(protocol.MsgOpponentUpdate).(protocol.OpponentUpdatePayload)
	require.NotNil(t, upd.HitMine)
	assert.True(t, *upd.HitMine)
}

func TestShieldAbsorbsOneHit(t *testing.T) {
	d := newDuel(t, 4, Point{0, 0}, Point{3, 3})
	d.a.Score = 80

	d.s.UsePower("a", "shield")
	require.True(t, d.a.HasShield)
	assert.Equal(t, 30, d.a.Score)

	d.s.CellClick("a", 0, 0)
	res := d.ca.last(protocol.MsgCellResult).(protocol.CellResultPayload)
	assert.True(t, res.HitMine)
	assert.True(t, res.ShieldUsed)
	assert.Zero(t, res.Damage)
	assert.Equal(t, 30, d.a.Score)
	assert.False(t, d.a.HasShield)
	assert.Equal(t, 1, d.cb.count(protocol.MsgShieldUsed))

	d.s.CellClick("a", 3, 3)
	res = d.ca.last(protocol.MsgCellResult).(protocol.CellResultPayload)
	assert.False(t, res.ShieldUsed)
	assert.Equal(t, 30, res.Damage)
	assert.Zero(t, d.a.Score)
}

func TestPowerFailsWithoutEnoughScore(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	d.a.Score = 25

	d.s.UsePower("a", "radar")

	failed, ok := d.ca.last(protocol.MsgPowerFailed).(protocol.PowerFailedPayload)
	require.True(t, ok)
	assert.NotEmpty(t, failed.Reason)
	assert.Equal(t, 25, d.a.Score)
	assert.Empty(t, d.cb.types())

	d.s.UsePower("a", "teleport")
	assert.Equal(t, 2, d.ca.count(protocol.MsgPowerFailed))
}

func TestRadarRevealsMineLocations(t *testing.T) {
	mines := []Point{{0, 0}, {3, 3}, {0, 3}, {3, 0}}
	d := newDuel(t, 4, mines...)
	d.a.Score = 30

	d.s.UsePower("a", "radar")

	act, ok := d.ca.last(protocol.MsgPowerActivated).(protocol.PowerActivatedPayload)
	require.True(t, ok)
	assert.Equal(t, "radar", act.Power)
	assert.Zero(t, act.Score)
	require.Len(t, act.Mines, 3)
	for _, m := range act.Mines {
		assert.Contains(t, mines, Point{m.X, m.Y})
		assert.False(t, d.a.board.At(m.X, m.Y).IsRevealed)
	}

	upd := d.cb.last(protocol.MsgOpponentUpdate).(protocol.OpponentUpdatePayload)
	assert.Equal(t, "radar", upd.Power)
	assert.Nil(t, upd.RevealedCells)
}

func TestSafeBurstAddsPoints(t *testing.T) {
	// numbered cells everywhere so each target opens exactly one cell
	d := newDuel(t, 3, Point{1, 1})
	d.a.Score = 40

	d.s.UsePower("a", "safeburst")

	act := d.ca.last(protocol.MsgPowerActivated).(protocol.PowerActivatedPayload)
	assert.Equal(t, 3*CellReward, act.Points)
	assert.Len(t, act.RevealedCells, 3)
	assert.Equal(t, 3*CellReward, act.Score)
	assert.Equal(t, 3*CellReward, d.a.Score)
	assert.Equal(t, 3, d.a.board.RevealedSafeCells())
}

func TestSafeBurstCanCompleteBoard(t *testing.T) {
	d := newDuel(t, 2, Point{0, 0})
	d.a.Score = 40

	d.s.UsePower("a", "safeburst")

	assert.False(t, d.s.IsActive())
	end := d.cb.last(protocol.MsgGameEnd).(protocol.GameEndPayload)
	assert.Equal(t, "completion", end.Reason)
}

func TestFreezeBlocksOpponent(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	d.a.Score = 60

	d.s.UsePower("a", "freeze")
	assert.Zero(t, d.a.Score)

	frozen, ok := d.cb.last(protocol.MsgFrozen).(protocol.FrozenPayload)
	require.True(t, ok)
	assert.Equal(t, int64(5000), frozen.Duration)

	d.advance(2 * time.Second)
	d.s.CellClick("b", 2, 2)
	frozen = d.cb.last(protocol.MsgFrozen).(protocol.FrozenPayload)
	assert.Equal(t, int64(3000), frozen.RemainingTime)
	assert.False(t, d.b.board.At(2, 2).IsRevealed)
	assert.Zero(t, d.cb.count(protocol.MsgCellResult))

	d.s.ToggleFlag("b", 2, 2)
	assert.False(t, d.b.board.At(2, 2).IsFlagged)

	d.advance(3 * time.Second)
	d.s.CellClick("b", 2, 2)
	assert.Equal(t, 1, d.cb.count(protocol.MsgCellResult))
	assert.False(t, d.b.IsFrozen)
}

func TestToggleFlagNotifiesBoth(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})

	d.s.ToggleFlag("a", 1, 2)

	flag := d.ca.last(protocol.MsgFlagUpdate).(protocol.FlagPayload)
	assert.Equal(t, protocol.FlagPayload{X: 1, Y: 2, IsFlagged: true}, flag)
	assert.Equal(t, flag, d.cb.last(protocol.MsgOpponentFlagUpdate))
}

func TestCompletionEndsForBoth(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	stats := &fakeStats{}
	d.s.Stats = stats

	d.s.CellClick("a", 0, 0)

	assert.False(t, d.s.IsActive())
	endA := d.ca.last(protocol.MsgGameEnd).(protocol.GameEndPayload)
	endB := d.cb.last(protocol.MsgGameEnd).(protocol.GameEndPayload)
	assert.Equal(t, endA, endB)
	assert.Equal(t, "completion", endA.Reason)
	require.NotNil(t, endA.Winner)
	assert.Equal(t, "a", *endA.Winner)
	assert.False(t, endA.IsDraw)
	assert.Equal(t, protocol.PlayerResult{Name: "Alice", Score: 15 * CellReward}, endA.Players["a"])

	assert.Eventually(t, func() bool { return stats.len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestTimeoutDraw(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	d.a.Score, d.b.Score = 20, 20

	d.s.expire()

	end := d.ca.last(protocol.MsgGameEnd).(protocol.GameEndPayload)
	assert.Equal(t, "timeout", end.Reason)
	assert.Nil(t, end.Winner)
	assert.True(t, end.IsDraw)

	winner, reason := d.s.Result()
	assert.Nil(t, winner)
	assert.Equal(t, ReasonTimeout, reason)
}

func TestDisconnectForfeits(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	d.b.Score = 100

	d.s.Disconnect("b")

	assert.Equal(t, []string{protocol.MsgOpponentDisconnected, protocol.MsgGameEnd}, d.ca.types())
	assert.Zero(t, d.cb.count(protocol.MsgGameEnd))

	end := d.ca.last(protocol.MsgGameEnd).(protocol.GameEndPayload)
	assert.Equal(t, "disconnect", end.Reason)
	require.NotNil(t, end.Winner)
	assert.Equal(t, "a", *end.Winner)
}

func TestEndHappensOnce(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	stats := &fakeStats{}
	d.s.Stats = stats

	var ended sync.WaitGroup
	ended.Add(1)
	d.s.OnEnd = func(*Session) { ended.Done() }

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); d.s.expire() }()
	go func() { defer wg.Done(); d.s.Disconnect("b") }()
	go func() { defer wg.Done(); d.s.expire() }()
	wg.Wait()
	ended.Wait()

	assert.Equal(t, 1, d.ca.count(protocol.MsgGameEnd))
	assert.Eventually(t, func() bool { return stats.len() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, stats.len())
}

func TestInputAfterEndIsDropped(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})
	d.a.Score = 100
	d.s.expire()
	d.ca.reset()
	d.cb.reset()

	d.s.CellClick("a", 0, 0)
	d.s.ToggleFlag("a", 1, 1)
	d.s.UsePower("a", "shield")
	d.s.Disconnect("a")

	assert.Empty(t, d.ca.types())
	assert.Empty(t, d.cb.types())
	assert.Equal(t, 100, d.a.Score)
	assert.False(t, d.a.board.At(0, 0).IsRevealed)
}

func TestUnknownPlayerIgnored(t *testing.T) {
	d := newDuel(t, 4, Point{3, 3})

	d.s.CellClick("zed", 0, 0)
	d.s.UsePower("zed", "radar")

	assert.Empty(t, d.ca.types())
	assert.Empty(t, d.cb.types())
}
