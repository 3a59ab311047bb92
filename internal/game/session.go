package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"mineduel/internal/domain"
	"mineduel/internal/logger"
	"mineduel/internal/metrics"
	"mineduel/internal/protocol"
)

// Session is one live match between exactly two players. Every operation
// takes the session lock, so the two players' actions and the timer are
// applied one at a time.
type Session struct {
	ID         string
	Difficulty Difficulty
	Rules      Rules
	StartTime  time.Time

	// Stats receives the finished match. OnEnd runs once the teardown grace
	// period after the end has passed.
	Stats StatsRecorder
	OnEnd func(*Session)

	mu      sync.Mutex
	players [2]*Player
	active  bool
	started bool
	winner  *Player
	reason  EndReason
	endedAt time.Time
	timer   *time.Timer
	rnd     *rand.Rand
	now     func() time.Time
}

func NewSession(id string, diff Difficulty, rules Rules, p1, p2 *Player) *Session {
	return &Session{
		ID:         id,
		Difficulty: diff,
		Rules:      rules,
		StartTime:  time.Now(),
		players:    [2]*Player{p1, p2},
		active:     true,
		rnd:        newRand(),
		now:        time.Now,
	}
}

// Start arms the match timer and sends gameStart to both players.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.started {
		return
	}
	s.started = true
	s.StartTime = s.now()
	s.timer = time.AfterFunc(s.Rules.Duration, s.expire)

	for i, p := range s.players {
		opp := s.players[1-i]
		p.send(protocol.MsgGameStart, protocol.GameStartPayload{
			GameID:     s.ID,
			PlayerID:   p.ID,
			Opponent:   opp.Name,
			Duration:   s.Rules.Duration.Milliseconds(),
			GridSize:   s.Difficulty.GridSize,
			MineCount:  s.Difficulty.MineCount,
			Difficulty: s.Difficulty.Name,
			StartTime:  s.StartTime.UnixMilli(),
		})
	}

	logger.Info("session started",
		"session", s.ID,
		"difficulty", s.Difficulty.Name,
		"p1", s.players[0].ID,
		"p2", s.players[1].ID,
	)
}

func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Ended reports whether the session finished at least grace ago.
func (s *Session) Ended(grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.active && s.now().Sub(s.endedAt) >= grace
}

// Result returns the winner (nil on a draw or while active) and end reason.
func (s *Session) Result() (*Player, EndReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.reason
}

func (s *Session) lookup(playerID string) (self, opp *Player) {
	for i, p := range s.players {
		if p.ID == playerID {
			return p, s.players[1-i]
		}
	}
	return nil, nil
}

func (s *Session) inBounds(x, y int) bool {
	return x >= 0 && x < s.Difficulty.GridSize && y >= 0 && y < s.Difficulty.GridSize
}

// rejectFrozen tells a frozen player how long is left and reports whether
// the action must be dropped.
func (s *Session) rejectFrozen(p *Player) bool {
	left := p.frozenFor(s.now())
	if left <= 0 {
		return false
	}
	p.send(protocol.MsgFrozen, protocol.FrozenPayload{RemainingTime: left.Milliseconds()})
	return true
}

// CellClick reveals x,y on the player's own board.
func (s *Session) CellClick(playerID string, x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	p, opp := s.lookup(playerID)
	if p == nil || s.rejectFrozen(p) || !s.inBounds(x, y) {
		return
	}

	board := p.ensureBoard(s.Difficulty, &Point{X: x, Y: y}, s.rnd)
	res := board.Reveal(x, y)
	if res.CellsRevealed == 0 {
		return
	}

	cells := wireCells(res.Revealed)
	result := protocol.CellResultPayload{
		HitMine:       res.HitMine,
		CellsRevealed: res.CellsRevealed,
		RevealedCells: cells,
	}

	if res.HitMine {
		damage := s.Rules.MinePenalty
		if p.HasShield {
			damage = 0
			p.HasShield = false
			result.ShieldUsed = true
			opp.send(protocol.MsgShieldUsed, struct{}{})
		}
		p.addScore(-damage)
		result.Damage = damage
	} else {
		p.addScore(res.Points)
		result.Points = res.Points
	}
	result.Score = p.Score
	p.send(protocol.MsgCellResult, result)

	completion := board.Completion()
	opp.send(protocol.MsgOpponentUpdate, protocol.OpponentUpdatePayload{
		Score:         p.Score,
		CellsRevealed: &res.CellsRevealed,
		Completion:    &completion,
		RevealedCells: cells,
		HitMine:       &res.HitMine,
	})

	if completion >= s.Rules.CompletionThreshold {
		s.end(ReasonCompletion, nil)
	}
}

// ToggleFlag flips a flag on the player's own board.
func (s *Session) ToggleFlag(playerID string, x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	p, opp := s.lookup(playerID)
	if p == nil || s.rejectFrozen(p) || !s.inBounds(x, y) {
		return
	}

	board := p.ensureBoard(s.Difficulty, &Point{X: x, Y: y}, s.rnd)
	flagged, ok := board.ToggleFlag(x, y)
	if !ok {
		return
	}

	flag := protocol.FlagPayload{X: x, Y: y, IsFlagged: flagged}
	p.send(protocol.MsgFlagUpdate, flag)
	opp.send(protocol.MsgOpponentFlagUpdate, flag)
}

// UsePower pays for and applies a power.
func (s *Session) UsePower(playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	p, opp := s.lookup(playerID)
	if p == nil {
		return
	}

	power, ok := ParsePower(name)
	if !ok {
		p.send(protocol.MsgPowerFailed, protocol.PowerFailedPayload{Reason: "unknown power"})
		return
	}
	cost := power.Cost()
	if cost > p.Score {
		p.send(protocol.MsgPowerFailed, protocol.PowerFailedPayload{
			Reason: fmt.Sprintf("not enough points: %s costs %d, you have %d", power, cost, p.Score),
		})
		return
	}

	p.Score -= cost
	activated := s.applyPower(p, opp, power)
	metrics.PowersUsed.WithLabelValues(string(power)).Inc()

	p.send(protocol.MsgPowerActivated, activated)
	opp.send(protocol.MsgOpponentUpdate, protocol.OpponentUpdatePayload{
		Score: p.Score,
		Power: string(power),
	})

	logger.Debug("power used", "session", s.ID, "player", p.ID, "power", power, "score", p.Score)

	if power == PowerSafeBurst && p.completion() >= s.Rules.CompletionThreshold {
		s.end(ReasonCompletion, nil)
	}
}

// Disconnect forfeits the match for playerID.
func (s *Session) Disconnect(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	p, opp := s.lookup(playerID)
	if p == nil {
		return
	}

	p.conn = nil
	opp.send(protocol.MsgOpponentDisconnected, protocol.OpponentDisconnectedPayload{
		Message: p.Name + " left the game",
	})
	s.end(ReasonDisconnect, opp)
}

func (s *Session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(ReasonTimeout, nil)
}

// end moves the session to its terminal state. It is a no-op once the
// session is inactive, so concurrent triggers end the match exactly once.
// Caller holds s.mu.
func (s *Session) end(reason EndReason, winner *Player) {
	if !s.active {
		return
	}
	s.active = false
	s.reason = reason
	s.endedAt = s.now()
	if s.timer != nil {
		s.timer.Stop()
	}

	p1, p2 := s.players[0], s.players[1]
	switch {
	case winner != nil:
		s.winner = winner
	case p1.Score > p2.Score:
		s.winner = p1
	case p2.Score > p1.Score:
		s.winner = p2
	}

	result := s.resultPayload()
	for _, p := range s.players {
		p.send(protocol.MsgGameEnd, result)
	}

	winnerID := ""
	if s.winner != nil {
		winnerID = s.winner.ID
	}

	metrics.MatchesFinished.WithLabelValues(string(reason)).Inc()
	logger.Info("session ended",
		"session", s.ID,
		"reason", reason,
		"winner", winnerID,
		"p1_score", p1.Score,
		"p2_score", p2.Score,
	)

	if s.Stats != nil {
		go s.saveResult(s.record())
	}

	time.AfterFunc(s.Rules.TeardownGrace, func() {
		if s.OnEnd != nil {
			s.OnEnd(s)
		}
	})
}

func (s *Session) resultPayload() protocol.GameEndPayload {
	out := protocol.GameEndPayload{
		Reason:   string(s.reason),
		Players:  make(map[string]protocol.PlayerResult, len(s.players)),
		IsDraw:   s.winner == nil,
		Duration: s.endedAt.Sub(s.StartTime).Milliseconds(),
	}
	if s.winner != nil {
		id := s.winner.ID
		out.Winner = &id
	}
	for _, p := range s.players {
		out.Players[p.ID] = protocol.PlayerResult{Name: p.Name, Score: p.Score}
	}
	return out
}

func (s *Session) record() domain.MatchRecord {
	rec := domain.MatchRecord{
		MatchID:    s.ID,
		Difficulty: s.Difficulty.Name,
		Reason:     string(s.reason),
		StartedAt:  s.StartTime,
		EndedAt:    s.endedAt,
	}
	for _, p := range s.players {
		rec.Players = append(rec.Players, domain.PlayerResult{
			PlayerID: p.ID,
			Name:     p.Name,
			IsWinner: s.winner == p,
			IsDraw:   s.winner == nil,
			Score:    p.Score,
		})
	}
	return rec
}

func (s *Session) saveResult(rec domain.MatchRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Stats.RecordMatch(ctx, rec); err != nil {
		logger.Warn("failed to record match", "session", s.ID, "error", err)
	}
}

func wireCells(cells []Cell) []protocol.Cell {
	out := make([]protocol.Cell, len(cells))
	for i, c := range cells {
		out[i] = protocol.Cell{X: c.X, Y: c.Y, NeighborCount: c.NeighborCount, IsMine: c.IsMine}
	}
	return out
}
