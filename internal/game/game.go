package game

import (
	"context"
	"time"

	"mineduel/internal/domain"
)

// Difficulty is a fixed grid preset.
type Difficulty struct {
	Name      string `json:"name"`
	GridSize  int    `json:"gridSize"`
	MineCount int    `json:"mineCount"`
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var difficulties = []Difficulty{
	{Name: DifficultyEasy, GridSize: 8, MineCount: 12},
	{Name: DifficultyMedium, GridSize: 10, MineCount: 20},
	{Name: DifficultyHard, GridSize: 12, MineCount: 35},
}

// LookupDifficulty returns the preset with the given name.
func LookupDifficulty(name string) (Difficulty, bool) {
	for _, d := range difficulties {
		if d.Name == name {
			return d, true
		}
	}
	return Difficulty{}, false
}

// Difficulties lists the presets from easiest to hardest.
func Difficulties() []Difficulty {
	out := make([]Difficulty, len(difficulties))
	copy(out, difficulties)
	return out
}

// CellReward is awarded for every safe cell revealed.
const CellReward = 5

// Rules holds the tunable parameters of a match.
type Rules struct {
	Duration            time.Duration `json:"duration"`
	MinePenalty         int           `json:"minePenalty"`
	CompletionThreshold float64       `json:"completionThreshold"`
	FreezeDuration      time.Duration `json:"freezeDuration"`
	RadarMines          int           `json:"radarMines"`
	SafeBurstCells      int           `json:"safeBurstCells"`
	TeardownGrace       time.Duration `json:"-"`
}

func DefaultRules() Rules {
	return Rules{
		Duration:            120 * time.Second,
		MinePenalty:         30,
		CompletionThreshold: 85,
		FreezeDuration:      5 * time.Second,
		RadarMines:          3,
		SafeBurstCells:      3,
		TeardownGrace:       5 * time.Second,
	}
}

type EndReason string

const (
	ReasonCompletion EndReason = "completion"
	ReasonTimeout    EndReason = "timeout"
	ReasonDisconnect EndReason = "disconnect"
)

// StatsRecorder persists finished matches. Its outcome never affects play.
type StatsRecorder interface {
	RecordMatch(ctx context.Context, rec domain.MatchRecord) error
}

// Sender delivers an outbound message to one connection. Implementations
// must not block.
type Sender interface {
	Send(msgType string, payload any)
}
