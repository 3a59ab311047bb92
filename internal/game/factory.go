package game

import (
	"hash/maphash"
	"math/rand/v2"
)

// Factory builds sessions sharing one rule set and stats recorder.
type Factory struct {
	rules Rules
	stats StatsRecorder
}

func NewFactory(rules Rules, stats StatsRecorder) *Factory {
	return &Factory{rules: rules, stats: stats}
}

func (f *Factory) Rules() Rules {
	return f.rules
}

func (f *Factory) CreateSession(id string, diff Difficulty, p1, p2 *Player) *Session {
	s := NewSession(id, diff, f.rules, p1, p2)
	s.Stats = f.stats
	return s
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}
