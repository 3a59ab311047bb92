package game

import (
	"github.com/samber/lo"

	"mineduel/internal/protocol"
)

type Power string

const (
	PowerRadar     Power = "radar"
	PowerSafeBurst Power = "safeburst"
	PowerShield    Power = "shield"
	PowerFreeze    Power = "freeze"
)

var powerCosts = map[Power]int{
	PowerRadar:     30,
	PowerSafeBurst: 40,
	PowerShield:    50,
	PowerFreeze:    60,
}

func ParsePower(s string) (Power, bool) {
	p := Power(s)
	_, ok := powerCosts[p]
	return p, ok
}

func (p Power) Cost() int {
	return powerCosts[p]
}

// PowerCosts returns a copy of the cost table.
func PowerCosts() map[Power]int {
	return lo.Assign(powerCosts)
}

// applyPower runs the effect of an already paid power and returns the
// activation notice for the acting player. Caller holds s.mu.
func (s *Session) applyPower(actor, opp *Player, power Power) protocol.PowerActivatedPayload {
	out := protocol.PowerActivatedPayload{Power: string(power)}

	switch power {
	case PowerRadar:
		board := actor.ensureBoard(s.Difficulty, nil, s.rnd)
		mines := lo.SamplesBy(board.hiddenCells(true), s.Rules.RadarMines, s.rnd.IntN)
		out.Mines = lo.Map(mines, func(p Point, _ int) protocol.Point {
			return protocol.Point{X: p.X, Y: p.Y}
		})

	case PowerSafeBurst:
		board := actor.ensureBoard(s.Difficulty, nil, s.rnd)
		targets := lo.SamplesBy(board.hiddenCells(false), s.Rules.SafeBurstCells, s.rnd.IntN)
		for _, t := range targets {
			// an earlier target's flood fill may already have opened this one
			res := board.Reveal(t.X, t.Y)
			out.Points += res.Points
			out.RevealedCells = append(out.RevealedCells, wireCells(res.Revealed)...)
		}
		actor.addScore(out.Points)

	case PowerShield:
		actor.HasShield = true

	case PowerFreeze:
		opp.IsFrozen = true
		opp.FrozenUntil = s.now().Add(s.Rules.FreezeDuration)
		opp.send(protocol.MsgFrozen, protocol.FrozenPayload{
			Duration: s.Rules.FreezeDuration.Milliseconds(),
		})
	}

	out.Score = actor.Score
	return out
}
