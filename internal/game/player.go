package game

import (
	"math/rand/v2"
	"time"
)

// Player is one participant's state inside a session. Only the owning
// session reads or writes it.
type Player struct {
	ID   string
	Name string

	Score       int
	HasShield   bool
	IsFrozen    bool
	FrozenUntil time.Time

	conn  Sender
	board *Board
}

func NewPlayer(id, name string, conn Sender) *Player {
	return &Player{ID: id, Name: name, conn: conn}
}

func (p *Player) Board() *Board { return p.board }

func (p *Player) BoardInitialized() bool { return p.board != nil }

// ensureBoard is the only place a board is created. anchor is nil when a
// power needs the board before the first click.
func (p *Player) ensureBoard(d Difficulty, anchor *Point, rnd *rand.Rand) *Board {
	if p.board == nil {
		p.board = Generate(d.GridSize, d.MineCount, anchor, rnd)
	}
	return p.board
}

// frozenFor reports how long the player stays frozen, clearing an expired
// freeze.
func (p *Player) frozenFor(now time.Time) time.Duration {
	if !p.IsFrozen {
		return 0
	}
	if !now.Before(p.FrozenUntil) {
		p.IsFrozen = false
		p.FrozenUntil = time.Time{}
		return 0
	}
	return p.FrozenUntil.Sub(now)
}

func (p *Player) addScore(delta int) {
	p.Score = max(0, p.Score+delta)
}

func (p *Player) completion() float64 {
	if p.board == nil {
		return 0
	}
	return p.board.Completion()
}

func (p *Player) send(msgType string, payload any) {
	if p.conn != nil {
		p.conn.Send(msgType, payload)
	}
}
