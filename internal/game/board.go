package game

import (
	"math/rand/v2"

	"github.com/gammazero/deque"
	"github.com/samber/lo"

	"mineduel/internal/logger"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Cell struct {
	X             int
	Y             int
	IsMine        bool
	IsRevealed    bool
	IsFlagged     bool
	NeighborCount int
}

// Board is a square minefield stored row-major at y*Size+x.
type Board struct {
	Size      int
	MineCount int
	Cells     []Cell

	revealedSafe int
}

type RevealResult struct {
	HitMine       bool
	Points        int
	CellsRevealed int
	Revealed      []Cell
}

func NewBoard(size int) *Board {
	b := &Board{
		Size:  size,
		Cells: make([]Cell, size*size),
	}
	for i := range b.Cells {
		b.Cells[i].X = i % size
		b.Cells[i].Y = i / size
	}
	return b
}

// Generate places mineCount mines outside the 3x3 zone around safe (no zone
// when safe is nil). When the board is too small to honour the zone the
// remaining mines go into it, the anchor cell last.
func Generate(size, mineCount int, safe *Point, rnd *rand.Rand) *Board {
	b := NewBoard(size)
	total := size * size
	mineCount = max(0, min(mineCount, total))

	candidates := make([]int, 0, total)
	var zone []int
	anchor := -1
	for y := range size {
		for x := range size {
			i := y*size + x
			switch {
			case safe == nil || absDiff(safe.X, x) > 1 || absDiff(safe.Y, y) > 1:
				candidates = append(candidates, i)
			case x == safe.X && y == safe.Y:
				anchor = i
			default:
				zone = append(zone, i)
			}
		}
	}

	placed := b.placeMines(candidates, mineCount, rnd)
	if placed < mineCount {
		logger.Warn("mine count exceeds cells outside safe zone",
			"size", size, "mines", mineCount, "outside", placed)
		placed += b.placeMines(zone, mineCount-placed, rnd)
		if placed < mineCount && anchor >= 0 {
			b.Cells[anchor].IsMine = true
			placed++
		}
	}

	b.MineCount = placed
	b.computeNeighbors()
	return b
}

// placeMines picks n distinct indices off candidates. The slice is reordered.
func (b *Board) placeMines(candidates []int, n int, rnd *rand.Rand) int {
	k := len(candidates)
	placed := 0
	for placed < n && k > 0 {
		i := rnd.IntN(k)
		b.Cells[candidates[i]].IsMine = true
		k--
		candidates[i] = candidates[k]
		placed++
	}
	return placed
}

func (b *Board) computeNeighbors() {
	for i := range b.Cells {
		c := &b.Cells[i]
		c.NeighborCount = 0
		if c.IsMine {
			continue
		}
		b.forEachNeighbor(c.X, c.Y, func(j int) {
			if b.Cells[j].IsMine {
				c.NeighborCount++
			}
		})
	}
}

func (b *Board) forEachNeighbor(x, y int, fn func(i int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if b.InBounds(nx, ny) {
				fn(ny*b.Size + nx)
			}
		}
	}
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Size && y >= 0 && y < b.Size
}

// At returns the cell at x,y or nil when out of bounds.
func (b *Board) At(x, y int) *Cell {
	if !b.InBounds(x, y) {
		return nil
	}
	return &b.Cells[y*b.Size+x]
}

// Reveal opens x,y. Opening a zero cell flood-fills its connected zero region
// and the numbered cells bordering it. Flagged and revealed cells stop the
// fill and are never opened.
func (b *Board) Reveal(x, y int) RevealResult {
	var res RevealResult

	c := b.At(x, y)
	if c == nil || c.IsRevealed || c.IsFlagged {
		return res
	}

	c.IsRevealed = true
	res.add(*c)
	if c.IsMine {
		res.HitMine = true
		return res
	}
	b.revealedSafe++
	res.Points += CellReward

	if c.NeighborCount > 0 {
		return res
	}

	visited := make([]bool, len(b.Cells))
	start := y*b.Size + x
	visited[start] = true

	var frontier deque.Deque[int]
	frontier.PushBack(start)
	for frontier.Len() > 0 {
		i := frontier.PopFront()
		b.forEachNeighbor(b.Cells[i].X, b.Cells[i].Y, func(j int) {
			if visited[j] {
				return
			}
			visited[j] = true

			n := &b.Cells[j]
			if n.IsRevealed || n.IsFlagged || n.IsMine {
				return
			}
			n.IsRevealed = true
			b.revealedSafe++
			res.add(*n)
			res.Points += CellReward
			if n.NeighborCount == 0 {
				frontier.PushBack(j)
			}
		})
	}

	return res
}

func (r *RevealResult) add(c Cell) {
	r.Revealed = append(r.Revealed, c)
	r.CellsRevealed++
}

// ToggleFlag flips the flag on an unrevealed cell. ok is false when nothing
// changed.
func (b *Board) ToggleFlag(x, y int) (flagged bool, ok bool) {
	c := b.At(x, y)
	if c == nil || c.IsRevealed {
		return false, false
	}
	c.IsFlagged = !c.IsFlagged
	return c.IsFlagged, true
}

// Completion is the percentage of safe cells revealed.
func (b *Board) Completion() float64 {
	safe := len(b.Cells) - b.MineCount
	if safe <= 0 {
		return 100
	}
	return float64(b.revealedSafe) / float64(safe) * 100
}

func (b *Board) RevealedSafeCells() int {
	return b.revealedSafe
}

// hiddenCells returns the unrevealed, unflagged cells with the given mine flag.
func (b *Board) hiddenCells(mine bool) []Point {
	hidden := lo.Filter(b.Cells, func(c Cell, _ int) bool {
		return c.IsMine == mine && !c.IsRevealed && !c.IsFlagged
	})
	return lo.Map(hidden, func(c Cell, _ int) Point {
		return Point{X: c.X, Y: c.Y}
	})
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
