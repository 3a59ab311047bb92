package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// boardWithMines builds a size x size board with mines at exactly pts.
func boardWithMines(size int, pts ...Point) *Board {
	b := NewBoard(size)
	for _, p := range pts {
		b.At(p.X, p.Y).IsMine = true
	}
	b.MineCount = len(pts)
	b.computeNeighbors()
	return b
}

func countMines(b *Board) int {
	n := 0
	for _, c := range b.Cells {
		if c.IsMine {
			n++
		}
	}
	return n
}

func TestGenerateRespectsSafeZone(t *testing.T) {
	rnd := testRand()
	for _, d := range Difficulties() {
		for i := 0; i < 50; i++ {
			anchor := Point{X: rnd.IntN(d.GridSize), Y: rnd.IntN(d.GridSize)}
			b := Generate(d.GridSize, d.MineCount, &anchor, rnd)

			require.Equal(t, d.MineCount, countMines(b), d.Name)
			require.Equal(t, d.MineCount, b.MineCount)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if c := b.At(anchor.X+dx, anchor.Y+dy); c != nil {
						require.False(t, c.IsMine, "mine at %d,%d next to anchor %v", c.X, c.Y, anchor)
					}
				}
			}
		}
	}
}

func TestGenerateCornerAnchorEasy(t *testing.T) {
	b := Generate(8, 12, &Point{X: 0, Y: 0}, testRand())

	for _, p := range []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		assert.False(t, b.At(p.X, p.Y).IsMine)
	}
	assert.Equal(t, 12, countMines(b))
}

func TestGenerateNeighborCounts(t *testing.T) {
	b := Generate(12, 35, &Point{X: 6, Y: 6}, testRand())

	for _, c := range b.Cells {
		if c.IsMine {
			assert.Zero(t, c.NeighborCount)
			continue
		}
		want := 0
		b.forEachNeighbor(c.X, c.Y, func(j int) {
			if b.Cells[j].IsMine {
				want++
			}
		})
		assert.Equal(t, want, c.NeighborCount, "cell %d,%d", c.X, c.Y)
	}
}

func TestGenerateWithoutAnchor(t *testing.T) {
	b := Generate(10, 20, nil, testRand())
	assert.Equal(t, 20, countMines(b))
}

func TestGenerateFallsBackIntoSafeZone(t *testing.T) {
	// 3x3 board with a centre anchor leaves no cells outside the zone.
	b := Generate(3, 5, &Point{X: 1, Y: 1}, testRand())
	assert.Equal(t, 5, countMines(b))
	assert.False(t, b.At(1, 1).IsMine)

	full := Generate(3, 9, &Point{X: 1, Y: 1}, testRand())
	assert.Equal(t, 9, countMines(full))
	assert.True(t, full.At(1, 1).IsMine)

	clamped := Generate(3, 50, nil, testRand())
	assert.Equal(t, 9, clamped.MineCount)
}

func TestRevealFloodFillRegion(t *testing.T) {
	// mines wall off the top-left 3x3 corner of a 5x5 board
	b := boardWithMines(5,
		Point{4, 0}, Point{4, 1}, Point{4, 2}, Point{4, 3},
		Point{0, 4}, Point{1, 4}, Point{2, 4}, Point{3, 4}, Point{4, 4},
	)

	res := b.Reveal(0, 0)
	assert.False(t, res.HitMine)
	assert.Equal(t, 16, res.CellsRevealed)
	assert.Equal(t, 16*CellReward, res.Points)
	assert.Len(t, res.Revealed, 16)
	assert.Equal(t, 100.0, b.Completion())
}

func TestRevealNineCellRegion(t *testing.T) {
	// 5x5 with the outer ring mined except where it would touch the centre
	// leaves a zero cell at 2,2 bordered by eight numbered cells.
	var ring []Point
	for i := 0; i < 5; i++ {
		ring = append(ring, Point{i, 0}, Point{i, 4})
	}
	for i := 1; i < 4; i++ {
		ring = append(ring, Point{0, i}, Point{4, i})
	}
	b := boardWithMines(5, ring...)
	require.Zero(t, b.At(2, 2).NeighborCount)

	res := b.Reveal(2, 2)
	assert.Equal(t, 9, res.CellsRevealed)
	assert.Equal(t, 45, res.Points)
}

func TestRevealNumberedCellDoesNotFlood(t *testing.T) {
	b := boardWithMines(4, Point{0, 0})

	res := b.Reveal(1, 1)
	assert.Equal(t, 1, res.CellsRevealed)
	assert.Equal(t, 1, res.Revealed[0].NeighborCount)
}

func TestRevealMine(t *testing.T) {
	b := boardWithMines(4, Point{0, 0})

	res := b.Reveal(0, 0)
	assert.True(t, res.HitMine)
	assert.Equal(t, 1, res.CellsRevealed)
	assert.Zero(t, res.Points)
	assert.Zero(t, b.RevealedSafeCells())
}

func TestRevealStopsAtFlags(t *testing.T) {
	b := boardWithMines(4)
	// a flagged column splits the board
	for y := 0; y < 4; y++ {
		_, ok := b.ToggleFlag(1, y)
		require.True(t, ok)
	}

	res := b.Reveal(0, 0)
	assert.Equal(t, 4, res.CellsRevealed)
	for y := 0; y < 4; y++ {
		assert.False(t, b.At(1, y).IsRevealed)
		assert.False(t, b.At(2, y).IsRevealed)
	}
}

func TestRevealNoOps(t *testing.T) {
	b := boardWithMines(4, Point{3, 3})

	assert.Zero(t, b.Reveal(-1, 0).CellsRevealed)
	assert.Zero(t, b.Reveal(0, 4).CellsRevealed)

	b.ToggleFlag(0, 0)
	assert.Zero(t, b.Reveal(0, 0).CellsRevealed)

	b.ToggleFlag(0, 0)
	first := b.Reveal(0, 0)
	require.NotZero(t, first.CellsRevealed)
	assert.Zero(t, b.Reveal(0, 0).CellsRevealed)
}

func TestToggleFlag(t *testing.T) {
	b := boardWithMines(4, Point{3, 3})

	flagged, ok := b.ToggleFlag(2, 2)
	assert.True(t, ok)
	assert.True(t, flagged)

	flagged, ok = b.ToggleFlag(2, 2)
	assert.True(t, ok)
	assert.False(t, flagged)

	b.Reveal(2, 2)
	_, ok = b.ToggleFlag(2, 2)
	assert.False(t, ok)

	_, ok = b.ToggleFlag(9, 9)
	assert.False(t, ok)
}

func TestCompletion(t *testing.T) {
	b := boardWithMines(2, Point{0, 0})
	assert.Zero(t, b.Completion())

	b.Reveal(1, 0)
	assert.InDelta(t, 100.0/3, b.Completion(), 0.001)

	allMines := boardWithMines(1, Point{0, 0})
	assert.Equal(t, 100.0, allMines.Completion())
}

func TestHiddenCells(t *testing.T) {
	b := boardWithMines(3, Point{0, 0}, Point{2, 2})
	b.ToggleFlag(2, 2)

	assert.ElementsMatch(t, []Point{{0, 0}}, b.hiddenCells(true))

	b.Reveal(1, 1)
	safe := b.hiddenCells(false)
	assert.Len(t, safe, 6)
	assert.NotContains(t, safe, Point{1, 1})
}
