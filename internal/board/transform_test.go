package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBoard(t *testing.T, r *rand.Rand, size int) Board {
	t.Helper()
	cells := make([]Cell, size*size)
	for i := range cells {
		cells[i] = Cell(r.Intn(3))
	}
	b, err := FromCells(size, cells)
	require.NoError(t, err)
	return b
}

// A marker placed at (x, y) must land where the move transform says.
func TestTransformConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	const marker = Cell(3)
	for _, size := range []int{1, 2, 5, 9, 19} {
		for _, tr := range Transforms {
			for trial := 0; trial < 20; trial++ {
				b := randomBoard(t, r, size)
				m := Move{X: r.Intn(size), Y: r.Intn(size)}

				// marker is outside the cell range, so write it directly
				marked := Board{size: size, cells: b.Bytes()}
				marked.cells[m.Index(size)] = byte(marker)

				out := tr.ApplyBoard(marked)
				tm := tr.ApplyMove(m, size)
				assert.Equal(t, marker, out.At(tm.X, tm.Y), "size %d %v %v", size, tr, m)

				// everything else matches the plain transform of b
				plain := tr.ApplyBoard(b)
				restored := Board{size: size, cells: out.Bytes()}
				restored.cells[tm.Index(size)] = byte(b.At(m.X, m.Y))
				assert.True(t, plain.Equal(restored), "size %d %v", size, tr)
			}
		}
	}
}

func TestTransformMoveTable(t *testing.T) {
	// (1, 2) on a 9x9 board, n = 8
	m := Move{X: 1, Y: 2}
	want := map[Transform]Move{
		Identity: {1, 2},
		Rot90:    {6, 1},
		Rot180:   {7, 6},
		Rot270:   {2, 7},
		FlipTB:   {7, 2},
		FlipLR:   {1, 6},
		FlipTLBR: {6, 7},
		FlipTRBL: {2, 1},
	}
	for tr, w := range want {
		assert.Equal(t, w, tr.ApplyMove(m, 9), tr.String())
	}
	assert.Equal(t, Pass, Rot90.ApplyMove(Pass, 9))
}

func TestTransformInverse(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	b := randomBoard(t, r, 9)
	for _, tr := range Transforms {
		back := tr.Inverse().ApplyBoard(tr.ApplyBoard(b))
		assert.True(t, b.Equal(back), "%v then inverse", tr)
		for idx := 0; idx < 81; idx++ {
			m := MoveAt(idx, 9)
			assert.Equal(t, m, tr.Inverse().ApplyMove(tr.ApplyMove(m, 9), 9))
		}
	}
}

func TestRotateFourTimes(t *testing.T) {
	//
	// ⎢ O · · · X ⎥
	// ⎢ · O · X · ⎥ // this line is to break rotational symmetry
	// ⎢ · · · · · ⎥
	// ⎢ · · · · · ⎥
	// ⎢ X · · · O ⎥
	b, err := FromCells(5, []Cell{
		White, Empty, Empty, Empty, Black,
		Empty, White, Empty, Black, Empty,
		Empty, Empty, Empty, Empty, Empty,
		Empty, Empty, Empty, Empty, Empty,
		Black, Empty, Empty, Empty, White,
	})
	require.NoError(t, err)

	rot := b
	for i := 0; i < 4; i++ {
		rot = Rot90.ApplyBoard(rot)
		if i < 3 {
			assert.False(t, b.Equal(rot), "rotation %d should differ", i+1)
		}
	}
	assert.True(t, b.Equal(rot), "After 4 rotations the board should be the same")

	// counter-clockwise: the top-right corner moves to the top-left
	assert.Equal(t, Black, Rot90.ApplyBoard(b).At(0, 0))
}

func TestTransformString(t *testing.T) {
	assert.Equal(t, "ID", Identity.String())
	assert.Equal(t, "FLIP_TR_BL", FlipTRBL.String())
	assert.Equal(t, "INVALID", Transform(8).String())
	assert.False(t, Transform(8).Valid())
}
