package board

// Transform is one of the eight symmetries of a square board.
//
// Each value carries a move transform and a board transform. The board
// transform is defined through the move transform (the stone at (x, y)
// lands at ApplyMove(x, y)), so the two always agree.
type Transform uint8

// Table order matters: when several transforms tie, the first one seen in
// this order wins.
const (
	Identity Transform = iota
	Rot90              // counter-clockwise quarter turn
	Rot180
	Rot270
	FlipTB   // top/bottom mirror
	FlipLR   // left/right mirror
	FlipTLBR // mirror across the anti-diagonal
	FlipTRBL // mirror across the main diagonal (transpose)

	NumTransforms = 8
)

// Transforms lists all symmetries in table order.
var Transforms = [NumTransforms]Transform{
	Identity, Rot90, Rot180, Rot270, FlipTB, FlipLR, FlipTLBR, FlipTRBL,
}

var transformNames = [NumTransforms]string{
	"ID", "ROT_90", "ROT_180", "ROT_270", "FLIP_T_B", "FLIP_L_R", "FLIP_TL_BR", "FLIP_TR_BL",
}

func (t Transform) String() string {
	if t.Valid() {
		return transformNames[t]
	}
	return "INVALID"
}

// Valid reports whether t is one of the eight symmetries.
func (t Transform) Valid() bool { return t < NumTransforms }

// ApplyMove maps coordinates on a board of the given size. Passes are
// returned unchanged.
func (t Transform) ApplyMove(m Move, size int) Move {
	if m.IsPass() {
		return m
	}
	x, y := m.X, m.Y
	n := size - 1
	switch t {
	case Rot90:
		return Move{X: n - y, Y: x}
	case Rot180:
		return Move{X: n - x, Y: n - y}
	case Rot270:
		return Move{X: y, Y: n - x}
	case FlipTB:
		return Move{X: n - x, Y: y}
	case FlipLR:
		return Move{X: x, Y: n - y}
	case FlipTLBR:
		return Move{X: n - y, Y: n - x}
	case FlipTRBL:
		return Move{X: y, Y: x}
	}
	return m
}

// Inverse returns the transform undoing t.
func (t Transform) Inverse() Transform {
	switch t {
	case Rot90:
		return Rot270
	case Rot270:
		return Rot90
	}
	return t
}

// ApplyBoard returns a new board with every stone moved by t.
func (t Transform) ApplyBoard(b Board) Board {
	out := Board{size: b.size, cells: make([]byte, len(b.cells))}
	if t == Identity {
		copy(out.cells, b.cells)
		return out
	}
	for i, c := range b.cells {
		dst := t.ApplyMove(MoveAt(i, b.size), b.size)
		out.cells[dst.Index(b.size)] = c
	}
	return out
}

// cellAt reads cell (x, y) of t applied to b without materializing it.
func (t Transform) cellAt(b Board, x, y int) byte {
	src := t.Inverse().ApplyMove(Move{X: x, Y: y}, b.size)
	return b.cells[src.Index(b.size)]
}
