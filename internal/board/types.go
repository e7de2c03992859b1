// Package board models square Go boards, their eight symmetries and the
// canonical content digest of a position.
package board

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultSize is the side length of the boards this system extracts from.
const DefaultSize = 9

// MaxSize is the largest supported side length (standard 19x19 Go board).
const MaxSize = 19

// Cell is the content of one intersection.
//
// The numeric values are the byte layout the digest is computed over:
//
//	0 = empty, 1 = black (player A), 2 = white (player B)
type Cell uint8

const (
	Empty Cell = 0
	Black Cell = 1
	White Cell = 2
)

// Opponent returns the other player's colour. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (c Cell) String() string {
	switch c {
	case Black:
		return "X"
	case White:
		return "O"
	}
	return "·"
}

// Board is an immutable square grid snapshot stored row-major, one byte
// per cell. Row index is the move's X coordinate, column index its Y.
type Board struct {
	size  int
	cells []byte
}

// New returns an empty board of the given side length.
func New(size int) (Board, error) {
	if size < 1 || size > MaxSize {
		return Board{}, fmt.Errorf("board size %d out of range [1, %d]", size, MaxSize)
	}
	return Board{size: size, cells: make([]byte, size*size)}, nil
}

// FromCells builds a board from row-major cell values. The slice is copied.
func FromCells(size int, cells []Cell) (Board, error) {
	b, err := New(size)
	if err != nil {
		return Board{}, err
	}
	if len(cells) != size*size {
		return Board{}, fmt.Errorf("board: %d cells for a %dx%d board", len(cells), size, size)
	}
	for i, c := range cells {
		if c > White {
			return Board{}, fmt.Errorf("board: invalid cell value %d at index %d", c, i)
		}
		b.cells[i] = byte(c)
	}
	return b, nil
}

// Size returns the side length.
func (b Board) Size() int { return b.size }

// At returns the cell at row x, column y.
func (b Board) At(x, y int) Cell { return Cell(b.cells[x*b.size+y]) }

// Bytes returns a copy of the row-major cell bytes.
func (b Board) Bytes() []byte {
	out := make([]byte, len(b.cells))
	copy(out, b.cells)
	return out
}

// With returns a copy of b with the cell at (x, y) set to c.
func (b Board) With(x, y int, c Cell) Board {
	out := Board{size: b.size, cells: b.Bytes()}
	out.cells[x*b.size+y] = byte(c)
	return out
}

// Equal reports whether both boards have the same size and contents.
func (b Board) Equal(other Board) bool {
	return b.size == other.size && bytes.Equal(b.cells, other.cells)
}

// Compare orders boards of equal size lexicographically in row-major order
// over the cell values (empty < black < white).
func Compare(a, b Board) (int, error) {
	if a.size != b.size {
		return 0, fmt.Errorf("board: cannot compare %dx%d with %dx%d", a.size, a.size, b.size, b.size)
	}
	return bytes.Compare(a.cells, b.cells), nil
}

// String renders the board one row per line.
func (b Board) String() string {
	var sb strings.Builder
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			if y > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.At(x, y).String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
