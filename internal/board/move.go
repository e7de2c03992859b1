package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is returned for coordinates that are neither on the board
// nor the pass marker.
var ErrInvalidMove = errors.New("invalid move")

// Move is a zero-based (X, Y) intersection. X selects the row, Y the column.
// A coordinate of -1 on either axis is a pass.
type Move struct {
	X, Y int
}

// Pass is the canonical pass marker. It terminates extraction for a game.
var Pass = Move{X: -1, Y: -1}

// IsPass reports whether m is a pass marker.
func (m Move) IsPass() bool { return m.X == -1 || m.Y == -1 }

// Validate checks that m is either a pass or lies on a board of the given size.
func (m Move) Validate(size int) error {
	if m.IsPass() {
		if m.X < -1 || m.Y < -1 || m.X >= size || m.Y >= size {
			return fmt.Errorf("%w: (%d, %d) on %dx%d board", ErrInvalidMove, m.X, m.Y, size, size)
		}
		return nil
	}
	if m.X < 0 || m.X >= size || m.Y < 0 || m.Y >= size {
		return fmt.Errorf("%w: (%d, %d) on %dx%d board", ErrInvalidMove, m.X, m.Y, size, size)
	}
	return nil
}

// Less orders moves lexicographically as (X, Y) pairs.
func (m Move) Less(other Move) bool {
	if m.X != other.X {
		return m.X < other.X
	}
	return m.Y < other.Y
}

// Index returns the row-major cell index of m on a board of the given size.
func (m Move) Index(size int) int { return m.X*size + m.Y }

// MoveAt is the inverse of Index.
func MoveAt(idx, size int) Move { return Move{X: idx / size, Y: idx % size} }

func (m Move) String() string {
	if m.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("(%d,%d)", m.X, m.Y)
}
