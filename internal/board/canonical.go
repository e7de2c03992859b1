package board

import "fmt"

// compareUnder orders t1(b) against t2(b) row-major without copying.
func compareUnder(b Board, t1, t2 Transform) int {
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			c1, c2 := t1.cellAt(b, x, y), t2.cellAt(b, x, y)
			if c1 < c2 {
				return -1
			}
			if c1 > c2 {
				return 1
			}
		}
	}
	return 0
}

// minimalTransforms returns every transform whose image of b is
// lexicographically smallest, in table order.
func minimalTransforms(b Board) []Transform {
	candidates := make([]Transform, 1, NumTransforms)
	candidates[0] = Identity
	best := Identity
	for _, t := range Transforms[1:] {
		switch cmp := compareUnder(b, best, t); {
		case cmp > 0:
			candidates = candidates[:1]
			candidates[0] = t
			best = t
		case cmp == 0:
			candidates = append(candidates, t)
		}
	}
	return candidates
}

// Canonicalize returns the transform mapping b to its smallest orientation.
// Among tied transforms the first in table order is returned.
func Canonicalize(b Board) Transform {
	return minimalTransforms(b)[0]
}

// CanonicalizeMove is Canonicalize with a move tie-break: when several
// transforms produce the same minimal board, the one mapping m to the
// smallest (x, y) wins. Symmetric (board, move) pairs therefore always
// reduce to the same canonical pair.
func CanonicalizeMove(b Board, m Move) (Transform, error) {
	if err := m.Validate(b.size); err != nil {
		return Identity, err
	}
	candidates := minimalTransforms(b)
	best := candidates[0]
	if len(candidates) == 1 || m.IsPass() {
		return best, nil
	}
	bestMove := best.ApplyMove(m, b.size)
	for _, t := range candidates[1:] {
		if tm := t.ApplyMove(m, b.size); tm.Less(bestMove) {
			best, bestMove = t, tm
		}
	}
	return best, nil
}

// Position is a board and move reduced to canonical orientation.
type Position struct {
	Transform Transform
	Board     Board
	Move      Move
	Digest    Digest
}

// Canonical reduces (b, m) to its canonical orientation and hashes the
// resulting board. The canonical board is an independent copy.
func Canonical(b Board, m Move) (Position, error) {
	if b.size == 0 {
		return Position{}, fmt.Errorf("board: canonical form of an uninitialized board")
	}
	t, err := CanonicalizeMove(b, m)
	if err != nil {
		return Position{}, err
	}
	cb := t.ApplyBoard(b)
	return Position{
		Transform: t,
		Board:     cb,
		Move:      t.ApplyMove(m, b.size),
		Digest:    Hash(cb),
	}, nil
}
