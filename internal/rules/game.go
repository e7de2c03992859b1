// Package rules implements the Go (weiqi) rules the extractor replays games
// against: placement on empty points, captures, suicide and simple ko.
package rules

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/freeeve/gomoves/internal/board"
)

// Game is the running state of a single game. It is not safe for
// concurrent use; each worker replays its games on its own instance.
type Game struct {
	size   int
	cells  []board.Cell
	toMove board.Cell
	ko     int // cell index the next player may not play, -1 if none

	// scratch space for flood fills
	mark  []uint32
	epoch uint32
	stack []int
}

// New starts an empty game with black to move.
func New(size int) (*Game, error) {
	if size < 1 || size > board.MaxSize {
		return nil, fmt.Errorf("rules: board size %d out of range [1, %d]", size, board.MaxSize)
	}
	return &Game{
		size:   size,
		cells:  make([]board.Cell, size*size),
		toMove: board.Black,
		ko:     -1,
		mark:   make([]uint32, size*size),
		stack:  make([]int, 0, size*size),
	}, nil
}

// Size returns the side length.
func (g *Game) Size() int { return g.size }

// Board returns a snapshot of the current position.
func (g *Game) Board() board.Board {
	b, err := board.FromCells(g.size, g.cells)
	if err != nil {
		// cells are only ever written with valid colours
		panic(err)
	}
	return b
}

// Play places a stone for the player to move and advances the turn.
// Rule violations return an error matching ErrIllegal and leave the game
// unchanged.
func (g *Game) Play(m board.Move) error {
	me := moveError{player: g.toMove, move: m}
	if m.IsPass() {
		g.ko = -1
		g.toMove = g.toMove.Opponent()
		return nil
	}
	if err := m.Validate(g.size); err != nil {
		return errors.WithMessage(me, "off the board")
	}
	idx := m.Index(g.size)
	if g.cells[idx] != board.Empty {
		return errors.WithMessage(me, "point is occupied")
	}
	if idx == g.ko {
		return errors.WithMessage(me, "retakes a ko")
	}

	player, opp := g.toMove, g.toMove.Opponent()
	g.cells[idx] = player

	var captured []int
	for _, n := range g.neighbours(idx) {
		if n < 0 || g.cells[n] != opp {
			continue
		}
		stones, libs := g.group(n)
		if libs == 0 {
			captured = append(captured, stones...)
		}
	}
	for _, c := range captured {
		g.cells[c] = board.Empty
	}

	stones, libs := g.group(idx)
	if libs == 0 {
		g.cells[idx] = board.Empty
		return errors.WithMessage(me, "suicide is not allowed")
	}

	g.ko = -1
	if len(captured) == 1 && len(stones) == 1 && libs == 1 {
		g.ko = captured[0]
	}
	g.toMove = opp
	return nil
}

// neighbours returns the orthogonal neighbours of idx, -1 where off board.
func (g *Game) neighbours(idx int) [4]int {
	x, y := idx/g.size, idx%g.size
	out := [4]int{-1, -1, -1, -1}
	if x > 0 {
		out[0] = idx - g.size
	}
	if x < g.size-1 {
		out[1] = idx + g.size
	}
	if y > 0 {
		out[2] = idx - 1
	}
	if y < g.size-1 {
		out[3] = idx + 1
	}
	return out
}

// group flood-fills the chain containing idx and counts its distinct
// liberties.
func (g *Game) group(idx int) (stones []int, libs int) {
	g.epoch++
	if g.epoch == 0 {
		for i := range g.mark {
			g.mark[i] = 0
		}
		g.epoch = 1
	}
	colour := g.cells[idx]
	g.stack = append(g.stack[:0], idx)
	g.mark[idx] = g.epoch
	for len(g.stack) > 0 {
		cur := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]
		stones = append(stones, cur)
		for _, n := range g.neighbours(cur) {
			if n < 0 || g.mark[n] == g.epoch {
				continue
			}
			switch g.cells[n] {
			case board.Empty:
				g.mark[n] = g.epoch
				libs++
			case colour:
				g.mark[n] = g.epoch
				g.stack = append(g.stack, n)
			}
		}
	}
	return stones, libs
}
