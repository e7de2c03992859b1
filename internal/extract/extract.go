// Package extract replays a game record against a legality oracle and
// emits one canonical (digest, move) step per accepted move.
package extract

import (
	"fmt"

	"github.com/freeeve/gomoves/internal/board"
	"github.com/freeeve/gomoves/internal/rules"
)

// DefaultMaxMoves is the per-game move cap.
const DefaultMaxMoves = 50

// Oracle owns the authoritative board state of one game.
type Oracle interface {
	// Board returns a snapshot of the current position.
	Board() board.Board
	// Play applies a move, returning an error if it is illegal.
	Play(m board.Move) error
}

// OracleFactory starts a fresh game on a board of the given size.
type OracleFactory func(size int) (Oracle, error)

// RulesOracle is the OracleFactory backed by the rules package.
func RulesOracle(size int) (Oracle, error) {
	g, err := rules.New(size)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Step is one extracted move in canonical orientation.
type Step struct {
	Digest board.Digest
	Move   board.Move
}

// StopReason records why extraction of a game ended.
type StopReason uint8

const (
	StopEnd     StopReason = iota // ran out of moves
	StopCap                       // reached the move cap
	StopPass                      // pass or terminal marker
	StopIllegal                   // oracle rejected a move
)

func (r StopReason) String() string {
	switch r {
	case StopEnd:
		return "end"
	case StopCap:
		return "cap"
	case StopPass:
		return "pass"
	case StopIllegal:
		return "illegal"
	}
	return "unknown"
}

// Result is the outcome of extracting one game.
type Result struct {
	Steps []Step
	Stop  StopReason
}

// Processor extracts canonical steps from move sequences. A Processor holds
// no game state between calls; each call starts a new oracle.
type Processor struct {
	maxMoves  int
	newOracle OracleFactory
}

// NewProcessor returns a processor capped at maxMoves moves per game
// (DefaultMaxMoves if maxMoves <= 0).
func NewProcessor(maxMoves int, newOracle OracleFactory) *Processor {
	if maxMoves <= 0 {
		maxMoves = DefaultMaxMoves
	}
	if newOracle == nil {
		newOracle = RulesOracle
	}
	return &Processor{maxMoves: maxMoves, newOracle: newOracle}
}

// MaxMoves returns the per-game move cap.
func (p *Processor) MaxMoves() int { return p.maxMoves }

// Extract replays moves on a fresh board of the given size.
//
// Extraction stops without error at the first pass (continuing would flip
// which colour moves at each index) and at the first move the oracle
// rejects; the rejected move contributes no step. Moves after the stop are
// never looked at. A coordinate outside the board, reached before any stop,
// is an input error and yields no steps at all.
func (p *Processor) Extract(size int, moves []board.Move) (Result, error) {
	oracle, err := p.newOracle(size)
	if err != nil {
		return Result{}, fmt.Errorf("start game: %w", err)
	}

	n := len(moves)
	if n > p.maxMoves {
		n = p.maxMoves
	}
	res := Result{Steps: make([]Step, 0, n), Stop: StopEnd}
	for i, m := range moves {
		if i >= p.maxMoves {
			res.Stop = StopCap
			break
		}
		if m.IsPass() {
			res.Stop = StopPass
			break
		}
		pos, err := board.Canonical(oracle.Board(), m)
		if err != nil {
			return Result{}, fmt.Errorf("move %d: %w", i+1, err)
		}
		if err := oracle.Play(m); err != nil {
			res.Stop = StopIllegal
			break
		}
		res.Steps = append(res.Steps, Step{Digest: pos.Digest, Move: pos.Move})
	}
	return res, nil
}
