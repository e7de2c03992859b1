package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/freeeve/gomoves/internal/board"
)

var (
	// ErrDuplicate is returned by Insert under PolicyReject when a row's
	// (game_id, move_num) already exists.
	ErrDuplicate = errors.New("duplicate move row")

	// ErrUnsupportedDSN is returned by Open for connection strings that no
	// backend recognises.
	ErrUnsupportedDSN = errors.New("unsupported database url")
)

// MoveRow is one row of the moves table.
type MoveRow struct {
	GameID    int64
	MoveNum   int16 // 1-based
	BoardHash board.Digest
	MoveX     int16
	MoveY     int16
}

// key is the row identity the UNIQUE constraint covers.
type key struct {
	gameID  int64
	moveNum int16
}

func (r MoveRow) key() key { return key{r.GameID, r.MoveNum} }

func (r MoveRow) String() string {
	return fmt.Sprintf("game %d move %d (%d,%d) %s", r.GameID, r.MoveNum, r.MoveX, r.MoveY, r.BoardHash)
}

// ConflictPolicy decides what a bulk insert does with rows that collide
// with existing ones.
type ConflictPolicy int

const (
	// PolicyIgnore skips colliding rows and reports them as skipped.
	PolicyIgnore ConflictPolicy = iota
	// PolicyReject fails the whole batch with ErrDuplicate.
	PolicyReject
)

func (p ConflictPolicy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyReject:
		return "reject"
	}
	return fmt.Sprintf("ConflictPolicy(%d)", int(p))
}

// ParseConflictPolicy parses "ignore" or "reject".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "ignore":
		return PolicyIgnore, nil
	case "reject":
		return PolicyReject, nil
	}
	return 0, fmt.Errorf("unknown conflict policy %q (want ignore or reject)", s)
}

// InsertResult reports what a bulk insert did.
type InsertResult struct {
	Inserted int64
	Skipped  int64 // conflicting rows dropped under PolicyIgnore
}

// Sink receives bulk inserts. Each Insert is atomic: on error no row of
// the batch is stored.
type Sink interface {
	Insert(ctx context.Context, rows []MoveRow) (InsertResult, error)
	Close() error
}

// Store is a Sink that owns its schema and can count what it holds.
type Store interface {
	Sink
	EnsureSchema(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Policy() ConflictPolicy
}
