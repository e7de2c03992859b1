package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MemStore keeps rows in memory with the same identity and conflict rules
// as the SQL backends.
type MemStore struct {
	mu     sync.Mutex
	policy ConflictPolicy
	rows   map[key]MoveRow
	closed bool
}

// NewMemStore returns an empty store.
func NewMemStore(policy ConflictPolicy) *MemStore {
	return &MemStore{policy: policy, rows: make(map[key]MoveRow)}
}

var errClosed = errors.New("store closed")

// Insert implements Sink. Under PolicyReject a batch with any colliding
// row, including a collision inside the batch, stores nothing.
func (m *MemStore) Insert(ctx context.Context, rows []MoveRow) (InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return InsertResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return InsertResult{}, errClosed
	}

	if m.policy == PolicyReject {
		seen := make(map[key]struct{}, len(rows))
		for _, r := range rows {
			k := r.key()
			if _, ok := m.rows[k]; ok {
				return InsertResult{}, fmt.Errorf("%w: %s", ErrDuplicate, r)
			}
			if _, ok := seen[k]; ok {
				return InsertResult{}, fmt.Errorf("%w: %s", ErrDuplicate, r)
			}
			seen[k] = struct{}{}
		}
	}

	var res InsertResult
	for _, r := range rows {
		k := r.key()
		if _, ok := m.rows[k]; ok {
			res.Skipped++
			continue
		}
		m.rows[k] = r
		res.Inserted++
	}
	return res, nil
}

// EnsureSchema is a no-op.
func (m *MemStore) EnsureSchema(context.Context) error { return nil }

// Count returns the number of stored rows.
func (m *MemStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

// Policy returns the conflict policy of this store.
func (m *MemStore) Policy() ConflictPolicy { return m.policy }

// Rows returns all rows ordered by game and move number.
func (m *MemStore) Rows() []MoveRow {
	m.mu.Lock()
	out := make([]MoveRow, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].GameID != out[j].GameID {
			return out[i].GameID < out[j].GameID
		}
		return out[i].MoveNum < out[j].MoveNum
	})
	return out
}

// Close implements Sink.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
