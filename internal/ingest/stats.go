package ingest

import (
	"sync/atomic"
	"time"

	"github.com/freeeve/gomoves/internal/store"
)

// Stats counts pipeline progress. Stages write, any goroutine may read.
type Stats struct {
	started time.Time

	gamesRead      atomic.Int64
	gamesProcessed atomic.Int64
	gamesSkipped   atomic.Int64
	rowsProduced   atomic.Int64
	groups         atomic.Int64
	doneSignals    atomic.Int64

	flush *store.StatsCollector
}

func newStats() *Stats {
	return &Stats{started: time.Now(), flush: store.NewStatsCollector()}
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Elapsed        time.Duration `json:"elapsed_ns"`
	GamesRead      int64         `json:"games_read"`
	GamesProcessed int64         `json:"games_processed"`
	GamesSkipped   int64         `json:"games_skipped"`
	RowsProduced   int64         `json:"rows_produced"`
	Groups         int64         `json:"groups"`
	DoneSignals    int64         `json:"done_signals"`
	Flush          store.Stats   `json:"flush"`
}

// RowsFlushed returns the rows written to storage.
func (s Snapshot) RowsFlushed() int64 { return s.Flush.RowsInserted }

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Elapsed:        time.Since(s.started),
		GamesRead:      s.gamesRead.Load(),
		GamesProcessed: s.gamesProcessed.Load(),
		GamesSkipped:   s.gamesSkipped.Load(),
		RowsProduced:   s.rowsProduced.Load(),
		Groups:         s.groups.Load(),
		DoneSignals:    s.doneSignals.Load(),
		Flush:          s.flush.Stats(),
	}
}
