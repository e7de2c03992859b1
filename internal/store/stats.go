package store

import (
	"sync/atomic"
	"time"
)

// Stats summarises the bulk inserts of a run.
type Stats struct {
	Batches       int64         `json:"batches"`
	FailedBatches int64         `json:"failed_batches"`
	RowsInserted  int64         `json:"rows_inserted"`
	RowsSkipped   int64         `json:"rows_skipped"`
	FlushTime     time.Duration `json:"flush_time_ns"`
	LastFlush     time.Duration `json:"last_flush_ns"`
}

// StatsCollector counts flushes. The writer records, anyone may read.
type StatsCollector struct {
	batches     atomic.Int64
	failed      atomic.Int64
	inserted    atomic.Int64
	skipped     atomic.Int64
	flushNanos  atomic.Int64
	lastFlushNs atomic.Int64
}

// NewStatsCollector returns a zeroed collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// RecordFlush accounts for one successful bulk insert.
func (s *StatsCollector) RecordFlush(res InsertResult, d time.Duration) {
	s.batches.Add(1)
	s.inserted.Add(res.Inserted)
	s.skipped.Add(res.Skipped)
	s.flushNanos.Add(int64(d))
	s.lastFlushNs.Store(int64(d))
}

// RecordFailure accounts for one failed bulk insert.
func (s *StatsCollector) RecordFailure() {
	s.failed.Add(1)
}

// RowsInserted returns the rows written so far.
func (s *StatsCollector) RowsInserted() int64 {
	return s.inserted.Load()
}

// Stats returns a snapshot.
func (s *StatsCollector) Stats() Stats {
	return Stats{
		Batches:       s.batches.Load(),
		FailedBatches: s.failed.Load(),
		RowsInserted:  s.inserted.Load(),
		RowsSkipped:   s.skipped.Load(),
		FlushTime:     time.Duration(s.flushNanos.Load()),
		LastFlush:     time.Duration(s.lastFlushNs.Load()),
	}
}
