package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/freeeve/gomoves/internal/metrics"
)

// DefaultFlushThreshold is the buffered row count that triggers a flush.
const DefaultFlushThreshold = 5000

// Flusher buffers rows and hands them to a Sink in bulk. Like RowBuffer it
// is owned by a single goroutine.
type Flusher struct {
	sink      Sink
	buf       *RowBuffer
	threshold int
	stats     *StatsCollector
	log       zerolog.Logger
}

// NewFlusher returns a flusher that writes to sink once threshold rows are
// buffered. stats may be nil.
func NewFlusher(sink Sink, threshold int, stats *StatsCollector, log zerolog.Logger) *Flusher {
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}
	if stats == nil {
		stats = NewStatsCollector()
	}
	return &Flusher{
		sink:      sink,
		buf:       NewRowBuffer(threshold + threshold/2),
		threshold: threshold,
		stats:     stats,
		log:       log,
	}
}

// Add buffers rows and flushes if the threshold is reached.
func (f *Flusher) Add(ctx context.Context, rows []MoveRow) error {
	f.buf.Append(rows...)
	if f.buf.Len() >= f.threshold {
		return f.Flush(ctx)
	}
	return nil
}

// Flush writes every buffered row in one bulk insert. On failure the rows
// stay buffered.
func (f *Flusher) Flush(ctx context.Context) error {
	n := f.buf.Len()
	if n == 0 {
		return nil
	}
	start := time.Now()
	res, err := f.sink.Insert(ctx, f.buf.Rows())
	elapsed := time.Since(start)
	if err != nil {
		f.stats.RecordFailure()
		metrics.FlushesTotal.WithLabelValues(metrics.Fail).Inc()
		return fmt.Errorf("flush %d rows: %w", n, err)
	}
	f.buf.Reset()

	f.stats.RecordFlush(res, elapsed)
	metrics.FlushesTotal.WithLabelValues(metrics.Ok).Inc()
	metrics.FlushDurationSeconds.Observe(elapsed.Seconds())
	metrics.FlushRows.Observe(float64(n))
	metrics.RowsInsertedTotal.Add(float64(res.Inserted))
	metrics.RowsSkippedTotal.Add(float64(res.Skipped))

	lvl := zerolog.DebugLevel
	if res.Skipped > 0 {
		lvl = zerolog.InfoLevel
	}
	f.log.WithLevel(lvl).
		Int64("inserted", res.Inserted).
		Int64("skipped", res.Skipped).
		Dur("took", elapsed).
		Msgf("flushed %s rows", humanize.Comma(int64(n)))
	return nil
}

// Pending returns the number of buffered rows.
func (f *Flusher) Pending() int { return f.buf.Len() }

// Stats returns the flush counters.
func (f *Flusher) Stats() *StatsCollector { return f.stats }
