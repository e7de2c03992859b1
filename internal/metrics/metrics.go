// Package metrics declares the prometheus collectors of an ingest run.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collectors for the ingest pipeline and the batch sink.
var (
	GamesReadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gomoves_games_read_total",
		Help: "Cumulative number of game records handed to workers.",
	})
	GamesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gomoves_games_processed_total",
		Help: "Cumulative number of games extracted, by stop reason.",
	}, []string{"stop"})
	GamesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gomoves_games_skipped_total",
		Help: "Cumulative number of games rejected for malformed moves.",
	})
	RowsProducedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gomoves_rows_produced_total",
		Help: "Cumulative number of move rows produced by workers.",
	})
	RowsInsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gomoves_rows_inserted_total",
		Help: "Cumulative number of move rows written to storage.",
	})
	RowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gomoves_rows_skipped_total",
		Help: "Cumulative number of move rows skipped as duplicates.",
	})
	FlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gomoves_flushes_total",
		Help: "Cumulative number of bulk inserts, by status.",
	}, []string{"status"})
	FlushDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gomoves_flush_duration_seconds",
		Help:    "Duration of bulk inserts.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	})
	FlushRows = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gomoves_flush_rows",
		Help:    "Number of rows per bulk insert.",
		Buckets: prometheus.ExponentialBuckets(16, 2, 14),
	})
)

// Collectors returns every collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		GamesReadTotal,
		GamesProcessedTotal,
		GamesSkippedTotal,
		RowsProducedTotal,
		RowsInsertedTotal,
		RowsSkippedTotal,
		FlushesTotal,
		FlushDurationSeconds,
		FlushRows,
	}
}

// Register adds every collector to reg, ignoring ones already present.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
