// Package httpapi serves the status endpoints of a running ingest.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/freeeve/gomoves/internal/ingest"
)

// StatsSource provides live pipeline counters.
type StatsSource interface {
	Snapshot() ingest.Snapshot
}

// Handler serves /healthz and /stats.
type Handler struct {
	runID string
	stats StatsSource
	log   zerolog.Logger
}

// NewRouter returns the status mux: /metrics from gatherer, /healthz and
// /stats from stats.
func NewRouter(log zerolog.Logger, runID string, stats StatsSource, gatherer prometheus.Gatherer) http.Handler {
	h := &Handler{runID: runID, stats: stats, log: log}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", http.HandlerFunc(h.health))
	mux.Handle("/stats", http.HandlerFunc(h.statsHandler))

	return RequestID(AccessLog(log, mux))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, ToStatsResponse(h.runID, h.stats.Snapshot()))
}

// Serve runs handler on addr until ctx is done, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("status server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
