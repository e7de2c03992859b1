// Command ingest extracts canonical (position, move) rows from game records
// and bulk-loads them into the moves table.
//
//	DATABASE_URL=postgres://... ingest --input ogs.jsonl.zst --workers 8
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/freeeve/gomoves/internal/config"
	"github.com/freeeve/gomoves/internal/httpapi"
	"github.com/freeeve/gomoves/internal/ingest"
	"github.com/freeeve/gomoves/internal/logx"
	"github.com/freeeve/gomoves/internal/metrics"
	"github.com/freeeve/gomoves/internal/records"
	"github.com/freeeve/gomoves/internal/store"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return exitOK
		}
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return exitConfig
	}

	logger, err := logx.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return exitConfig
	}
	runID := uuid.NewString()
	logger = logger.With().Str("run", runID).Logger()

	if cfg.Input != "-" && !records.IsRecordFile(cfg.Input) {
		logger.Warn().Str("input", cfg.Input).Msg("input does not look like a JSON-lines record dump")
	}
	logger.Info().
		Str("input", cfg.Input).
		Str("database", store.Redact(cfg.DatabaseURL)).
		Int64("start", cfg.Start).
		Int64("stop", cfg.Stop).
		Int("workers", cfg.Workers).
		Str("on_conflict", cfg.OnConflict).
		Msg("starting ingest")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := records.Open(cfg.Input, cfg.RecordOptions(logger.With().Str("component", "records").Logger()))
	if err != nil {
		logger.Error().Err(err).Str("stage", string(ingest.StageLoader)).Msg("open input")
		return exitFailed
	}
	defer src.Close()

	st, err := store.Open(cfg.DatabaseURL, cfg.Policy())
	if err != nil {
		logger.Error().Err(err).Str("stage", string(ingest.StageStorage)).Msg("open database")
		return exitFailed
	}
	defer st.Close()

	if !cfg.NoCreateSchema {
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Error().Err(err).Str("stage", string(ingest.StageStorage)).Msg("create schema")
			return exitFailed
		}
	}

	p := ingest.New(cfg.Pipeline(logger), src, st)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Register(reg); err != nil {
			logger.Error().Err(err).Msg("register metrics")
			return exitFailed
		}

		srvCtx, srvCancel := context.WithCancel(ctx)
		srvDone := make(chan struct{})
		defer func() {
			srvCancel()
			<-srvDone
		}()
		go func() {
			defer close(srvDone)
			handler := httpapi.NewRouter(logger.With().Str("component", "http").Logger(), runID, p.Stats(), reg)
			if err := httpapi.Serve(srvCtx, cfg.MetricsAddr, handler, logger); err != nil {
				logger.Error().Err(err).Msg("status server")
			}
		}()
	}

	snap, runErr := p.Run(ctx)
	logSummary(logger, src.Stats(), snap)

	if runErr != nil {
		stage := "interrupted"
		var se *ingest.StageError
		if errors.As(runErr, &se) {
			stage = string(se.Stage)
		}
		logger.Error().
			Err(runErr).
			Str("stage", stage).
			Int64("rows_flushed", snap.RowsFlushed()).
			Msgf("ingest failed in %s after flushing %s rows", stage, humanize.Comma(snap.RowsFlushed()))
		return exitFailed
	}

	if n, err := st.Count(ctx); err == nil {
		logger.Info().Int64("rows", n).Msgf("moves table holds %s rows", humanize.Comma(n))
	}
	return exitOK
}

func logSummary(log zerolog.Logger, ss records.SourceStats, snap ingest.Snapshot) {
	log.Info().
		Int64("lines", ss.Lines).
		Int64("malformed", ss.Malformed).
		Int64("filtered", ss.Filtered).
		Int64("games", snap.GamesProcessed).
		Int64("games_skipped", snap.GamesSkipped).
		Int64("rows_produced", snap.RowsProduced).
		Int64("rows_flushed", snap.RowsFlushed()).
		Int64("rows_duplicate", snap.Flush.RowsSkipped).
		Int64("batches", snap.Flush.Batches).
		Dur("elapsed", snap.Elapsed).
		Float64("games_per_sec", float64(snap.GamesProcessed)/snap.Elapsed.Seconds()).
		Msg("ingest complete")
}
