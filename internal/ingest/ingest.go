// Package ingest runs the extraction pipeline: one loader groups game
// records, a pool of workers extracts canonical move rows, and one writer
// flushes them to storage in bulk.
//
// Stages talk only through bounded channels carrying Message values. The
// loader ends the input with one Done per worker, each worker forwards its
// Done to the writer, and the writer stops after counting one Done per
// worker and flushing what is left.
package ingest

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/gomoves/internal/extract"
	"github.com/freeeve/gomoves/internal/metrics"
	"github.com/freeeve/gomoves/internal/records"
	"github.com/freeeve/gomoves/internal/store"
)

// Config configures a pipeline run.
type Config struct {
	Workers        int                   // worker count, default runtime.NumCPU()
	GroupSize      int                   // records per loader group, default 256
	FlushThreshold int                   // buffered rows per bulk insert, default 5000
	InputBuffer    int                   // loader -> workers capacity, default 2*Workers
	ResultBuffer   int                   // workers -> writer capacity, default 32
	MaxMoves       int                   // per-game move cap, default 50
	NewOracle      extract.OracleFactory // default extract.RulesOracle
	ProgressEvery  time.Duration         // writer progress log interval, default 10s
	Logger         zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.GroupSize <= 0 {
		c.GroupSize = 256
	}
	if c.FlushThreshold <= 0 {
		c.FlushThreshold = store.DefaultFlushThreshold
	}
	if c.InputBuffer <= 0 {
		c.InputBuffer = 2 * c.Workers
	}
	if c.ResultBuffer <= 0 {
		c.ResultBuffer = 32
	}
	if c.MaxMoves <= 0 {
		c.MaxMoves = extract.DefaultMaxMoves
	}
	if c.NewOracle == nil {
		c.NewOracle = extract.RulesOracle
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = 10 * time.Second
	}
	return c
}

type (
	groupMsg  = Message[[]records.Game]
	resultMsg = Message[[]store.MoveRow]
)

// Pipeline moves games from a Source to a Sink.
type Pipeline struct {
	cfg   Config
	src   records.Source
	sink  store.Sink
	stats *Stats
	log   zerolog.Logger
}

// New returns a pipeline reading src and writing sink. The pipeline does
// not close either.
func New(cfg Config, src records.Source, sink store.Sink) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:   cfg,
		src:   src,
		sink:  sink,
		stats: newStats(),
		log:   cfg.Logger,
	}
}

// Stats returns the live counters.
func (p *Pipeline) Stats() *Stats { return p.stats }

// Run processes the source to exhaustion. The first stage failure cancels
// the others and is returned as a *StageError; cancelling ctx stops every
// stage without waiting on a channel. The snapshot is valid either way.
func (p *Pipeline) Run(ctx context.Context) (Snapshot, error) {
	cfg := p.cfg
	p.log.Info().
		Int("workers", cfg.Workers).
		Int("group_size", cfg.GroupSize).
		Int("flush_threshold", cfg.FlushThreshold).
		Int("input_buffer", cfg.InputBuffer).
		Int("result_buffer", cfg.ResultBuffer).
		Int("max_moves", cfg.MaxMoves).
		Msg("pipeline starting")

	groups := make(chan groupMsg, cfg.InputBuffer)
	results := make(chan resultMsg, cfg.ResultBuffer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.load(ctx, groups) })
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error { return p.work(ctx, i, groups, results) })
	}
	g.Go(func() error { return p.write(ctx, results) })

	err := g.Wait()
	snap := p.stats.Snapshot()

	lvl := zerolog.InfoLevel
	if err != nil {
		lvl = zerolog.ErrorLevel
	}
	p.log.WithLevel(lvl).Err(err).
		Int64("games", snap.GamesProcessed).
		Int64("skipped", snap.GamesSkipped).
		Int64("rows_flushed", snap.RowsFlushed()).
		Int64("rows_duplicate", snap.Flush.RowsSkipped).
		Int64("batches", snap.Flush.Batches).
		Dur("elapsed", snap.Elapsed).
		Msg("pipeline finished")
	return snap, err
}

func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv[T any](ctx context.Context, ch <-chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// load reads the source into groups of GroupSize records, then sends one
// Done per worker.
func (p *Pipeline) load(ctx context.Context, out chan<- groupMsg) error {
	log := p.log.With().Str("stage", string(StageLoader)).Logger()
	group := make([]records.Game, 0, p.cfg.GroupSize)

	for {
		game, err := p.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &StageError{Stage: StageLoader, Err: err}
		}
		p.stats.gamesRead.Add(1)
		metrics.GamesReadTotal.Inc()

		group = append(group, game)
		if len(group) == p.cfg.GroupSize {
			if err := send(ctx, out, Data(group)); err != nil {
				return err
			}
			p.stats.groups.Add(1)
			group = make([]records.Game, 0, p.cfg.GroupSize)
		}
	}
	if len(group) > 0 {
		if err := send(ctx, out, Data(group)); err != nil {
			return err
		}
		p.stats.groups.Add(1)
	}

	for i := 0; i < p.cfg.Workers; i++ {
		if err := send(ctx, out, Done[[]records.Game]()); err != nil {
			return err
		}
	}
	log.Debug().Int64("games", p.stats.gamesRead.Load()).Msg("source exhausted")
	return nil
}

// work extracts rows from each group until it receives Done, which it
// forwards to the writer. Each worker owns its processor and oracles.
func (p *Pipeline) work(ctx context.Context, id int, in <-chan groupMsg, out chan<- resultMsg) error {
	log := p.log.With().Str("stage", string(StageWorker)).Int("worker", id).Logger()
	proc := extract.NewProcessor(p.cfg.MaxMoves, p.cfg.NewOracle)

	for {
		msg, err := recv(ctx, in)
		if err != nil {
			return err
		}
		if msg.Done {
			return send(ctx, out, Done[[]store.MoveRow]())
		}

		var batch []store.MoveRow
		for _, game := range msg.Data {
			res, err := proc.Extract(game.Size, game.Moves)
			if err != nil {
				p.stats.gamesSkipped.Add(1)
				metrics.GamesSkippedTotal.Inc()
				log.Warn().Err(err).Int64("game_id", game.ID).Msg("skipping game")
				continue
			}
			for i, st := range res.Steps {
				batch = append(batch, store.MoveRow{
					GameID:    game.ID,
					MoveNum:   int16(i + 1),
					BoardHash: st.Digest,
					MoveX:     int16(st.Move.X),
					MoveY:     int16(st.Move.Y),
				})
			}
			p.stats.gamesProcessed.Add(1)
			metrics.GamesProcessedTotal.WithLabelValues(res.Stop.String()).Inc()
		}
		if len(batch) == 0 {
			continue
		}
		p.stats.rowsProduced.Add(int64(len(batch)))
		metrics.RowsProducedTotal.Add(float64(len(batch)))
		if err := send(ctx, out, Data(batch)); err != nil {
			return err
		}
	}
}

// write buffers row batches and flushes them until every worker has sent
// Done, then flushes the remainder.
func (p *Pipeline) write(ctx context.Context, in <-chan resultMsg) error {
	log := p.log.With().Str("stage", string(StageWriter)).Logger()
	flusher := store.NewFlusher(p.sink, p.cfg.FlushThreshold, p.stats.flush, log)

	ticker := time.NewTicker(p.cfg.ProgressEvery)
	defer ticker.Stop()

	for done := 0; done < p.cfg.Workers; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.logProgress(log, flusher.Pending())
		case msg := <-in:
			if msg.Done {
				done++
				p.stats.doneSignals.Add(1)
				continue
			}
			if err := flusher.Add(ctx, msg.Data); err != nil {
				return p.storageError(ctx, err)
			}
		}
	}
	if err := flusher.Flush(ctx); err != nil {
		return p.storageError(ctx, err)
	}
	log.Debug().Int64("done_signals", p.stats.doneSignals.Load()).Msg("all workers finished")
	return nil
}

func (p *Pipeline) storageError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}
	return &StageError{Stage: StageStorage, Err: err}
}

func (p *Pipeline) logProgress(log zerolog.Logger, pending int) {
	snap := p.stats.Snapshot()
	rate := float64(snap.RowsFlushed()) / snap.Elapsed.Seconds()
	log.Info().
		Int64("games", snap.GamesProcessed).
		Int64("skipped", snap.GamesSkipped).
		Int64("rows", snap.RowsFlushed()).
		Int("pending", pending).
		Msgf("ingest progress: %s games, %s rows, %s rows/sec",
			humanize.Comma(snap.GamesProcessed),
			humanize.Comma(snap.RowsFlushed()),
			humanize.CommafWithDigits(rate, 0))
}
