// Package config is the command-line and environment surface of an ingest
// run.
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/freeeve/gomoves/internal/board"
	"github.com/freeeve/gomoves/internal/ingest"
	"github.com/freeeve/gomoves/internal/records"
	"github.com/freeeve/gomoves/internal/store"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"text" choice:"json" description:"Logging output format"`
}

// Config is the full set of run options.
type Config struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Connection string: postgres://..., key=value, sqlite://path, *.db or memory://"`
	Input       string `long:"input" short:"i" env:"GOMOVES_INPUT" description:"JSON-lines game records, optionally gzip or zstd compressed (- for stdin)"`

	Start int64 `long:"start" default:"0" description:"First accepted record to process (zero-based)"`
	Stop  int64 `long:"stop" default:"0" description:"Stop before this accepted record (0 = no limit)"`

	Workers        int `long:"workers" env:"GOMOVES_WORKERS" default:"0" description:"Extraction workers (0 = number of CPUs)"`
	MaxMoves       int `long:"max-moves" default:"50" description:"Moves extracted per game at most"`
	GroupSize      int `long:"group-size" default:"256" description:"Records per loader group"`
	FlushThreshold int `long:"flush-threshold" default:"5000" description:"Buffered rows that trigger a bulk insert"`
	InputBuffer    int `long:"input-buffer" default:"0" description:"Loader to worker channel capacity (0 = 2 x workers)"`
	ResultBuffer   int `long:"result-buffer" default:"32" description:"Worker to writer channel capacity"`

	OnConflict     string `long:"on-conflict" default:"ignore" choice:"ignore" choice:"reject" description:"Rows colliding on (game_id, move_num): skip them, or fail the run"`
	NoCreateSchema bool   `long:"no-create-schema" description:"Do not create the moves table and index"`

	BoardSize  int      `long:"board-size" default:"9" description:"Board side length of accepted games"`
	MinMoves   int      `long:"min-moves" default:"20" description:"Minimum recorded moves of accepted games"`
	RankedOnly bool     `long:"ranked-only" description:"Accept ranked games only"`
	KomiMin    *float64 `long:"komi-min" description:"Minimum komi of accepted games"`
	KomiMax    *float64 `long:"komi-max" description:"Maximum komi of accepted games"`

	MetricsAddr string `long:"metrics-addr" env:"GOMOVES_METRICS_ADDR" description:"Serve /metrics, /healthz and /stats on this address"`

	Log LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

// NewParser returns a go-flags parser bound to cfg.
func NewParser(cfg *Config) *flags.Parser {
	p := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = "--database-url URL --input FILE [OPTIONS]"
	return p
}

// Parse parses args (without the program name) and the environment, then
// validates. A help request returns a *flags.Error of type flags.ErrHelp.
func Parse(args []string) (*Config, error) {
	var cfg Config
	rest, err := NewParser(&cfg).ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", ErrInvalid, rest)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the options and fills derived defaults. It touches no
// file or connection.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return invalid("database url is required (--database-url or DATABASE_URL)")
	case c.Input == "":
		return invalid("input is required (--input or GOMOVES_INPUT)")
	case c.Start < 0:
		return invalid("start %d is negative", c.Start)
	case c.Stop < 0:
		return invalid("stop %d is negative", c.Stop)
	case c.Stop != 0 && c.Stop <= c.Start:
		return invalid("empty range [%d, %d)", c.Start, c.Stop)
	case c.Workers < 0:
		return invalid("workers %d is negative", c.Workers)
	case c.MaxMoves < 1:
		return invalid("max moves must be at least 1")
	case c.MaxMoves > math.MaxInt16:
		return invalid("max moves %d exceeds the move_num column limit %d", c.MaxMoves, math.MaxInt16)
	case c.GroupSize < 1:
		return invalid("group size must be at least 1")
	case c.FlushThreshold < 1:
		return invalid("flush threshold must be at least 1")
	case c.InputBuffer < 0:
		return invalid("input buffer %d is negative", c.InputBuffer)
	case c.ResultBuffer < 1:
		return invalid("result buffer must be at least 1")
	case c.BoardSize < 2 || c.BoardSize > board.MaxSize:
		return invalid("board size %d outside [2, %d]", c.BoardSize, board.MaxSize)
	case c.MinMoves < 0:
		return invalid("min moves %d is negative", c.MinMoves)
	case c.KomiMin != nil && c.KomiMax != nil && *c.KomiMin > *c.KomiMax:
		return invalid("komi range [%g, %g] is empty", *c.KomiMin, *c.KomiMax)
	}
	if _, err := store.ParseConflictPolicy(c.OnConflict); err != nil {
		return invalid("%v", err)
	}

	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.InputBuffer == 0 {
		c.InputBuffer = 2 * c.Workers
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Policy returns the parsed conflict policy.
func (c *Config) Policy() store.ConflictPolicy {
	p, _ := store.ParseConflictPolicy(c.OnConflict)
	return p
}

// Filter returns the record filter.
func (c *Config) Filter() records.Filter {
	return records.Filter{
		Size:       c.BoardSize,
		MinMoves:   c.MinMoves,
		RankedOnly: c.RankedOnly,
		KomiMin:    c.KomiMin,
		KomiMax:    c.KomiMax,
	}
}

// RecordOptions returns the options for opening the input.
func (c *Config) RecordOptions(log zerolog.Logger) records.Options {
	return records.Options{
		Filter: c.Filter(),
		Start:  c.Start,
		Stop:   c.Stop,
		Logger: log,
	}
}

// Pipeline returns the pipeline configuration.
func (c *Config) Pipeline(log zerolog.Logger) ingest.Config {
	return ingest.Config{
		Workers:        c.Workers,
		GroupSize:      c.GroupSize,
		FlushThreshold: c.FlushThreshold,
		InputBuffer:    c.InputBuffer,
		ResultBuffer:   c.ResultBuffer,
		MaxMoves:       c.MaxMoves,
		Logger:         log,
	}
}
