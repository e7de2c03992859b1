package records

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Options configures a FileSource.
type Options struct {
	Filter Filter
	// Start and Stop select accepted records [Start, Stop), counted from
	// zero in file order. Stop 0 means no upper bound.
	Start int64
	Stop  int64
	// MaxLineBytes bounds a single record line (default 16MB).
	MaxLineBytes int
	Logger       zerolog.Logger
}

// SourceStats counts what a FileSource has read so far.
type SourceStats struct {
	Lines     int64
	Malformed int64
	Filtered  int64
	Accepted  int64
	Emitted   int64
}

// FileSource streams JSON-lines game records from a plain, gzip or zstd
// file. Compression is detected from the content, not the name.
type FileSource struct {
	path    string
	opts    Options
	r       *bufio.Reader
	closers []io.Closer
	log     zerolog.Logger
	done    bool

	lines     atomic.Int64
	malformed atomic.Int64
	filtered  atomic.Int64
	accepted  atomic.Int64
	emitted   atomic.Int64
}

// Open opens path ("-" reads stdin) for streaming.
func Open(path string, opts Options) (*FileSource, error) {
	if opts.Start < 0 {
		return nil, fmt.Errorf("records: negative start %d", opts.Start)
	}
	if opts.Stop != 0 && opts.Stop <= opts.Start {
		return nil, fmt.Errorf("records: empty range [%d, %d)", opts.Start, opts.Stop)
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 16 << 20
	}

	var f io.ReadCloser
	if path == "-" {
		f = io.NopCloser(os.Stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open records %s: %w", path, err)
		}
		f = file
	}
	s := &FileSource{path: path, opts: opts, closers: []io.Closer{f}, log: opts.Logger}

	br := bufio.NewReaderSize(f, 1<<20)
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		s.closers = append(s.closers, gz)
		s.r = bufio.NewReaderSize(gz, 1<<20)
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		s.closers = append(s.closers, rc)
		s.r = bufio.NewReaderSize(rc, 1<<20)
	default:
		s.r = br
	}
	return s, nil
}

// Next implements Source.
func (s *FileSource) Next(ctx context.Context) (Game, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Game{}, err
		}
		if s.done {
			return Game{}, io.EOF
		}
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			if len(line) == 0 {
				if errors.Is(err, io.EOF) {
					return Game{}, io.EOF
				}
				return Game{}, fmt.Errorf("read records %s: %w", s.path, err)
			}
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		n := s.lines.Add(1)

		var raw rawGame
		if err := json.Unmarshal(line, &raw); err != nil {
			s.malformed.Add(1)
			s.log.Warn().Err(err).Int64("line", n).Str("file", filepath.Base(s.path)).Msg("skipping malformed record")
			continue
		}
		if !s.opts.Filter.accept(&raw) {
			s.filtered.Add(1)
			continue
		}
		game, err := raw.toGame(s.opts.Filter.withDefaults().Size)
		if err != nil {
			s.malformed.Add(1)
			s.log.Warn().Err(err).Int64("line", n).Str("file", filepath.Base(s.path)).Msg("skipping malformed record")
			continue
		}
		idx := s.accepted.Add(1) - 1
		if idx < s.opts.Start {
			continue
		}
		if s.opts.Stop != 0 && idx >= s.opts.Stop {
			s.done = true
			return Game{}, io.EOF
		}
		s.emitted.Add(1)
		return game, nil
	}
}

// readLine returns the next line, rejecting lines above MaxLineBytes.
func (s *FileSource) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := s.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > s.opts.MaxLineBytes {
			return nil, fmt.Errorf("record line exceeds %d bytes", s.opts.MaxLineBytes)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, err
	}
}

// Stats returns the read counters.
func (s *FileSource) Stats() SourceStats {
	return SourceStats{
		Lines:     s.lines.Load(),
		Malformed: s.malformed.Load(),
		Filtered:  s.filtered.Load(),
		Accepted:  s.accepted.Load(),
		Emitted:   s.emitted.Load(),
	}
}

// Close releases the decompressor and the file.
func (s *FileSource) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// IsRecordFile reports whether name looks like a game record dump.
func IsRecordFile(name string) bool {
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst")
	ext := filepath.Ext(name)
	return ext == ".json" || ext == ".jsonl" || ext == ".ndjson"
}
