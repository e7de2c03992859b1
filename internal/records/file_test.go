package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/gomoves/internal/board"
)

func defaultFilter() Filter { return Filter{Size: board.DefaultSize, MinMoves: 20} }

// gameLine renders a record that passes defaultFilter unless overridden.
func gameLine(id int, extra string) string {
	var moves []string
	for i := 0; i < 20; i++ {
		moves = append(moves, fmt.Sprintf("[%d,%d,1234]", i%9, i/9))
	}
	return fmt.Sprintf(`{"game_id":%d,"width":9,"height":9,"white_player_id":1,"black_player_id":2,"handicap":0,"moves":[%s]%s}`,
		id, strings.Join(moves, ","), extra)
}

func writeFile(t *testing.T, name string, lines []string, wrap func(io.Writer) io.WriteCloser) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	var w io.Writer = f
	var wc io.WriteCloser
	if wrap != nil {
		wc = wrap(f)
		w = wc
	}
	_, err = io.WriteString(w, strings.Join(lines, "\n")+"\n")
	require.NoError(t, err)
	if wc != nil {
		require.NoError(t, wc.Close())
	}
	require.NoError(t, f.Close())
	return path
}

func readAll(t *testing.T, s Source) []Game {
	t.Helper()
	var out []Game
	for {
		g, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, g)
	}
}

func TestFileSourceCompression(t *testing.T) {
	lines := []string{gameLine(1, ""), gameLine(2, ""), gameLine(3, "")}
	cases := map[string]func(io.Writer) io.WriteCloser{
		"games.jsonl": nil,
		"games.jsonl.gz": func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		},
		"games.jsonl.zst": func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return enc
		},
	}
	for name, wrap := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, lines, wrap)
			s, err := Open(path, Options{Filter: defaultFilter()})
			require.NoError(t, err)
			defer s.Close()

			games := readAll(t, s)
			require.Len(t, games, 3)
			assert.Equal(t, int64(1), games[0].ID)
			assert.Equal(t, 9, games[0].Size)
			require.Len(t, games[0].Moves, 20)
			assert.Equal(t, board.Move{X: 1, Y: 0}, games[0].Moves[1])
			assert.Equal(t, board.Move{X: 0, Y: 1}, games[0].Moves[9])
		})
	}
}

func TestFileSourceFilter(t *testing.T) {
	lines := []string{
		gameLine(1, ""),
		gameLine(2, `,"original_sgf":"(;GM[1])"`),
		strings.Replace(gameLine(3, ""), `"width":9`, `"width":19`, 1),
		strings.Replace(gameLine(4, ""), `"handicap":0`, `"handicap":2`, 1),
		strings.Replace(gameLine(5, ""), `"white_player_id":1`, `"white_player_id":0`, 1),
		gameLine(6, `,"initial_player":"white"`),
		gameLine(7, `,"initial_state":{"black":"dd","white":""}`),
		gameLine(8, `,"initial_state":{"black":"","white":""}`),
		`{"game_id":9,"width":9,"height":9,"white_player_id":1,"black_player_id":2,"handicap":0,"moves":[[1,1,0]]}`,
		strings.Replace(gameLine(10, ""), `"handicap":0,`, ``, 1),
		`not json at all`,
		``,
	}
	path := writeFile(t, "games.jsonl", lines, nil)
	s, err := Open(path, Options{Filter: defaultFilter()})
	require.NoError(t, err)
	defer s.Close()

	var ids []int64
	for _, g := range readAll(t, s) {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int64{1, 8}, ids)

	st := s.Stats()
	assert.Equal(t, int64(11), st.Lines)
	assert.Equal(t, int64(1), st.Malformed)
	assert.Equal(t, int64(8), st.Filtered)
	assert.Equal(t, int64(2), st.Emitted)
}

func TestFileSourceRankedAndKomi(t *testing.T) {
	lines := []string{
		gameLine(1, `,"ranked":true,"komi":"5.5"`),
		gameLine(2, `,"ranked":false,"komi":5.5`),
		gameLine(3, `,"ranked":1,"komi":7.5`),
		gameLine(4, `,"ranked":true`),
	}
	path := writeFile(t, "games.jsonl", lines, nil)
	lo, hi := 5.0, 6.0
	s, err := Open(path, Options{Filter: Filter{Size: 9, MinMoves: 20, RankedOnly: true, KomiMin: &lo, KomiMax: &hi}})
	require.NoError(t, err)
	defer s.Close()

	games := readAll(t, s)
	require.Len(t, games, 1)
	assert.Equal(t, int64(1), games[0].ID)
}

func TestFileSourceRange(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, gameLine(100+i, ""))
		// filtered records do not count towards the range
		lines = append(lines, gameLine(900+i, `,"original_sgf":"x"`))
	}
	path := writeFile(t, "games.jsonl", lines, nil)

	s, err := Open(path, Options{Filter: defaultFilter(), Start: 3, Stop: 6})
	require.NoError(t, err)
	defer s.Close()

	var ids []int64
	for _, g := range readAll(t, s) {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int64{103, 104, 105}, ids)

	_, err = Open(path, Options{Start: 5, Stop: 5})
	assert.Error(t, err)
	_, err = Open(path, Options{Start: -1})
	assert.Error(t, err)
}

func TestParseMoveTerminalMarkers(t *testing.T) {
	line := strings.Replace(gameLine(1, ""), `[0,0,1234]`, `[-1,-1,1234]`, 1)
	line = strings.Replace(line, `[1,0,1234]`, `[]`, 1)
	path := writeFile(t, "games.jsonl", []string{line}, nil)
	s, err := Open(path, Options{Filter: defaultFilter()})
	require.NoError(t, err)
	defer s.Close()

	games := readAll(t, s)
	require.Len(t, games, 1)
	assert.True(t, games[0].Moves[0].IsPass())
	assert.True(t, games[0].Moves[1].IsPass())
	assert.False(t, games[0].Moves[2].IsPass())
}

func TestFileSourceDimensionlessRecordTakesFilterSize(t *testing.T) {
	line := strings.Replace(gameLine(7, ""), `"width":9,"height":9,`, "", 1)
	path := writeFile(t, "games.jsonl", []string{line}, nil)

	f := defaultFilter()
	f.Size = 13
	s, err := Open(path, Options{Filter: f})
	require.NoError(t, err)
	defer s.Close()

	games := readAll(t, s)
	require.Len(t, games, 1)
	assert.Equal(t, 13, games[0].Size)
}

func TestFileSourceNonIntegralCoordinate(t *testing.T) {
	bad := strings.Replace(gameLine(1, ""), `[1,0,1234]`, `[3.7,0,1234]`, 1)
	path := writeFile(t, "games.jsonl", []string{bad, gameLine(2, "")}, nil)
	s, err := Open(path, Options{Filter: defaultFilter()})
	require.NoError(t, err)
	defer s.Close()

	games := readAll(t, s)
	require.Len(t, games, 1)
	assert.Equal(t, int64(2), games[0].ID)

	st := s.Stats()
	assert.Equal(t, int64(1), st.Malformed)
	assert.Equal(t, int64(1), st.Emitted)
}

func TestFileSourceLineLimit(t *testing.T) {
	path := writeFile(t, "games.jsonl", []string{gameLine(1, "")}, nil)
	s, err := Open(path, Options{Filter: defaultFilter(), MaxLineBytes: 64})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Next(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestSliceSource(t *testing.T) {
	s := NewSliceSource([]Game{{ID: 1}, {ID: 2}})
	games := readAll(t, s)
	assert.Len(t, games, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSliceSource([]Game{{ID: 1}}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRecordFile(t *testing.T) {
	assert.True(t, IsRecordFile("ogs.json.gz"))
	assert.True(t, IsRecordFile("games.jsonl.zst"))
	assert.True(t, IsRecordFile("games.ndjson"))
	assert.False(t, IsRecordFile("games.pgn"))
	assert.False(t, IsRecordFile("games.gz"))
}
