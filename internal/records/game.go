// Package records reads recorded games and filters them down to the
// even, unmodified games the extractor works on.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/freeeve/gomoves/internal/board"
)

// Game is one in-scope game record.
type Game struct {
	ID    int64
	Size  int
	Moves []board.Move
}

// Source produces game records. Next returns io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (Game, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	games []Game
	pos   int
}

// NewSliceSource returns a source over games.
func NewSliceSource(games []Game) *SliceSource {
	return &SliceSource{games: games}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Game, error) {
	if err := ctx.Err(); err != nil {
		return Game{}, err
	}
	if s.pos >= len(s.games) {
		return Game{}, io.EOF
	}
	g := s.games[s.pos]
	s.pos++
	return g, nil
}

// rawGame is the subset of a JSON game record the filter and extractor read.
type rawGame struct {
	GameID        *int64            `json:"game_id"`
	Width         *int              `json:"width"`
	Height        *int              `json:"height"`
	Moves         []json.RawMessage `json:"moves"`
	OriginalSGF   json.RawMessage   `json:"original_sgf"`
	WhitePlayerID int64             `json:"white_player_id"`
	BlackPlayerID int64             `json:"black_player_id"`
	Handicap      *int              `json:"handicap"`
	InitialPlayer string            `json:"initial_player"`
	InitialState  *initialState     `json:"initial_state"`
	Ranked        flexBool          `json:"ranked"`
	Komi          *flexFloat        `json:"komi"`
}

type initialState struct {
	Black string `json:"black"`
	White string `json:"white"`
}

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexBool accepts true/false as well as 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = flexBool(v)
	}
	return nil
}

// parseMove converts an [x, y, ...] entry. Anything that is not at least a
// coordinate pair is a terminal marker and reads as a pass. A coordinate
// pair with a fractional component is an error.
func parseMove(raw json.RawMessage) (board.Move, error) {
	var coords []float64
	if err := json.Unmarshal(raw, &coords); err != nil || len(coords) < 2 {
		return board.Pass, nil
	}
	x, y := coords[0], coords[1]
	if x != math.Trunc(x) || y != math.Trunc(y) || math.Abs(x) > math.MaxInt32 || math.Abs(y) > math.MaxInt32 {
		return board.Move{}, fmt.Errorf("non-integral coordinate [%g, %g]", x, y)
	}
	return board.Move{X: int(x), Y: int(y)}, nil
}

// size returns the record's board size, or def when it states neither
// dimension.
func (r *rawGame) size(def int) int {
	if r.Width != nil {
		return *r.Width
	}
	if r.Height != nil {
		return *r.Height
	}
	return def
}

func (r *rawGame) toGame(defSize int) (Game, error) {
	moves := make([]board.Move, len(r.Moves))
	for i, raw := range r.Moves {
		m, err := parseMove(raw)
		if err != nil {
			return Game{}, fmt.Errorf("move %d: %w", i+1, err)
		}
		moves[i] = m
	}
	var id int64
	if r.GameID != nil {
		id = *r.GameID
	}
	return Game{ID: id, Size: r.size(defSize), Moves: moves}, nil
}
