package records

import "github.com/freeeve/gomoves/internal/board"

// Filter selects the games worth extracting: unmodified, even games on the
// configured board size with enough moves.
type Filter struct {
	Size       int      // required width and height, default 9
	MinMoves   int      // minimum recorded moves, default 20
	RankedOnly bool     // keep only ranked games
	KomiMin    *float64 // inclusive, nil = unbounded
	KomiMax    *float64 // inclusive, nil = unbounded
}

func (f Filter) withDefaults() Filter {
	if f.Size == 0 {
		f.Size = board.DefaultSize
	}
	return f
}

// accept reports whether r passes the filter.
func (f Filter) accept(r *rawGame) bool {
	f = f.withDefaults()
	if len(r.Moves) < f.MinMoves {
		return false
	}
	// absent dimensions default to the configured size
	if r.Width != nil && *r.Width != f.Size {
		return false
	}
	if r.Height != nil && *r.Height != f.Size {
		return false
	}
	if r.GameID == nil {
		return false
	}
	// uploaded games
	if len(r.OriginalSGF) > 0 && string(r.OriginalSGF) != "null" {
		return false
	}
	if r.WhitePlayerID == 0 || r.BlackPlayerID == 0 {
		return false
	}
	// handicap must be stated and zero
	if r.Handicap == nil || *r.Handicap != 0 {
		return false
	}
	if r.InitialPlayer != "" && r.InitialPlayer != "black" {
		return false
	}
	if r.InitialState != nil && (r.InitialState.Black != "" || r.InitialState.White != "") {
		return false
	}
	if f.RankedOnly && !bool(r.Ranked) {
		return false
	}
	if f.KomiMin != nil || f.KomiMax != nil {
		if r.Komi == nil {
			return false
		}
		k := float64(*r.Komi)
		if f.KomiMin != nil && k < *f.KomiMin {
			return false
		}
		if f.KomiMax != nil && k > *f.KomiMax {
			return false
		}
	}
	return true
}
