package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/freeeve/gomoves/internal/ingest"
)

// StatsResponse is the /stats body.
type StatsResponse struct {
	RunID      string          `json:"run_id,omitempty"`
	Elapsed    string          `json:"elapsed"`
	RowsPerSec float64         `json:"rows_per_sec"`
	Summary    string          `json:"summary"`
	Counters   ingest.Snapshot `json:"counters"`
}

// ToStatsResponse converts a pipeline snapshot.
func ToStatsResponse(runID string, snap ingest.Snapshot) StatsResponse {
	resp := StatsResponse{
		RunID:    runID,
		Elapsed:  snap.Elapsed.Round(time.Millisecond).String(),
		Counters: snap,
	}
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		resp.RowsPerSec = float64(snap.RowsFlushed()) / secs
	}
	resp.Summary = humanize.Comma(snap.GamesProcessed) + " games, " +
		humanize.Comma(snap.RowsFlushed()) + " rows flushed"
	return resp
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
