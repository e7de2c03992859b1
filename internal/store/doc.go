// Package store is the batch sink for extracted move rows.
//
// Rows accumulate in a RowBuffer owned by a single writer. A Flusher turns
// the buffer into one bulk insert whenever it reaches its threshold, and
// once more at shutdown. Every bulk insert is one transaction.
//
// Backends:
//   - SQLStore on postgres (lib/pq): multi-row INSERT, or COPY when
//     duplicates must fail the batch
//   - SQLStore on sqlite (go-sqlite3): multi-row INSERT, for local runs
//   - MemStore: in-process map, for dry runs and tests
//
// All backends share one row identity, (game_id, move_num), enforced by a
// UNIQUE constraint. What happens when a batch collides with it is decided
// once per run by ConflictPolicy.
package store
