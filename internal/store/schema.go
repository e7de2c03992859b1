package store

import "strconv"

// Dialect selects the SQL flavour of a SQLStore.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// driver is the database/sql driver name.
func (d Dialect) driver() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// maxRowsPerStatement keeps a multi-row INSERT under each backend's bind
// parameter limit (postgres 65535, sqlite 999 on old builds).
func (d Dialect) maxRowsPerStatement() int {
	if d == Postgres {
		return 2000
	}
	return 199
}

// placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

const (
	tableName = "moves"
	indexName = "idx_moves_board_hash"
)

var columns = []string{"game_id", "move_num", "board_hash", "move_x", "move_y"}

func (d Dialect) schema() []string {
	hashType := "BYTEA"
	if d == SQLite {
		hashType = "BLOB"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	game_id    INTEGER  NOT NULL,
	move_num   SMALLINT NOT NULL,
	board_hash ` + hashType + ` NOT NULL,
	move_x     SMALLINT NOT NULL,
	move_y     SMALLINT NOT NULL,
	UNIQUE (game_id, move_num)
)`,
		`CREATE INDEX IF NOT EXISTS ` + indexName + ` ON ` + tableName + ` (board_hash)`,
	}
}
