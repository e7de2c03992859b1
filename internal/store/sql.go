package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// SQLStore writes move rows to postgres or sqlite through database/sql.
// It is driven by a single writer; the pool is capped at one connection.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	policy    ConflictPolicy
	fullQuery string // INSERT for a full chunk of maxRowsPerStatement rows
}

// OpenPostgres connects to postgres using a lib/pq connection string.
func OpenPostgres(dsn string, policy ConflictPolicy) (*SQLStore, error) {
	return openSQL(Postgres, dsn, policy)
}

// OpenSQLite opens or creates the sqlite database at path.
func OpenSQLite(path string, policy ConflictPolicy) (*SQLStore, error) {
	s, err := openSQL(SQLite, path, policy)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(s.db); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	return s, nil
}

func openSQL(d Dialect, dsn string, policy ConflictPolicy) (*SQLStore, error) {
	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLStore{db: db, dialect: d, policy: policy}
	s.fullQuery = s.insertQuery(d.maxRowsPerStatement())
	return s, nil
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// EnsureSchema creates the moves table and its board_hash index if absent.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure %s schema: %w", s.dialect, err)
		}
	}
	return nil
}

// Insert writes rows in one transaction. Postgres batches under
// PolicyReject go through COPY; everything else uses multi-row INSERTs.
func (s *SQLStore) Insert(ctx context.Context, rows []MoveRow) (InsertResult, error) {
	if len(rows) == 0 {
		return InsertResult{}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertResult{}, fmt.Errorf("begin %s batch: %w", s.dialect, err)
	}

	var res InsertResult
	if s.dialect == Postgres && s.policy == PolicyReject {
		err = copyRows(ctx, tx, rows)
		res.Inserted = int64(len(rows))
	} else {
		res, err = s.insertRows(ctx, tx, rows)
	}
	if err == nil {
		err = tx.Commit()
	} else {
		_ = tx.Rollback()
	}
	if err != nil {
		if isUniqueViolation(err) {
			return InsertResult{}, fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
		return InsertResult{}, fmt.Errorf("%s batch of %d rows: %w", s.dialect, len(rows), err)
	}
	return res, nil
}

func (s *SQLStore) insertRows(ctx context.Context, tx *sql.Tx, rows []MoveRow) (InsertResult, error) {
	var res InsertResult
	per := s.dialect.maxRowsPerStatement()
	args := make([]any, 0, len(columns)*per)
	for start := 0; start < len(rows); start += per {
		chunk := rows[start:min(start+per, len(rows))]
		query := s.fullQuery
		if len(chunk) != per {
			query = s.insertQuery(len(chunk))
		}
		args = args[:0]
		for i := range chunk {
			args = append(args, rowArgs(&chunk[i])...)
		}
		r, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return res, err
		}
		n, err := r.RowsAffected()
		if err != nil {
			return res, err
		}
		res.Inserted += n
	}
	res.Skipped = int64(len(rows)) - res.Inserted
	return res, nil
}

func copyRows(ctx context.Context, tx *sql.Tx, rows []MoveRow) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(tableName, columns...))
	if err != nil {
		return err
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(&rows[i])...); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func rowArgs(r *MoveRow) []any {
	return []any{r.GameID, int64(r.MoveNum), r.BoardHash[:], int64(r.MoveX), int64(r.MoveY)}
}

// insertQuery builds a multi-row INSERT for n rows.
func (s *SQLStore) insertQuery(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(tableName)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")
	p := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for j := range columns {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s.dialect.placeholder(p))
			p++
		}
		b.WriteByte(')')
	}
	if s.policy == PolicyIgnore {
		b.WriteString(" ON CONFLICT (game_id, move_num) DO NOTHING")
	}
	return b.String()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Count returns the number of stored rows.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&n)
	return n, err
}

// Policy returns the conflict policy of this store.
func (s *SQLStore) Policy() ConflictPolicy { return s.policy }

// Dialect returns the backend flavour.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Close closes the database handle.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
