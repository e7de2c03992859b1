package store

import (
	"fmt"
	"net/url"
	"strings"
)

// Open picks a backend from the shape of dsn:
//
//	postgres://..., postgresql://..., "host=... dbname=..."  postgres
//	sqlite://path, file:path?..., *.db, *.sqlite, *.sqlite3   sqlite
//	memory://                                                in-memory
func Open(dsn string, policy ConflictPolicy) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemStore(policy), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return wrap(OpenPostgres(dsn, policy))
	case strings.HasPrefix(dsn, "sqlite://"):
		return wrap(OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"), policy))
	case strings.HasPrefix(dsn, "file:"),
		strings.HasSuffix(dsn, ".db"),
		strings.HasSuffix(dsn, ".sqlite"),
		strings.HasSuffix(dsn, ".sqlite3"):
		return wrap(OpenSQLite(dsn, policy))
	case !strings.Contains(dsn, "://") && strings.Contains(dsn, "="):
		return wrap(OpenPostgres(dsn, policy))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDSN, Redact(dsn))
}

func wrap(s *SQLStore, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Redact hides the password of a connection string.
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Redacted()
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}
