package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/custodian/internal/custody/store"
	_ "modernc.org/sqlite"
)

// Store keeps user records in a single SQLite table, migrated with
// golang-migrate.
type Store struct {
	db  *sql.DB
	dsn string
}

// NewStore opens dsn with the modernc driver. Pass ":memory:" in tests.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer. One connection serialises writes and keeps
	// a :memory: database shared across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Records() store.Records { return &recordsRepo{db: s.db} }
