package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrWriteFailed   = errors.New("store: write failed")
)

// Store is the root data access interface. Drivers (jsonfile, sqlite, bolt)
// implement it and own their own write serialisation.
type Store interface {
	Records() Records

	// ApplyMigrations brings the backing storage to the current schema.
	ApplyMigrations() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Records holds one record per user id. It is insert-only.
type Records interface {
	// Get returns the record for userID or ErrNotFound.
	Get(ctx context.Context, userID string) (domain.UserRecord, error)

	// Has reports whether a record exists for userID.
	Has(ctx context.Context, userID string) (bool, error)

	// Put inserts r and persists it before returning. It returns
	// ErrAlreadyExists if the user id is taken, and an error wrapping
	// ErrWriteFailed if persisting failed, in which case nothing was inserted.
	Put(ctx context.Context, r domain.UserRecord) error

	// List returns every record ordered by user id.
	List(ctx context.Context) ([]domain.UserRecord, error)
}
