// Package bolt stores user records in a bbolt database, one JSON value per
// user id in a single bucket.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"go.etcd.io/bbolt"
)

var (
	recordsBucket = []byte("user_records")
	metaBucket    = []byte("meta")
	versionKey    = []byte("schema_version")
)

const schemaVersion = "1"

// Store keeps one JSON-encoded record per key in a bbolt bucket.
type Store struct {
	db *bbolt.DB
}

// NewStore opens or creates the database at path. It waits at most timeout
// for the file lock held by another process.
func NewStore(path string, timeout time.Duration) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// ApplyMigrations creates the buckets and stamps the schema version.
func (s *Store) ApplyMigrations() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordsBucket); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}

		if v := meta.Get(versionKey); v != nil && string(v) != schemaVersion {
			return fmt.Errorf("bolt: unsupported schema version %q", v)
		}
		return meta.Put(versionKey, []byte(schemaVersion))
	})
}

func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		_, err := bucket(tx)
		return err
	})
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Records() store.Records { return &recordsRepo{db: s.db} }

type recordsRepo struct {
	db *bbolt.DB
}

// value is the JSON encoding of a record; the user id is the key.
type value struct {
	Address         string    `json:"address"`
	EncryptedSecret string    `json:"encryptedSecret"`
	SchemaVersion   int       `json:"schemaVersion"`
	EnrolledAt      time.Time `json:"enrolledAt"`
}

func (r *recordsRepo) Get(_ context.Context, userID string) (domain.UserRecord, error) {
	var rec domain.UserRecord
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		raw := b.Get([]byte(userID))
		if raw == nil {
			return store.ErrNotFound
		}
		rec, err = decode(userID, raw)
		return err
	})
	return rec, err
}

func (r *recordsRepo) Has(_ context.Context, userID string) (bool, error) {
	var ok bool
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		ok = b.Get([]byte(userID)) != nil
		return nil
	})
	return ok, err
}

// Put checks for an existing key inside the write transaction; bbolt allows
// one writer at a time so the check and insert are atomic.
func (r *recordsRepo) Put(_ context.Context, rec domain.UserRecord) error {
	raw, err := json.Marshal(value{
		Address:         rec.Address,
		EncryptedSecret: rec.EncryptedSecret,
		SchemaVersion:   rec.SchemaVersion,
		EnrolledAt:      rec.EnrolledAt.UTC(),
	})
	if err != nil {
		return err
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(rec.UserID)) != nil {
			return store.ErrAlreadyExists
		}
		return b.Put([]byte(rec.UserID), raw)
	})
	switch {
	case err == nil, errors.Is(err, store.ErrAlreadyExists):
		return err
	default:
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
}

// List walks the bucket in key order, which is user id order.
func (r *recordsRepo) List(context.Context) ([]domain.UserRecord, error) {
	var out []domain.UserRecord
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			rec, err := decode(string(k), v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

var errNotMigrated = errors.New("bolt: records bucket missing, migrations not applied")

func bucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(recordsBucket)
	if b == nil {
		return nil, errNotMigrated
	}
	return b, nil
}

func decode(userID string, raw []byte) (domain.UserRecord, error) {
	var v value
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.UserRecord{}, fmt.Errorf("bolt: decode record %q: %w", userID, err)
	}
	return domain.UserRecord{
		UserID:          userID,
		Address:         v.Address,
		EncryptedSecret: v.EncryptedSecret,
		SchemaVersion:   v.SchemaVersion,
		EnrolledAt:      v.EnrolledAt,
	}, nil
}
