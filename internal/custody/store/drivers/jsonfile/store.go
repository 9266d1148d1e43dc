// Package jsonfile stores user records in a single JSON document on disk. It
// is the store the chat bot has always used; records written by the first
// release (an unversioned id → {address, encryptedKey} map) are read and
// upgraded on the next write.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
)

const fileVersion = 1

// Store keeps every record in memory and rewrites the whole document on each
// Put. It is safe for concurrent use within one process.
type Store struct {
	path   string
	logger *slog.Logger

	// mu serialises every load-mutate-save cycle, and guards users.
	mu    sync.Mutex
	users map[string]domain.UserRecord
}

// Open loads the document at path. A missing, empty or unparseable file is
// logged and treated as an empty mapping; Open only fails on a bad path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: empty path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		logger: logger.With("store", "jsonfile", "path", path),
	}
	s.users = s.readOrEmpty()
	return s, nil
}

// ApplyMigrations creates a missing document and rewrites a legacy one in the
// current layout. A document that does not parse is left untouched.
func (s *Store) ApplyMigrations() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s.save(s.users)
	case err != nil:
		return err
	case len(bytes.TrimSpace(raw)) == 0:
		return s.save(s.users)
	}

	users, legacy, err := decode(raw)
	if err != nil || !legacy {
		return nil
	}

	s.logger.Info("upgrading legacy user records", "count", len(users))
	s.users = users
	return s.save(users)
}

// Ping checks that the containing directory is still there.
func (s *Store) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) Records() store.Records { return (*recordsRepo)(s) }

// Load re-reads the document from disk, replacing the in-memory mapping.
// Read failures degrade to an empty mapping, like Open.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = s.readOrEmpty()
}

// Save writes the in-memory mapping to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(s.users)
}

func (s *Store) readOrEmpty() map[string]domain.UserRecord {
	users, err := s.read()
	if err != nil {
		s.logger.Error("failed to load user records, starting empty", "err", err)
		return map[string]domain.UserRecord{}
	}
	return users
}

// read returns the records on disk. A missing or empty file is an empty
// mapping, not an error.
func (s *Store) read() (map[string]domain.UserRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.UserRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]domain.UserRecord{}, nil
	}
	users, _, err := decode(raw)
	return users, err
}

// save serialises users and atomically replaces the file: write a temp file
// in the same directory, fsync it, then rename it over the target.
func (s *Store) save(users map[string]domain.UserRecord) error {
	raw, err := encode(users)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return err
	}

	// Persist the rename itself. Not every platform supports syncing a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

type recordsRepo Store

func (r *recordsRepo) Get(_ context.Context, userID string) (domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[userID]
	if !ok {
		return domain.UserRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *recordsRepo) Has(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[userID]
	return ok, nil
}

// Put reloads the document, inserts r and saves, all under the store mutex
// so concurrent enrollments cannot lose each other's writes. If the save
// fails the insert is rolled back.
//
// A document that cannot be read or parsed is never overwritten: Put fails
// with ErrWriteFailed until an operator repairs or moves the file.
func (r *recordsRepo) Put(_ context.Context, rec domain.UserRecord) error {
	s := (*Store)(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		s.logger.Error("refusing to write over unreadable user records", "err", err)
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	s.users = users

	if _, ok := s.users[rec.UserID]; ok {
		return store.ErrAlreadyExists
	}

	s.users[rec.UserID] = rec
	if err := s.save(s.users); err != nil {
		delete(s.users, rec.UserID)
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

func (r *recordsRepo) List(context.Context) ([]domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.UserRecord, 0, len(r.users))
	for _, rec := range r.users {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b domain.UserRecord) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return out, nil
}

/* On-disk layout */

type document struct {
	Version int                   `json:"version"`
	Users   map[string]fileRecord `json:"users"`
}

type fileRecord struct {
	Address         string    `json:"address"`
	EncryptedSecret string    `json:"encryptedSecret"`
	SchemaVersion   int       `json:"schemaVersion"`
	EnrolledAt      time.Time `json:"enrolledAt,omitzero"`
}

// legacyRecord is one entry of the unversioned layout.
type legacyRecord struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encryptedKey"`
}

func encode(users map[string]domain.UserRecord) ([]byte, error) {
	doc := document{Version: fileVersion, Users: make(map[string]fileRecord, len(users))}
	for id, rec := range users {
		doc.Users[id] = fileRecord{
			Address:         rec.Address,
			EncryptedSecret: rec.EncryptedSecret,
			SchemaVersion:   rec.SchemaVersion,
			EnrolledAt:      rec.EnrolledAt.UTC(),
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// decode parses either layout and reports whether it was the legacy one.
func decode(raw []byte) (users map[string]domain.UserRecord, legacy bool, err error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, fmt.Errorf("parse user records: %w", err)
	}

	if v, ok := probe["version"]; ok {
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, false, fmt.Errorf("parse user records: %w", err)
		}
		if doc.Version != fileVersion {
			return nil, false, fmt.Errorf("unsupported user records version %s", v)
		}
		users = make(map[string]domain.UserRecord, len(doc.Users))
		for id, fr := range doc.Users {
			users[id] = domain.UserRecord{
				UserID:          id,
				Address:         fr.Address,
				EncryptedSecret: fr.EncryptedSecret,
				SchemaVersion:   fr.SchemaVersion,
				EnrolledAt:      fr.EnrolledAt,
			}
		}
		return users, false, nil
	}

	users = make(map[string]domain.UserRecord, len(probe))
	for id, msg := range probe {
		var lr legacyRecord
		if err := json.Unmarshal(msg, &lr); err != nil {
			return nil, false, fmt.Errorf("parse legacy record %q: %w", id, err)
		}
		users[id] = domain.UserRecord{
			UserID:          id,
			Address:         lr.Address,
			EncryptedSecret: lr.EncryptedKey,
			SchemaVersion:   domain.SchemaVersionLegacy,
		}
	}
	return users, true, nil
}
