package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
)

type recordsRepo struct {
	db *sql.DB
}

const selectRecord = `SELECT user_id, address, encrypted_secret, schema_version, enrolled_at FROM user_records`

func (r *recordsRepo) Get(ctx context.Context, userID string) (domain.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRecord+` WHERE user_id = ?`, userID)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.UserRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *recordsRepo) Has(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_records WHERE user_id = ?)`, userID,
	).Scan(&exists)
	return exists, err
}

// Put relies on the primary key: a conflicting insert affects no rows.
func (r *recordsRepo) Put(ctx context.Context, rec domain.UserRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_records (user_id, address, encrypted_secret, schema_version, enrolled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		rec.UserID,
		rec.Address,
		rec.EncryptedSecret,
		rec.SchemaVersion,
		formatTime(rec.EnrolledAt),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *recordsRepo) List(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRecord+` ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domain.UserRecord, error) {
	var (
		rec        domain.UserRecord
		enrolledAt string
	)
	if err := s.Scan(&rec.UserID, &rec.Address, &rec.EncryptedSecret, &rec.SchemaVersion, &enrolledAt); err != nil {
		return domain.UserRecord{}, err
	}

	t, err := parseTime(enrolledAt)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("sqlite: bad enrolled_at for %q: %w", rec.UserID, err)
	}
	rec.EnrolledAt = t
	return rec, nil
}

// Timestamps are stored as RFC 3339 text so they sort and read naturally.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
