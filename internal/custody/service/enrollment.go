package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/pkg/addrx"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/aussiebroadwan/custodian/pkg/keyx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"
)

// EnrollmentService takes custody of a user's private key: it validates the
// key, derives the public address, encrypts the key under the user's
// password and stores the result under the chat user id.
type EnrollmentService struct {
	Store  store.Store
	Cipher *cryptox.SecretCipher

	// Now defaults to time.Now.
	Now func() time.Time
}

// Enroll creates the custody record for userID and returns the derived
// address. It never overwrites an existing record.
func (s *EnrollmentService) Enroll(
	ctx context.Context,
	userID, password, rawKey string,
) (domain.PublicProfile, error) {
	log := slogx.FromContext(ctx).With("user_id", userID)

	if blank(userID) || blank(password) || blank(rawKey) {
		return domain.PublicProfile{}, ErrMalformedInput
	}

	// Fail fast before paying for key derivation. Put below stays the
	// authority when two enrollments race.
	enrolled, err := s.Store.Records().Has(ctx, userID)
	if err != nil {
		return domain.PublicProfile{}, fmt.Errorf("check existing record: %w", err)
	}
	if enrolled {
		return domain.PublicProfile{}, ErrAlreadyEnrolled
	}

	secret, err := keyx.Validate(rawKey)
	if err != nil {
		log.Info("enrollment rejected", "reason", reason(err))
		return domain.PublicProfile{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	defer secret.Wipe()

	address, err := addrx.Derive(secret.Bytes())
	if err != nil {
		return domain.PublicProfile{}, fmt.Errorf("%w: %w", ErrInvalidKeyMaterial, err)
	}

	plaintext := secret.AppendHex(make([]byte, 0, keyx.HexLength))
	defer cryptox.Wipe(plaintext)

	envelope, err := s.Cipher.Encrypt(plaintext, password)
	if err != nil {
		return domain.PublicProfile{}, fmt.Errorf("encrypt secret: %w", err)
	}

	rec := domain.UserRecord{
		UserID:          userID,
		Address:         address.String(),
		EncryptedSecret: envelope,
		SchemaVersion:   domain.SchemaVersionCurrent,
		EnrolledAt:      s.now().UTC(),
	}

	switch err := s.Store.Records().Put(ctx, rec); {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.PublicProfile{}, ErrAlreadyEnrolled
	case err != nil:
		log.Error("failed to persist enrollment", "err", err)
		return domain.PublicProfile{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	log.Info("user enrolled", "address", rec.Address)
	return rec.Profile(), nil
}

// EnrollMessage enrolls from a single chat message of the form
// "<password> <private key>".
func (s *EnrollmentService) EnrollMessage(ctx context.Context, userID, text string) (domain.PublicProfile, error) {
	password, rawKey, err := ParseEnrollmentMessage(text)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	return s.Enroll(ctx, userID, password, rawKey)
}

// ParseEnrollmentMessage splits text on whitespace. The first token is the
// password and the second the key; anything after that is ignored.
func ParseEnrollmentMessage(text string) (password, rawKey string, err error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", "", ErrMalformedInput
	}
	return fields[0], fields[1], nil
}

// HasRecord reports whether userID is enrolled.
func (s *EnrollmentService) HasRecord(ctx context.Context, userID string) (bool, error) {
	return s.Store.Records().Has(ctx, userID)
}

// Profile returns the public profile of an enrolled user.
func (s *EnrollmentService) Profile(ctx context.Context, userID string) (domain.PublicProfile, error) {
	rec, err := s.Store.Records().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.PublicProfile{}, ErrNotEnrolled
	}
	if err != nil {
		return domain.PublicProfile{}, err
	}
	return rec.Profile(), nil
}

func (s *EnrollmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// reason names a key validation failure for logs.
func reason(err error) string {
	switch {
	case errors.Is(err, keyx.ErrInvalidLength):
		return "length"
	case errors.Is(err, keyx.ErrInvalidHex):
		return "hex"
	default:
		return "unknown"
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
