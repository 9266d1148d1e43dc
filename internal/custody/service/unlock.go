package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/pkg/addrx"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/aussiebroadwan/custodian/pkg/keyx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"
)

// UnlockService recovers a custodied key with the user's password. It is the
// primitive signing would be built on; it never signs anything itself.
type UnlockService struct {
	Store  store.Store
	Cipher *cryptox.SecretCipher
}

// Unlock decrypts the stored secret and checks it still derives the stored
// address. The caller must Wipe the returned key.
func (s *UnlockService) Unlock(ctx context.Context, userID, password string) (keyx.SecretKey, error) {
	key, _, err := s.unlock(ctx, userID, password)
	return key, err
}

// VerifyPassword reports whether password unlocks userID's key, wiping the
// key straight away.
func (s *UnlockService) VerifyPassword(ctx context.Context, userID, password string) (domain.PublicProfile, error) {
	key, rec, err := s.unlock(ctx, userID, password)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	key.Wipe()
	return rec.Profile(), nil
}

func (s *UnlockService) unlock(ctx context.Context, userID, password string) (keyx.SecretKey, domain.UserRecord, error) {
	var zero keyx.SecretKey

	rec, err := s.Store.Records().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return zero, rec, ErrNotEnrolled
	}
	if err != nil {
		return zero, rec, err
	}

	plaintext, err := s.Cipher.Decrypt(rec.EncryptedSecret, password)
	if err != nil {
		return zero, rec, ErrWrongPasswordOrCorrupt
	}
	defer cryptox.Wipe(plaintext)

	// Legacy envelopes have no MAC, so a wrong password can still yield
	// well-padded garbage. Re-validating and re-deriving catches it.
	key, err := keyx.Decode(plaintext)
	if err != nil {
		return zero, rec, ErrWrongPasswordOrCorrupt
	}

	address, err := addrx.Derive(key.Bytes())
	if err != nil || !strings.EqualFold(address.String(), rec.Address) {
		key.Wipe()
		if err == nil {
			slogx.FromContext(ctx).Warn("decrypted key does not match stored address")
		}
		return zero, rec, ErrWrongPasswordOrCorrupt
	}
	return key, rec, nil
}
