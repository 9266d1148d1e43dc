package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/pkg/addrx"
	"github.com/stretchr/testify/require"
)

func TestUnlock(t *testing.T) {
	st := newFileStore(t)
	enroll, unlock := newServices(t, st)
	ctx := context.Background()

	_, err := enroll.Enroll(ctx, "42", "pw1", onesKey)
	require.NoError(t, err)

	t.Run("right password", func(t *testing.T) {
		key, err := unlock.Unlock(ctx, "42", "pw1")
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{0x11}, 32), key.Bytes())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := unlock.Unlock(ctx, "42", "pw2")
		require.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := unlock.Unlock(ctx, "43", "pw1")
		require.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("verify password", func(t *testing.T) {
		profile, err := unlock.VerifyPassword(ctx, "42", "pw1")
		require.NoError(t, err)
		require.Len(t, profile.Address, addrx.Length)

		_, err = unlock.VerifyPassword(ctx, "42", "nope")
		require.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
	})
}

func TestUnlock_AddressMismatch(t *testing.T) {
	st := newFileStore(t)
	enroll, unlock := newServices(t, st)
	ctx := context.Background()

	// A record whose envelope decrypts fine but belongs to another key.
	env, err := enroll.Cipher.Encrypt([]byte(strings.Repeat("2", 64)), "pw1")
	require.NoError(t, err)

	require.NoError(t, st.Records().Put(ctx, domain.UserRecord{
		UserID:          "42",
		Address:         onesAddress,
		EncryptedSecret: env,
		SchemaVersion:   domain.SchemaVersionCurrent,
		EnrolledAt:      testNow,
	}))

	_, err = unlock.Unlock(ctx, "42", "pw1")
	require.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
}

func TestUnlock_LegacyRecord(t *testing.T) {
	st := newFileStore(t)
	_, unlock := newServices(t, st)
	ctx := context.Background()

	require.NoError(t, st.Records().Put(ctx, domain.UserRecord{
		UserID:          "42",
		Address:         onesAddress,
		EncryptedSecret: legacyOnesPw1,
		SchemaVersion:   domain.SchemaVersionLegacy,
	}))

	key, err := unlock.Unlock(ctx, "42", "pw1")
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0x11}, 32), key.Bytes())

	_, err = unlock.Unlock(ctx, "42", "wrong")
	require.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
}
