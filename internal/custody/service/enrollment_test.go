package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/jsonfile"
	"github.com/aussiebroadwan/custodian/pkg/addrx"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/aussiebroadwan/custodian/pkg/keyx"
	"github.com/stretchr/testify/require"
)

func TestEnroll_EndToEnd(t *testing.T) {
	for name, st := range map[string]func(*testing.T) store.Store{
		"jsonfile": func(t *testing.T) store.Store { return newFileStore(t) },
		"sqlite":   func(t *testing.T) store.Store { return newSQLiteStore(t) },
	} {
		t.Run(name, func(t *testing.T) {
			s := st(t)
			enroll, unlock := newServices(t, s)
			ctx := context.Background()

			profile, err := enroll.Enroll(ctx, "42", "pw1", onesKey)
			require.NoError(t, err)
			require.Equal(t, onesAddress, profile.Address)

			ok, err := enroll.HasRecord(ctx, "42")
			require.NoError(t, err)
			require.True(t, ok)

			rec, err := s.Records().Get(ctx, "42")
			require.NoError(t, err)
			require.Equal(t, onesAddress, rec.Address)
			require.Equal(t, domain.SchemaVersionCurrent, rec.SchemaVersion)
			require.True(t, testNow.Equal(rec.EnrolledAt))
			require.NotContains(t, rec.EncryptedSecret, onesKey)
			require.NotContains(t, rec.EncryptedSecret, "pw1")

			plaintext, err := enroll.Cipher.Decrypt(rec.EncryptedSecret, "pw1")
			require.NoError(t, err)
			require.Equal(t, onesKey, string(plaintext))

			key, err := unlock.Unlock(ctx, "42", "pw1")
			require.NoError(t, err)
			addr, err := addrx.Derive(key.Bytes())
			require.NoError(t, err)
			require.Equal(t, onesAddress, addr.String())
			key.Wipe()
		})
	}
}

func TestEnroll_AcceptsPrefixAndCase(t *testing.T) {
	enroll, _ := newServices(t, newFileStore(t))
	ctx := context.Background()

	a, err := enroll.Enroll(ctx, "1", "pw", "0x"+strings.Repeat("aB", 32))
	require.NoError(t, err)
	b, err := enroll.Enroll(ctx, "2", "pw", strings.Repeat("Ab", 32))
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestEnroll_InvalidKey(t *testing.T) {
	st := newFileStore(t)
	enroll, _ := newServices(t, st)
	ctx := context.Background()

	_, err := enroll.Enroll(ctx, "42", "pw1", "abc")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, err, keyx.ErrInvalidLength)
	require.NotContains(t, err.Error(), "pw1")

	_, err = enroll.Enroll(ctx, "42", "pw1", strings.Repeat("g", 64))
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, err, keyx.ErrInvalidHex)
	require.NotContains(t, err.Error(), strings.Repeat("g", 64))

	// nothing stored
	ok, err := enroll.HasRecord(ctx, "42")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnroll_MalformedInput(t *testing.T) {
	enroll, _ := newServices(t, newFileStore(t))
	ctx := context.Background()

	for _, tc := range [][3]string{
		{"", "pw", onesKey},
		{"42", "", onesKey},
		{"42", "pw", ""},
		// whitespace only counts as missing
		{" ", "pw", onesKey},
		{"42", " \t ", onesKey},
		{"42", "pw", "   "},
		{"42", "pw", "\n"},
	} {
		_, err := enroll.Enroll(ctx, tc[0], tc[1], tc[2])
		require.ErrorIs(t, err, ErrMalformedInput, "input %q", tc)
		require.NotErrorIs(t, err, ErrInvalidKey)
	}

	ok, err := enroll.HasRecord(ctx, "42")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	st := newFileStore(t)
	enroll, _ := newServices(t, st)
	ctx := context.Background()

	first, err := enroll.Enroll(ctx, "42", "pw1", onesKey)
	require.NoError(t, err)

	_, err = enroll.Enroll(ctx, "42", "pw2", strings.Repeat("2", 64))
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	profile, err := enroll.Profile(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, first, profile, "existing record is never overwritten")
}

func TestEnroll_ConcurrentSameUser(t *testing.T) {
	enroll, _ := newServices(t, newSQLiteStore(t))
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := enroll.Enroll(ctx, "42", "pw", fmt.Sprintf("%064x", i+1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyEnrolled)
	}
	require.Equal(t, 1, ok)
}

func TestEnroll_StoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	st, err := jsonfile.Open(filepath.Join(blocker, "users.json"), nil)
	require.NoError(t, err)

	enroll, _ := newServices(t, st)
	_, err = enroll.Enroll(context.Background(), "42", "pw1", onesKey)
	require.ErrorIs(t, err, ErrStoreWrite)
	require.ErrorIs(t, err, store.ErrWriteFailed)
}

func TestEnrollMessage(t *testing.T) {
	enroll, _ := newServices(t, newFileStore(t))
	ctx := context.Background()

	profile, err := enroll.EnrollMessage(ctx, "42", "  pw1   0x"+onesKey+"  trailing words\n")
	require.NoError(t, err)
	require.Len(t, profile.Address, addrx.Length)

	_, err = enroll.EnrollMessage(ctx, "43", "onlyonetoken")
	require.ErrorIs(t, err, ErrMalformedInput)

	_, err = enroll.EnrollMessage(ctx, "43", "   ")
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseEnrollmentMessage(t *testing.T) {
	pw, key, err := ParseEnrollmentMessage("pw1 abc extra")
	require.NoError(t, err)
	require.Equal(t, "pw1", pw)
	require.Equal(t, "abc", key)

	_, _, err = ParseEnrollmentMessage("")
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestProfile_NotEnrolled(t *testing.T) {
	enroll, _ := newServices(t, newFileStore(t))

	_, err := enroll.Profile(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestEnroll_UsesConfiguredParams(t *testing.T) {
	st := newFileStore(t)
	enroll, _ := newServices(t, st)

	_, err := enroll.Enroll(context.Background(), "42", "pw1", onesKey)
	require.NoError(t, err)

	rec, err := st.Records().Get(context.Background(), "42")
	require.NoError(t, err)

	format, params, err := cryptox.Inspect(rec.EncryptedSecret)
	require.NoError(t, err)
	require.Equal(t, cryptox.FormatV1, format)
	require.Equal(t, testParams, params)
}
