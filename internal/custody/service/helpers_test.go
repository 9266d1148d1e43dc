package service

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/jsonfile"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/sqlite"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var (
	testParams = cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1}
	testNow    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	onesKey    = strings.Repeat("1", 64)
)

// Aptos address of the all-0x11 seed.
const onesAddress = "0x147e4d3a5b10eaed2a93536e284c23096dfcea9ac61f0a8420e5d01fbd8f0ea8"

// onesKey under password "pw1" as the first bot release stored it
// (CryptoJS.AES.encrypt, salt "12345678").
const legacyOnesPw1 = "U2FsdGVkX18xMjM0NTY3OCgaP9hyQN6dhswkEuEsocmgdIOEc088dISbuneRf1iFEEAhBJv5JDAQitH02cMPMEEOFuGprBYUU+4q1FybL7ggP/wIt77/MnPMPVAsxDc+"

func newFileStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	st, err := jsonfile.Open(filepath.Join(t.TempDir(), "users.json"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newServices(t *testing.T, st store.Store) (*EnrollmentService, *UnlockService) {
	t.Helper()
	c, err := cryptox.NewSecretCipher(testParams)
	require.NoError(t, err)

	return &EnrollmentService{Store: st, Cipher: c, Now: func() time.Time { return testNow }},
		&UnlockService{Store: st, Cipher: c}
}
