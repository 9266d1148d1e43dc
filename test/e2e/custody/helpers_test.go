package custody_test

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/app"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const gatewayIssuer = "custodian-e2e"

var gatewaySecret = strings.Repeat("e2e-secret-", 4)

// setupCustodian starts the full application behind an httptest server
// backed by the given store driver.
func setupCustodian(t *testing.T, driver string) (baseURL string, cleanup func()) {
	t.Helper()

	cfg := app.Config{
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		ShutdownGracePeriod: time.Second,
		StoreDriver:         driver,
		StorePath:           filepath.Join(t.TempDir(), "custody", "users"),
		KDFMemoryKiB:        64,
		KDFIterations:       1,
		KDFParallelism:      1,
		GatewaySecret:       gatewaySecret,
		GatewayIssuer:       gatewayIssuer,
		AuditInterval:       time.Hour,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	return srv.URL, func() {
		srv.Close()
		_ = application.Close()
	}
}

// gatewayClient returns an SDK client holding a token with the given scopes.
func gatewayClient(t *testing.T, baseURL string, scopes ...string) *custodysdk.Client {
	t.Helper()

	signer, err := jwtx.NewSigner([]byte(gatewaySecret))
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewGatewayClaims("e2e-bot", gatewayIssuer, scopes, time.Hour, time.Now()))
	require.NoError(t, err)

	return custodysdk.NewClient(baseURL, token)
}

func testKey(digit string) string { return strings.Repeat(digit, 64) }
