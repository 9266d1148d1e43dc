package custody_test

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/custodian/internal/custody/app"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestRateLimitVerify tests that password guessing against one user is cut
// off after 5 attempts.
func TestRateLimitVerify(t *testing.T) {
	baseURL, cleanup := setupCustodian(t, app.DriverFile)
	defer cleanup()

	client := gatewayClient(t, baseURL, jwtx.AllScopes...)
	ctx := context.Background()

	_, err := client.Enroll(ctx, "42", "pw1", testKey("1"))
	require.NoError(t, err)

	for i := range 5 {
		_, err := client.VerifyPassword(ctx, "42", "guess")
		require.ErrorIs(t, err, custodysdk.ErrInvalidPassword, "request %d", i+1)
	}

	_, err = client.VerifyPassword(ctx, "42", "pw1")
	require.ErrorIs(t, err, custodysdk.ErrRateLimited)

	// Other users are limited separately.
	_, err = client.VerifyPassword(ctx, "43", "pw1")
	require.ErrorIs(t, err, custodysdk.ErrNotEnrolled)
}

// rotatingForwardedFor stamps every request with a fresh X-Forwarded-For.
type rotatingForwardedFor struct {
	next http.RoundTripper
	n    atomic.Int32
}

func (rt *rotatingForwardedFor) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", rt.n.Add(1)))
	return rt.next.RoundTrip(req)
}

func TestRateLimitVerify_ForwardedForIgnored(t *testing.T) {
	baseURL, cleanup := setupCustodian(t, app.DriverSQLite)
	defer cleanup()

	client := gatewayClient(t, baseURL, jwtx.AllScopes...)
	client.HTTPClient.Transport = &rotatingForwardedFor{next: http.DefaultTransport}
	ctx := context.Background()

	_, err := client.Enroll(ctx, "42", "pw1", testKey("1"))
	require.NoError(t, err)

	// Each guess arrives with a different X-Forwarded-For
	for range 5 {
		_, err := client.VerifyPassword(ctx, "42", "guess")
		require.ErrorIs(t, err, custodysdk.ErrInvalidPassword)
	}

	_, err = client.VerifyPassword(ctx, "42", "guess")
	require.ErrorIs(t, err, custodysdk.ErrRateLimited)
}
