package custody_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/custodian/internal/custody/app"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestEnrollmentFlow walks a chat user from first contact to a password
// check on every store driver.
func TestEnrollmentFlow(t *testing.T) {
	for _, driver := range []string{app.DriverFile, app.DriverSQLite, app.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			baseURL, cleanup := setupCustodian(t, driver)
			defer cleanup()

			client := gatewayClient(t, baseURL, jwtx.AllScopes...)
			ctx := context.Background()

			// Fresh user has no record
			enrolled, err := client.IsEnrolled(ctx, "42")
			require.NoError(t, err)
			require.False(t, enrolled)

			// Enroll from a raw chat message
			profile, err := client.EnrollMessage(ctx, "42", "pw1 "+testKey("1"))
			require.NoError(t, err)
			require.Equal(t, "42", profile.UserID)
			require.Len(t, profile.Address, 66)

			enrolled, err = client.IsEnrolled(ctx, "42")
			require.NoError(t, err)
			require.True(t, enrolled)

			// Profile lookup returns the same address
			got, err := client.Profile(ctx, "42")
			require.NoError(t, err)
			require.Equal(t, profile.Address, got.Address)

			// Verify with the right password, then a wrong one
			verified, err := client.VerifyPassword(ctx, "42", "pw1")
			require.NoError(t, err)
			require.True(t, verified.Valid)
			require.Equal(t, profile.Address, verified.Address)

			_, err = client.VerifyPassword(ctx, "42", "pw2")
			require.ErrorIs(t, err, custodysdk.ErrInvalidPassword)
		})
	}
}

// TestSameKeySameAddress enrolls one key for two users, once with the 0x prefix.
// Both must land on the same address.
func TestSameKeySameAddress(t *testing.T) {
	baseURL, cleanup := setupCustodian(t, app.DriverFile)
	defer cleanup()

	client := gatewayClient(t, baseURL, jwtx.ScopeEnroll)
	ctx := context.Background()

	a, err := client.Enroll(ctx, "1", "pw-a", testKey("7"))
	require.NoError(t, err)
	b, err := client.Enroll(ctx, "2", "pw-b", "0x"+testKey("7"))
	require.NoError(t, err)

	require.Equal(t, a.Address, b.Address)
}

func TestEnrollmentErrors(t *testing.T) {
	baseURL, cleanup := setupCustodian(t, app.DriverSQLite)
	defer cleanup()

	client := gatewayClient(t, baseURL, jwtx.AllScopes...)
	ctx := context.Background()

	_, err := client.Enroll(ctx, "42", "pw1", testKey("1"))
	require.NoError(t, err)

	// Second enrollment for the same user
	_, err = client.Enroll(ctx, "42", "pw1", testKey("2"))
	require.ErrorIs(t, err, custodysdk.ErrAlreadyEnrolled)

	_, err = client.Enroll(ctx, "43", "pw1", "abc")
	require.ErrorIs(t, err, custodysdk.ErrInvalidKey)

	// Message without a key
	_, err = client.EnrollMessage(ctx, "43", "lonely")
	require.ErrorIs(t, err, custodysdk.ErrInvalidRequest)

	_, err = client.Profile(ctx, "43")
	require.ErrorIs(t, err, custodysdk.ErrNotEnrolled)
}
