package custody_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/custodian/internal/custody/app"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupCustodian(t, app.DriverBolt)
	defer cleanup()

	// Probes do not need a gateway token.
	ready, err := custodysdk.NewClient(baseURL, "").Ready(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, app.BuildVersion, ready.Version)
	require.Equal(t, "ok", ready.Checks.Store)

	resp, err := http.Get(baseURL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var live custodysdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&live))
	require.Equal(t, "ok", live.Status)
	require.Nil(t, live.Checks)
}
