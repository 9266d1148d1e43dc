package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe that pings the record store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	custodysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	custodysdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &custodysdk.HealthChecks{Store: "ok"}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, custodysdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
