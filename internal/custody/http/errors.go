package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/custodian/internal/custody/service"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/httpx"
	"github.com/aussiebroadwan/custodian/pkg/keyx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"
)

// writeServiceError maps service errors onto status codes. Descriptions are
// fixed strings apart from the server-assigned request ID on a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMalformedInput):
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidRequest,
			"Expected a password and a private key")
	case errors.Is(err, keyx.ErrInvalidLength):
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidKey,
			"Private key must be 64 hex characters, optionally prefixed with 0x")
	case errors.Is(err, service.ErrInvalidKey):
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidKey,
			"Private key contains non-hex characters")
	case errors.Is(err, service.ErrInvalidKeyMaterial):
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidKeyMaterial,
			"Private key could not be used to derive an address")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		httpx.WriteError(w, http.StatusConflict, custodysdk.ErrorCodeAlreadyEnrolled,
			"User already has an enrolled key")
	case errors.Is(err, service.ErrNotEnrolled):
		httpx.WriteError(w, http.StatusNotFound, custodysdk.ErrorCodeNotEnrolled,
			"User has no enrolled key")
	case errors.Is(err, service.ErrWrongPasswordOrCorrupt):
		httpx.WriteError(w, http.StatusUnauthorized, custodysdk.ErrorCodeInvalidPassword,
			"Wrong password")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, custodysdk.ErrorCodeServerError,
			"Internal server error (request "+slogx.RequestID(r.Context()).String()+")")
	}
}
