package custodysdk

import (
	"errors"
	"fmt"
)

// Error codes returned in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidKey         = "invalid_key"
	ErrorCodeInvalidKeyMaterial = "invalid_key_material"
	ErrorCodeAlreadyEnrolled    = "already_enrolled"
	ErrorCodeNotEnrolled        = "not_enrolled"
	ErrorCodeInvalidPassword    = "invalid_password"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientScope  = "insufficient_scope"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// Sentinels matched by APIError.Is, so callers can use errors.Is.
var (
	ErrInvalidRequest  = errors.New("custodysdk: invalid request")
	ErrInvalidKey      = errors.New("custodysdk: invalid private key")
	ErrAlreadyEnrolled = errors.New("custodysdk: already enrolled")
	ErrNotEnrolled     = errors.New("custodysdk: not enrolled")
	ErrInvalidPassword = errors.New("custodysdk: invalid password")
	ErrUnauthorized    = errors.New("custodysdk: unauthorized")
	ErrRateLimited     = errors.New("custodysdk: rate limited")
	ErrServer          = errors.New("custodysdk: server error")
)

var codeSentinels = map[string]error{
	ErrorCodeInvalidRequest:     ErrInvalidRequest,
	ErrorCodeInvalidKey:         ErrInvalidKey,
	ErrorCodeInvalidKeyMaterial: ErrInvalidKey,
	ErrorCodeAlreadyEnrolled:    ErrAlreadyEnrolled,
	ErrorCodeNotEnrolled:        ErrNotEnrolled,
	ErrorCodeInvalidPassword:    ErrInvalidPassword,
	ErrorCodeInvalidToken:       ErrUnauthorized,
	ErrorCodeInsufficientScope:  ErrUnauthorized,
	ErrorCodeRateLimited:        ErrRateLimited,
	ErrorCodeServerError:        ErrServer,
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("custodysdk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("custodysdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Is matches the sentinel for the error code.
func (e *APIError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}
