package http

import (
	"net/http"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/service"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/httpx"
)

type EnrollmentHandler struct {
	EnrollmentService *service.EnrollmentService
}

// ServeHTTP handles enrollment of a private key
//
//	@Summary		Enroll a private key
//	@Description	Takes custody of a chat user's private key. Send either the raw chat message
//	@Description	("<password> <private key>") or the password and key as separate fields.
//	@Description	The key is encrypted under the password; only the derived address is returned.
//	@Tags			Enrollment
//	@Accept			json
//	@Produce		json
//	@Param			request	body		custodysdk.EnrollmentRequest	true	"Enrollment request"
//	@Success		201		{object}	custodysdk.ProfileResponse		"Enrolled"
//	@Failure		400		{object}	custodysdk.ErrorResponse		"Malformed request or invalid key"
//	@Failure		401		{object}	custodysdk.ErrorResponse		"Missing or invalid gateway token"
//	@Failure		403		{object}	custodysdk.ErrorResponse		"Missing custody:enroll scope"
//	@Failure		409		{object}	custodysdk.ErrorResponse		"User already enrolled"
//	@Failure		429		{object}	custodysdk.ErrorResponse		"Rate limit exceeded"
//	@Failure		500		{object}	custodysdk.ErrorResponse		"Record could not be stored"
//	@Security		BearerAuth
//	@Router			/v1/enrollments [post].
func (h *EnrollmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req custodysdk.EnrollmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidRequest, err.Error())
		return
	}

	var (
		profile domain.PublicProfile
		err     error
	)
	if req.Message != "" {
		profile, err = h.EnrollmentService.EnrollMessage(ctx, req.UserID, req.Message)
	} else {
		profile, err = h.EnrollmentService.Enroll(ctx, req.UserID, req.Password, req.PrivateKey)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, custodysdk.ProfileResponse{
		UserID:  req.UserID,
		Address: profile.Address,
	})
}
