package http

import (
	"net/http"

	"github.com/aussiebroadwan/custodian/internal/custody/service"
	"github.com/aussiebroadwan/custodian/pkg/custodysdk"
	"github.com/aussiebroadwan/custodian/pkg/httpx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"
)

type UsersHandler struct {
	EnrollmentService *service.EnrollmentService
	UnlockService     *service.UnlockService
}

// HandleProfile returns the public address of an enrolled user
//
//	@Summary		Get a user's address
//	@Description	Returns the address derived from the user's enrolled key. Requires custody:read scope.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string						true	"Chat user id"
//	@Success		200	{object}	custodysdk.ProfileResponse	"Public profile"
//	@Failure		401	{object}	custodysdk.ErrorResponse	"Missing or invalid gateway token"
//	@Failure		403	{object}	custodysdk.ErrorResponse	"Missing custody:read scope"
//	@Failure		404	{object}	custodysdk.ErrorResponse	"User not enrolled"
//	@Security		BearerAuth
//	@Router			/v1/users/{id} [get].
func (h *UsersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	profile, err := h.EnrollmentService.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, custodysdk.ProfileResponse{
		UserID:  userID,
		Address: profile.Address,
	})
}

// HandleVerify checks a password against the stored secret
//
//	@Summary		Verify a user's password
//	@Description	Decrypts the stored key with the password and checks it still derives the stored address.
//	@Description	The key itself is never returned. Requires custody:verify scope.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Chat user id"
//	@Param			request	body		custodysdk.VerifyRequest	true	"Password"
//	@Success		200		{object}	custodysdk.VerifyResponse	"Password is correct"
//	@Failure		400		{object}	custodysdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	custodysdk.ErrorResponse	"Wrong password, or missing gateway token"
//	@Failure		404		{object}	custodysdk.ErrorResponse	"User not enrolled"
//	@Failure		429		{object}	custodysdk.ErrorResponse	"Rate limit exceeded"
//	@Security		BearerAuth
//	@Router			/v1/users/{id}/verify [post].
func (h *UsersHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req custodysdk.VerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, custodysdk.ErrorCodeInvalidRequest, err.Error())
		return
	}

	ctx := slogx.WithUserID(r.Context(), userID)
	profile, err := h.UnlockService.VerifyPassword(ctx, userID, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, custodysdk.VerifyResponse{
		Valid:   true,
		Address: profile.Address,
	})
}
