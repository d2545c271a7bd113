package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/aussiebroadwan/compass/pkg/httpx"
)

type AuthHandler struct {
	UserService *service.UserService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account and receive a session token. Emails are case-insensitive.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		compasssdk.Credentials	true	"Email and password (min 8 characters)"
//	@Success		201		{object}	compasssdk.AuthResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody	"Email already registered"
//	@Failure		429		{object}	httpx.ErrorBody
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req compasssdk.Credentials
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.UserService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			httpx.WriteError(w, http.StatusConflict, compasssdk.ErrorCodeConflict, "Email already registered")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, compasssdk.AuthResponse{User: toUser(res.User), Token: res.Token})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchange email and password for a session token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		compasssdk.Credentials	true	"Email and password"
//	@Success		200		{object}	compasssdk.AuthResponse
//	@Failure		401		{object}	httpx.ErrorBody	"Invalid credentials"
//	@Failure		429		{object}	httpx.ErrorBody
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req compasssdk.Credentials
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, compasssdk.AuthResponse{User: toUser(res.User), Token: res.Token})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Resolve the bearer token to its stored account.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	compasssdk.User
//	@Failure		401	{object}	httpx.ErrorBody
//	@Security		BearerAuth
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	u, err := h.UserService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUser(u))
}
