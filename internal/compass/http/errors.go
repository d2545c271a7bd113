package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/aussiebroadwan/compass/pkg/httpx"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

// writeServiceError maps a service error to its response. Only failures the
// client cannot fix are logged here.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, compasssdk.ErrorCodeInvalidRequest, inputDetail(err))
	case errors.Is(err, service.ErrInvalidID):
		httpx.WriteError(w, http.StatusBadRequest, compasssdk.ErrorCodeInvalidRequest, "Invalid id")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, compasssdk.ErrorCodeUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, compasssdk.ErrorCodeUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrInviteCancelled):
		httpx.WriteError(w, http.StatusForbidden, compasssdk.ErrorCodeForbidden, "Assessment cancelled")
	case errors.Is(err, service.ErrInviteExpired):
		httpx.WriteError(w, http.StatusForbidden, compasssdk.ErrorCodeForbidden, "Invite expired")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, compasssdk.ErrorCodeForbidden, "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, compasssdk.ErrorCodeNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, compasssdk.ErrorCodeConflict, "Conflict")
	case errors.Is(err, service.ErrStoreUnavailable):
		slogx.FromContext(r.Context()).Error("store unavailable", slog.Any("error", err))
		httpx.WriteError(w, http.StatusServiceUnavailable, compasssdk.ErrorCodeUnavailable, "Service temporarily unavailable")
	default:
		slogx.FromContext(r.Context()).Error("unhandled error", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, compasssdk.ErrorCodeServerError, "Internal server error")
	}
}

// inputDetail strips the sentinel prefix so the client sees only the reason.
func inputDetail(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	if msg == "" || msg == service.ErrInvalidInput.Error() {
		return "Invalid request"
	}
	return msg
}

func writeBadJSON(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, compasssdk.ErrorCodeInvalidRequest, "Invalid JSON body")
}
