package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/compass/pkg/jwtx"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

// OptionalAuth attaches the caller identity when a valid bearer token is
// present. Missing or invalid credentials are not an error.
func OptionalAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := Resolve(r, v)
			if res.State == Verified {
				r = r.WithContext(contextWithAuth(r.Context(), res.Claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func RequireAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := Resolve(r, v)
			switch res.State {
			case Verified:
				next.ServeHTTP(w, r.WithContext(contextWithAuth(r.Context(), res.Claims)))
			case Rejected:
				slogx.FromContext(r.Context()).Warn("jwt verify failed", "err", res.Err)
				writeBearerError(w, "invalid_token", "Invalid token")
			default:
				writeBearerError(w, "", "Not authenticated")
			}
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, code, detail string) {
	challenge := "Bearer"
	if code != "" {
		challenge += ` error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	WriteError(w, http.StatusUnauthorized, "unauthorized", detail)
}
