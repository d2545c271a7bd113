package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/compass/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	v := newTestVerifier(t)

	tests := []struct {
		name   string
		header string
		want   httpx.CredentialState
	}{
		{"no header", "", httpx.NoCredential},
		{"basic scheme", "Basic dXNlcjpwYXNz", httpx.NoCredential},
		{"bearer without token", "Bearer ", httpx.NoCredential},
		{"garbage token", "Bearer not-a-jwt", httpx.Rejected},
		{"expired token", "Bearer " + signTestTokenAt(t, "u1", time.Now().Add(-2*time.Hour), time.Hour), httpx.Rejected},
		{"valid token", "Bearer " + signTestToken(t, "u1"), httpx.Verified},
		{"lowercase scheme", "bearer " + signTestToken(t, "u1"), httpx.Verified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			res := httpx.Resolve(req, v)
			require.Equal(t, tt.want, res.State, res.State.String())
			if tt.want == httpx.Verified {
				require.Equal(t, "u1", res.Claims.UserID)
			}
			if tt.want == httpx.Rejected {
				require.Error(t, res.Err)
			}
		})
	}
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.UserIDFromContext(r.Context())
		if !ok {
			id = "anonymous"
		}
		_, _ = w.Write([]byte(id))
	})
}

func TestRequireAuth(t *testing.T) {
	h := httpx.RequireAuth(newTestVerifier(t))(identityEcho())

	t.Run("missing credential", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		require.JSONEq(t, `{"error":"unauthorized","detail":"Not authenticated"}`, rec.Body.String())
	})

	t.Run("invalid credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	})

	t.Run("valid credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "owner-1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "owner-1", rec.Body.String())
	})
}

func TestOptionalAuth(t *testing.T) {
	h := httpx.OptionalAuth(newTestVerifier(t))(identityEcho())

	for header, want := range map[string]string{
		"":                                      "anonymous",
		"Bearer bogus":                          "anonymous",
		"Bearer " + signTestToken(t, "owner-2"): "owner-2",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, want, rec.Body.String())
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}
