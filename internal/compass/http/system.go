package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
	"github.com/aussiebroadwan/compass/pkg/httpx"
)

// WelcomeHandler godoc
//
//	@Summary	Welcome
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	compasssdk.WelcomeResponse
//	@Router		/ [get].
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, compasssdk.WelcomeResponse{Message: "Welcome to AI Compass API"})
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	compasssdk.HealthResponse
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, compasssdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	503 while the store cannot be reached.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	compasssdk.HealthResponse
//	@Failure		503	{object}	compasssdk.HealthResponse
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := compasssdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		code := http.StatusOK

		ctx, cancel := withTimeout(r, timeout)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, resp)
	}
}
