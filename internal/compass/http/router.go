package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/httpx"
	"github.com/aussiebroadwan/compass/pkg/jwtx"
	"github.com/aussiebroadwan/compass/pkg/slogx"

	_ "github.com/aussiebroadwan/compass/api/compass" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	prefix       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	UserService       *service.UserService
	AssessmentService *service.AssessmentService
	InviteService     *service.InviteService

	// Optional. Metrics must be set before ApplyRoutes.
	Metrics        *httpx.HTTPMetrics
	MetricsHandler http.Handler

	CORS         httpx.CORSConfig
	StoreTimeout time.Duration
}

// NewRouter creates a router mounting the API under prefix ("/api" in
// production, "" for the root).
func NewRouter(
	verifier jwtx.Verifier,
	prefix, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		prefix:       strings.TrimSuffix(prefix, "/"),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		CORS:         httpx.CORSConfig{AllowedOrigins: httpx.DefaultAllowedOrigins},
	}
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAssessments()
	r.registerInvites()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// The metrics middleware reads the matched pattern off the request the
	// mux routed, so it must be the innermost global middleware.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
		httpx.CORS(r.CORS),
	}
	if r.Metrics != nil {
		r.middlewares = append(r.middlewares, r.Metrics.Middleware)
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Compass API
//	@version					0.1.0
//	@description				Assessments with shareable invite links. Owners authenticate with an HS256 bearer token;
//	@description				invitees use the invite token in the path.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:4001
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) route(method, path string) string {
	return method + " " + r.prefix + path
}

func (r *Router) registerAuth() {
	h := &AuthHandler{UserService: r.UserService}

	// Credential endpoints - strict limit by IP against guessing
	r.Mux.Handle(r.route("POST", "/auth/register"),
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle(r.route("POST", "/auth/login"),
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle(r.route("GET", "/auth/me"),
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RequireAuth(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAssessments() {
	h := &AssessmentsHandler{AssessmentService: r.AssessmentService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RequireAuth(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle(r.route("GET", "/assessments"), secured(h.HandleList))
	r.Mux.Handle(r.route("POST", "/assessments"), secured(h.HandleCreate))
	r.Mux.Handle(r.route("GET", "/assessments/{id}"), secured(h.HandleGet))
	r.Mux.Handle(r.route("PATCH", "/assessments/{id}"), secured(h.HandleUpdate))
}

func (r *Router) registerInvites() {
	h := &InviteHandler{InviteService: r.InviteService}

	// Anonymous, keyed by IP
	r.Mux.Handle(r.route("GET", "/invite/{token}"),
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle(r.route("PATCH", "/invite/{token}"),
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /{$}", WelcomeHandler)

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.StoreTimeout),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = service.DefaultStoreTimeout
	}
	return context.WithTimeout(r.Context(), d)
}
