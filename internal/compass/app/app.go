package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/aussiebroadwan/compass/internal/compass/http"
	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/internal/compass/store/drivers/mongo"
	"github.com/aussiebroadwan/compass/internal/compass/store/drivers/sqlite"
	"github.com/aussiebroadwan/compass/pkg/cryptox"
	"github.com/aussiebroadwan/compass/pkg/httpx"
	"github.com/aussiebroadwan/compass/pkg/jwtx"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	metricsNamespace = "compass"
)

// Application encapsulates the compass API with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	registry *prometheus.Registry
	verifier *jwtx.HS256Verifier

	tokenService      *service.TokenService
	userService       *service.UserService
	assessmentService *service.AssessmentService
	inviteService     *service.InviteService
	metrics           *service.Metrics

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "compass-api",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	httpx.LoadRateLimitsFromEnv()
	if err := httpx.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("compass api starting",
		"port", app.cfg.Port,
		"store", app.cfg.StoreDriver,
		"prefix", app.cfg.APIPrefix,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, then closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down compass api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("compass api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case DriverMongo:
		db, err = mongo.NewStore(mongo.Config{
			URI:                    app.cfg.MongoURL,
			Database:               app.cfg.MongoDB,
			ConnectTimeout:         app.cfg.StoreTimeout,
			ServerSelectionTimeout: app.cfg.StoreTimeout,
		})
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.cfg.StoreDriver, err)
	}
	app.db = db

	// Index builds on a cold mongo can take longer than a request.
	ctx, cancel := context.WithTimeout(context.Background(), 6*app.storeTimeout())
	defer cancel()

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply %s migrations: %w", app.cfg.StoreDriver, err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	secret := []byte(app.cfg.JWTSecret)
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return fmt.Errorf("failed to create token signer: %w", err)
	}
	app.verifier, err = jwtx.NewVerifierHS256(secret, app.cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = service.NewMetrics(app.registry, metricsNamespace)

	timeout := app.storeTimeout()
	app.tokenService = &service.TokenService{
		Signer: signer,
		Issuer: app.cfg.JWTIssuer,
		TTL:    app.cfg.JWTTTL,
	}
	app.userService = &service.UserService{
		Store:        app.db,
		Tokens:       app.tokenService,
		StoreTimeout: timeout,
	}
	app.assessmentService = &service.AssessmentService{
		Store:        app.db,
		Metrics:      app.metrics,
		StoreTimeout: timeout,
	}
	app.inviteService = &service.InviteService{
		Store:        app.db,
		Metrics:      app.metrics,
		StoreTimeout: timeout,
	}

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		app.cfg.APIPrefix,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.AssessmentService = app.assessmentService
	router.InviteService = app.inviteService
	router.Metrics = httpx.NewHTTPMetrics(app.registry, metricsNamespace)
	router.MetricsHandler = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
	router.StoreTimeout = app.storeTimeout()
	router.CORS.AllowedOrigins = append(
		append([]string{}, httpx.DefaultAllowedOrigins...),
		app.cfg.ClientOrigins...,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (app *Application) storeTimeout() time.Duration {
	if app.cfg.StoreTimeout > 0 {
		return app.cfg.StoreTimeout
	}
	return service.DefaultStoreTimeout
}
