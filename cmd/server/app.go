package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	apiMiddleware "github.com/phrazzld/marketplace-api/internal/api/middleware"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/ratelimit"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "marketplace"

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	userStore     store.UserStore
	activityStore store.ActivityStore

	tokenService     auth.TokenService
	passwordVerifier auth.PasswordVerifier
	authenticator    *auth.Authenticator
	sessions         *auth.SessionResolver

	// limiter is nil when rate limiting is disabled.
	limiter        ratelimit.Limiter
	trustedProxies apiMiddleware.TrustedProxies

	promRegistry *prometheus.Registry
	metrics      *metrics.Manager
}

// newApplication creates a new application instance with all dependencies initialized.
// The database handle is owned by the application from here on and closed by cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		userStore:     postgres.NewPostgresUserStore(db),
		activityStore: postgres.NewPostgresActivityStore(db),
	}

	if err := app.initAuth(); err != nil {
		return nil, err
	}

	proxies, err := apiMiddleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	app.trustedProxies = proxies

	app.promRegistry = metrics.SetupPrometheus(db, metricsNamespace)
	app.metrics = metrics.NewManager(metricsNamespace, "server", app.promRegistry)

	if cfg.RateLimit.Enabled() {
		rdb, err := ratelimit.Connect(ctx, cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sign-in rate limiter: %w", err)
		}
		app.redis = rdb
		app.limiter = ratelimit.NewLimiter(rdb)
		logger.Info("Sign-in rate limiting enabled",
			"redis_addr", cfg.RateLimit.RedisAddr,
			"per_minute", cfg.RateLimit.SignInPerMinute)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// initAuth wires the token service, password verifier, authenticator and
// session resolver over the application's stores.
func (app *application) initAuth() error {
	tokens, err := auth.NewTokenService(app.config.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.tokenService = tokens
	app.passwordVerifier = auth.NewBcryptVerifier(app.config.Auth.BcryptCost)

	app.authenticator, err = auth.NewAuthenticator(
		app.userStore,
		app.activityStore,
		app.passwordVerifier,
		app.tokenService,
		app.config.Auth.StoreTimeout,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize authenticator: %w", err)
	}

	app.sessions = auth.NewSessionResolver(app.userStore, app.tokenService, app.config.Auth.StoreTimeout)

	app.logger.Info("Authentication initialized",
		"token_lifetime", auth.TokenLifetime.String(),
		"bcrypt_cost", app.config.Auth.BcryptCost)
	return nil
}

// Run serves the API, and metrics when enabled, until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.serve(ctx, app.setupRouter(), app.setupMetricsRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
