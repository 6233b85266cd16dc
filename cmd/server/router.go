package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/marketplace-api/internal/api"
	apiMiddleware "github.com/phrazzld/marketplace-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// gateConfig builds the access gate policy from configuration.
func (app *application) gateConfig() apiMiddleware.GateConfig {
	cfg := apiMiddleware.DefaultGateConfig()
	cfg.APIMode = apiMiddleware.APIMode(app.config.Auth.APIMode)
	cfg.SecureCookie = app.config.Server.IsProduction()
	cfg.CORS = apiMiddleware.CORSPolicy{
		DefaultOrigin:  app.config.CORS.DefaultOrigin,
		AllowedOrigins: app.config.CORS.AllowedOrigins,
	}
	return cfg
}

// setupRouter creates and configures the application router with all routes and middleware.
// The gate runs in front of every route, including unmatched ones.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(apiMiddleware.RealIP(app.trustedProxies))
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.PanicRecovery(app.metrics))
	r.Use(apiMiddleware.RequestMetrics(app.metrics))
	r.Use(apiMiddleware.NewGate(app.gateConfig(), app.tokenService, app.metrics).Handler)

	authHandler := api.NewAuthHandler(
		app.authenticator,
		app.sessions,
		app.config.Server.IsProduction(),
		app.metrics,
	)
	userHandler := api.NewUserHandler(app.userStore)

	var signIn http.Handler = http.HandlerFunc(authHandler.SignIn)
	if app.limiter != nil {
		signIn = apiMiddleware.SignInRateLimit(
			app.limiter,
			app.config.RateLimit.SignInPerMinute,
			app.metrics,
		)(signIn)
	}

	// A nil *sql.DB must not reach the Pinger interface.
	var db api.Pinger
	if app.db != nil {
		db = app.db
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/signin", signIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/session", authHandler.Session)
		})

		r.Get("/users/me", userHandler.Me)
		r.Get("/health", api.Health(db))
	})

	if dir := app.config.Server.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}

// setupMetricsRouter returns the handler for the metrics listener, or nil
// when metrics are disabled.
func (app *application) setupMetricsRouter() http.Handler {
	if app.config.Server.MetricsPort == 0 {
		return nil
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(app.promRegistry, promhttp.HandlerOpts{}))
	return r
}
