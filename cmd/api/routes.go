package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/handler"
	"github.com/reelist/reelist/internal/middleware"
)

// routerDeps bundles what the router needs to serve every route.
type routerDeps struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	accounts *handler.AccountHandler
	movies   *handler.MovieHandler
	lists    *handler.ListHandler
	authn    middleware.Authenticator
	limiter  middleware.RateLimiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Operational endpoints
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)
	r.Get("/", d.root.Hello)

	authCfg := middleware.AuthConfig{
		Logger:        logger,
		Authenticator: d.authn,
		FailureDelay:  middleware.DefaultAuthFailureDelay,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:        logger,
		Limiter:       d.limiter,
		UserEnabled:   cfg.RateLimitAPIEnabled,
		UserPerMinute: cfg.RateLimitAPIPerMinute,
		UserBurst:     cfg.RateLimitAPIBurst,
		IPEnabled:     cfg.RateLimitPublicEnabled,
		IPRPS:         cfg.RateLimitPublicRPS,
		IPBurst:       cfg.RateLimitPublicBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// No session middleware: a stale token must not block getting a new one.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rateLimitCfg))
				r.Post("/signup", d.accounts.SignUp)
				r.Post("/signin", d.accounts.SignIn)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(authCfg))
				r.Use(middleware.RateLimit(rateLimitCfg))
				r.Post("/signout", d.accounts.SignOut)
			})
		})

		// Sessions are optional here; RequireUser gates the routes that need one.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authCfg))
			r.Use(middleware.RateLimit(rateLimitCfg))

			r.With(middleware.RequireUser).Get("/me", d.accounts.Me)

			r.Route("/movies", func(r chi.Router) {
				r.Get("/search", d.movies.Search)
				r.Get("/{imdbID}", d.movies.Get)
			})

			r.Route("/lists", func(r chi.Router) {
				r.Get("/", d.lists.FindByName)
				r.Get("/public", d.lists.Public)
				r.Get("/{id}", d.lists.Get)
				r.Get("/{id}/movies", d.lists.Movies)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireUser)
					r.Get("/mine", d.lists.Mine)
					r.Post("/", d.lists.Create)
					r.Patch("/{id}", d.lists.Update)
					r.Delete("/{id}", d.lists.Delete)
					r.Post("/{id}/movies", d.lists.AddMovie)
					r.Delete("/{id}/movies/{movieID}", d.lists.RemoveMovie)
				})
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}
