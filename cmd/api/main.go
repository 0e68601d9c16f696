// Package main is the entrypoint for the Reelist API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/reelist/reelist/internal/cache"
	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/handler"
	"github.com/reelist/reelist/internal/jobs"
	"github.com/reelist/reelist/internal/mailer"
	"github.com/reelist/reelist/internal/metrics"
	"github.com/reelist/reelist/internal/omdb"
	"github.com/reelist/reelist/internal/repository"
	"github.com/reelist/reelist/internal/server"
	"github.com/reelist/reelist/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		version, err := repository.Migrate(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database schema up to date", "version", version)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	catalog := omdb.New(omdb.Config{
		BaseURL:  cfg.OMDbBaseURL,
		APIKey:   cfg.OMDbAPIKey,
		RPS:      cfg.OMDbRPS,
		Burst:    cfg.OMDbBurst,
		Timeout:  cfg.OMDbTimeout,
		Recorder: recorder,
	})

	// Mail stays nil unless SMTP is configured.
	var (
		mailQueue service.MailQueue
		outbox    *mailer.Outbox
	)
	if cfg.MailEnabled() {
		sender := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender)
		outbox = mailer.NewOutbox(sender, logger, recorder, mailer.DefaultQueueSize)
		mailQueue = outbox
		logger.Info("welcome mail enabled", "smtp_host", cfg.SMTPHost)
	}

	accountService := service.NewAccountService(service.AccountConfig{
		Store:      repo,
		Cache:      cacheClient,
		Mail:       mailQueue,
		Logger:     logger,
		Metrics:    recorder,
		SessionTTL: cfg.SessionTTL,
	})
	movieService := service.NewMovieService(catalog, cacheClient, logger, recorder)
	listService := service.NewListService(repo, movieService, logger, recorder)

	sweeper := jobs.NewSessionSweeper(jobs.SweeperConfig{
		Store:     repo,
		Logger:    logger,
		Metrics:   recorder,
		Interval:  cfg.SessionSweepInterval,
		Retention: cfg.SessionRetention,
	})

	r := setupRouter(routerDeps{
		root:     handler.New(),
		health:   handler.NewHealthHandler(repo, cacheClient),
		metrics:  handler.NewMetricsHandler(recorder),
		accounts: handler.NewAccountHandler(accountService, logger),
		movies:   handler.NewMovieHandler(movieService, logger),
		lists:    handler.NewListHandler(listService, logger),
		authn:    accountService,
		limiter:  cacheClient,
	}, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Background workers are registered first so they stop last.
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.Error("session sweeper stopped", "error", err)
		}
	}()
	srv.OnShutdown("session_sweeper", sweeper.Shutdown)

	if outbox != nil {
		go func() {
			if err := outbox.Run(ctx); err != nil {
				logger.Error("mail outbox stopped", "error", err)
			}
		}()
		srv.OnShutdown("mail_outbox", outbox.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"omdb_base_url", cfg.OMDbBaseURL,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
