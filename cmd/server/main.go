// @title Staff Calendar API
// @version 1.0
// @description Month grid, events and birthdays of the staff calendar.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"

	"staffcalendar/config"
	"staffcalendar/internal/adapters/auth"
	"staffcalendar/internal/adapters/ical"
	httpdelivery "staffcalendar/internal/delivery/http"
	"staffcalendar/internal/delivery/http/controllers"
	"staffcalendar/internal/delivery/http/middleware"
	"staffcalendar/internal/repository/postgres"
	"staffcalendar/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("db open", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("db ping", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")

	applyMigration(ctx, db, cfg.MigrationsPath, logger)

	loc := cfg.Location()
	feedCache := ical.NewFeedCache(cfg.FeedCacheTTL, logger)
	calendarService := services.NewCalendarService(
		postgres.NewEventRepository(db),
		postgres.NewPersonRepository(db),
		middleware.ContextIdentity{},
		feedCache,
		logger,
		cfg.RequestTimeout,
	)
	feed := ical.NewFeed(calendarService, feedCache, loc, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:      logger,
		Calendar:    controllers.NewCalendarController(logger, calendarService, feed, loc),
		Health:      controllers.NewHealthController(logger, db),
		Verifier:    auth.NewJWTVerifier(cfg.JWTSecret),
		RateLimiter: limiter,
	})
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "env", cfg.Environment, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

// applyMigration runs the schema file once at start-up. A missing file or a
// failing statement is logged and start-up continues against the existing schema.
func applyMigration(ctx context.Context, db *sql.DB, path string, logger *slog.Logger) {
	migration, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("migration file not found, skipping", "path", path, "err", err)
		return
	}
	if _, err := db.ExecContext(ctx, string(migration)); err != nil {
		logger.Warn("migration warning", "path", path, "err", err)
		return
	}
	logger.Info("migration applied", "path", path)
}
