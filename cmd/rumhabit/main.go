package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Autoloads .env file to supply environment variables
	_ "github.com/joho/godotenv/autoload"

	"github.com/taishi0307/RumHabit/internal/cache"
	"github.com/taishi0307/RumHabit/internal/config"
	"github.com/taishi0307/RumHabit/internal/database"
	"github.com/taishi0307/RumHabit/internal/habits"
	"github.com/taishi0307/RumHabit/internal/handlers/auth"
	"github.com/taishi0307/RumHabit/internal/handlers/callback"
	"github.com/taishi0307/RumHabit/internal/handlers/devices"
	"github.com/taishi0307/RumHabit/internal/handlers/workouts"
	"github.com/taishi0307/RumHabit/internal/integrations"
	"github.com/taishi0307/RumHabit/internal/logger"
	"github.com/taishi0307/RumHabit/internal/reporting"
	"github.com/taishi0307/RumHabit/internal/router"
	"github.com/taishi0307/RumHabit/internal/syncer"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	reporter, err := reporting.Init(reporting.Config{DSN: cfg.SentryDSN, Environment: cfg.Env}, log)
	if err != nil {
		log.WithError(err).Fatal("initializing error reporting")
	}
	defer reporter.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connecting to database")
	}
	store := database.NewWorkoutStore(db, habits.Targets{
		DistanceKm:      cfg.Goals.DistanceKm,
		HeartRate:       cfg.Goals.HeartRate,
		DurationMinutes: cfg.Goals.DurationMinutes,
	}, log)

	// Redis is optional; without it tokens and sync status are not kept.
	var (
		tokenCache cache.Cache
		statuses   *syncer.CacheStatusStore
	)
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("connecting to redis")
		}
		defer rc.Close()
		tokenCache = rc
		statuses = syncer.NewCacheStatusStore(rc)
	} else {
		log.Warn("REDIS_URL not set - token and sync status caching disabled")
	}

	hc := &http.Client{Timeout: cfg.HTTPClientTimeout}
	set, err := integrations.NewRegistry(cfg, hc, log)
	if err != nil {
		log.WithError(err).Fatal("building vendor adapters")
	}

	opts := []syncer.Option{syncer.WithReporter(reporter)}
	var statusLoader devices.StatusLoader
	if statuses != nil {
		opts = append(opts, syncer.WithStatusStore(statuses))
		statusLoader = statuses
	}
	coord := syncer.New(set.Registry, store, log, opts...)

	handler := router.New(router.Handlers{
		Auth:     auth.NewHandler(set.Fitbit, set.Registry, log),
		Callback: callback.NewHandler(set.Fitbit, tokenCache, cfg.SettingsPath, log),
		Workouts: workouts.NewHandler(coord, tokenCache, log),
		Devices:  devices.NewHandler(set.Registry, statusLoader, log),
	}, log, reporter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	closeDB(db, log)
}
