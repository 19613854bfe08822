package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	apphttp "automarket_backend/internal/http"
	"automarket_backend/internal/http/router"
	"automarket_backend/internal/listings"
	"automarket_backend/internal/listings/service"
	"automarket_backend/internal/personalization"
	"automarket_backend/internal/rotation"
	"automarket_backend/internal/tracker"
	"automarket_backend/migrations"
	"automarket_backend/platform/config"
	"automarket_backend/platform/db"
	"automarket_backend/platform/logger"
	"automarket_backend/platform/timing"
	"automarket_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, personalization and rotation disabled")
	}

	trackerClient, err := tracker.NewClient(cfg, log)
	if err != nil {
		log.Error("tracker client failed", "error", err)
		os.Exit(1)
	}
	defer trackerClient.Close()

	guard := timing.NewGuard(cfg.QueryBudget, log, prometheus.DefaultRegisterer)

	module := listings.NewModule(listings.Deps{
		Pool:     pool,
		Guard:    guard,
		Terms:    newTermStore(redisClient, log, cfg),
		Rotation: newRotationCache(redisClient, cfg),
		Tracker:  trackerClient,
		Config:   cfg,
		Validate: validator.New(),
		Logger:   log,
	})

	engine := router.New(&apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{module},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "error", err)
	}
	log.Info("server stopped")
}

// connectWithRetry waits for the database through container startup ordering.
func connectWithRetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	const attempts = 5

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err := db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err
		log.Warn("database not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, lastErr
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Redis is optional: without it search still answers, just unpersonalized and
// without rotation. The noop fallbacks keep the service wiring uniform.

type nopTermStore struct{}

func (nopTermStore) TopTerms(context.Context, string) ([]personalization.Term, error) {
	return nil, nil
}

type nopRotation struct{}

func (nopRotation) Bump(context.Context, string) (rotation.State, error) { return rotation.State{}, nil }
func (nopRotation) ShouldRotate(rotation.State) bool                     { return false }
func (nopRotation) MarkShown(context.Context, string, int64) error      { return nil }

func newTermStore(client *redis.Client, log *logger.Logger, cfg *config.Config) service.TermStore {
	if client == nil {
		return nopTermStore{}
	}
	return personalization.NewStore(client, log, cfg.PersonalizationMaxTerms)
}

func newRotationCache(client *redis.Client, cfg *config.Config) service.RotationCache {
	if client == nil {
		return nopRotation{}
	}
	return rotation.NewCache(client, cfg.RotationTTL, cfg.RotationInterval)
}
