package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"automarket_backend/internal/personalization"
	"automarket_backend/internal/tracker"
	"automarket_backend/platform/config"
	"automarket_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}

	storeClient := redis.NewClient(opts)
	defer storeClient.Close()

	store := personalization.NewStore(storeClient, log, cfg.PersonalizationMaxTerms)
	worker := tracker.NewWorker(store, log)

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{cfg.TrackerQueueName: 1},
		},
	)

	mux := asynq.NewServeMux()
	worker.Register(mux)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		server.Shutdown()
	}()

	log.Info("tracker worker starting", "queue", cfg.TrackerQueueName)
	if err := server.Run(mux); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
