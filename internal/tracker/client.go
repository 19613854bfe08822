package tracker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"automarket_backend/platform/config"
	"automarket_backend/platform/logger"
)

// Client enqueues search observations. A nil Client is valid and drops
// observations, which keeps search working when Redis is not configured.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient connects to the tracker queue. Returns nil when no Redis URL is
// configured.
func NewClient(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		queue: cfg.GetTrackerQueueName(),
		log:   log,
	}, nil
}

// RecordSearch enqueues one observation. Failures are logged, never returned;
// tracking must not affect search responses.
func (c *Client) RecordSearch(ctx context.Context, visitorID string, terms []ObservedTerm) {
	if c == nil || visitorID == "" || len(terms) == 0 {
		return
	}

	task, err := NewSearchObservedTask(SearchObservedPayload{
		VisitorID:  visitorID,
		Terms:      terms,
		ObservedAt: time.Now().UTC(),
	})
	if err != nil {
		c.log.Error("tracker_task_build_failed", "error", err)
		return
	}

	if _, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Second),
	); err != nil {
		c.log.Error("tracker_enqueue_failed", "error", err)
	}
}

// Close releases the underlying queue connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
