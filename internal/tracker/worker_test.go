package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"automarket_backend/internal/personalization"
	"automarket_backend/platform/logger"
)

func newTestWorker(t *testing.T) (*Worker, *personalization.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := personalization.NewStore(client, logger.New("development"), 40)
	return NewWorker(store, logger.New("development")), store
}

func TestWorker_SearchObservedUpdatesProfile(t *testing.T) {
	worker, store := newTestWorker(t)

	task, err := NewSearchObservedTask(SearchObservedPayload{
		VisitorID: "visitor-1",
		Terms: []ObservedTerm{
			{Key: "make", Value: "bmw"},
			{Key: "fuelType", Value: "diesel"},
		},
		ObservedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("task build failed: %v", err)
	}

	if err := worker.handleSearchObserved(context.Background(), task); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	terms, err := store.TopTerms(context.Background(), "visitor-1")
	if err != nil {
		t.Fatalf("top terms failed: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 profile terms, got %v", terms)
	}
}

func TestWorker_MalformedPayloadSkipsRetry(t *testing.T) {
	worker, _ := newTestWorker(t)

	task := asynq.NewTask(TaskSearchObserved, []byte("{not json"))
	err := worker.handleSearchObserved(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWorker_EmptyObservationIsNoop(t *testing.T) {
	worker, _ := newTestWorker(t)

	data, _ := json.Marshal(SearchObservedPayload{VisitorID: "visitor-1"})
	task := asynq.NewTask(TaskSearchObserved, data)
	if err := worker.handleSearchObserved(context.Background(), task); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}
