package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"automarket_backend/internal/personalization"
	"automarket_backend/platform/logger"
)

// Worker consumes search observations and folds them into visitor profiles.
type Worker struct {
	store *personalization.Store
	log   *logger.Logger
}

func NewWorker(store *personalization.Store, log *logger.Logger) *Worker {
	return &Worker{store: store, log: log}
}

// Register wires the worker's handlers onto an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskSearchObserved, w.handleSearchObserved)
}

func (w *Worker) handleSearchObserved(ctx context.Context, task *asynq.Task) error {
	var payload SearchObservedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A malformed payload never becomes valid; do not retry.
		w.log.Error("tracker_payload_invalid", "error", err)
		return fmt.Errorf("unmarshal %s: %v: %w", TaskSearchObserved, err, asynq.SkipRetry)
	}
	if payload.VisitorID == "" || len(payload.Terms) == 0 {
		return nil
	}

	terms := make([]personalization.Term, 0, len(payload.Terms))
	for _, observed := range payload.Terms {
		terms = append(terms, personalization.Term{Key: observed.Key, Value: observed.Value})
	}

	if err := w.store.BumpTerms(ctx, payload.VisitorID, terms); err != nil {
		return fmt.Errorf("bump terms: %w", err)
	}

	w.log.Debug("tracker_search_observed",
		"terms", len(terms),
	)
	return nil
}
