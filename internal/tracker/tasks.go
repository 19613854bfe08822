// Package tracker moves search-interest bookkeeping off the request path.
// Searches enqueue an observation task; a worker folds it into the visitor's
// personalization profile.
package tracker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskSearchObserved is the task type for one observed search.
const TaskSearchObserved = "tracker:search_observed"

// ObservedTerm is one attribute/value pair the search selected on.
type ObservedTerm struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchObservedPayload carries everything the worker needs to update a
// visitor profile.
type SearchObservedPayload struct {
	VisitorID  string         `json:"visitor_id"`
	Terms      []ObservedTerm `json:"terms"`
	ObservedAt time.Time      `json:"observed_at"`
}

// NewSearchObservedTask builds the asynq task for one observed search.
func NewSearchObservedTask(payload SearchObservedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchObserved, data), nil
}
