// Package timing wraps relational calls with a soft per-operation latency
// budget. The guard never aborts or retries a call; overruns are logged and
// counted so slow queries surface in observability, not in request errors.
package timing

import (
	"context"
	"time"

	"automarket_backend/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Guard measures relational calls against a soft budget.
type Guard struct {
	budget   time.Duration
	log      *logger.Logger
	duration *prometheus.HistogramVec
	overruns *prometheus.CounterVec
}

// NewGuard creates a Guard with the given soft budget and registers its
// metrics on the provided registerer.
func NewGuard(budget time.Duration, log *logger.Logger, reg prometheus.Registerer) *Guard {
	g := &Guard{
		budget: budget,
		log:    log,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "query_duration_seconds",
			Help:    "Duration of relational calls by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		overruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_budget_overruns_total",
			Help: "Relational calls that exceeded their soft latency budget.",
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(g.duration, g.overruns)
	}

	return g
}

// Observe runs fn, records its duration, and logs a warning when the call
// exceeds the soft budget. The call's result is passed through untouched.
func (g *Guard) Observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	g.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	g.log.QueryTiming(operation, float64(elapsed.Milliseconds()))

	if g.budget > 0 && elapsed > g.budget {
		g.overruns.WithLabelValues(operation).Inc()
		g.log.QueryBudgetExceeded(operation, float64(elapsed.Milliseconds()), float64(g.budget.Milliseconds()))
	}

	return err
}

// Budget returns the configured soft budget.
func (g *Guard) Budget() time.Duration {
	return g.budget
}
