package repository

import (
	"fmt"
	"strings"
	"time"
)

// TermScore is one weighted interest of a visitor, e.g. {make, bmw, 4.0}.
type TermScore struct {
	Key   string
	Value string
	Score float64
}

// personalizableColumns restricts which interest keys may influence ordering.
// Keys outside the list are dropped silently; they come from an append-only
// store and old clients may have written keys we no longer rank on.
var personalizableColumns = map[string]string{
	"make":         "make",
	"model":        "model",
	"bodyType":     "body_type",
	"fuelType":     "fuel_type",
	"transmission": "transmission",
	"type":         "category",
}

const (
	affinityWeight = 0.7
	recencyWeight  = 0.3
)

// buildPersonalizedOrder produces an ORDER BY body that blends the visitor's
// accumulated interest scores with listing freshness. It shares b with the
// predicate of the same statement so placeholders stay positional. Returns ""
// when no usable terms remain, in which case the caller keeps the default
// order. Only positive scores participate; a score decayed to zero or below
// is a dead interest, not a demotion signal.
func buildPersonalizedOrder(b *sqlBuilder, terms []TermScore, now time.Time) string {
	var cases []string
	for _, term := range terms {
		column, ok := personalizableColumns[term.Key]
		if !ok || term.Value == "" || term.Score <= 0 {
			continue
		}
		cases = append(cases, fmt.Sprintf(
			"CASE WHEN %s = %s THEN %s ELSE 0 END",
			column, b.bind(term.Value), b.bind(term.Score),
		))
	}
	if len(cases) == 0 {
		return ""
	}

	affinity := "(" + strings.Join(cases, " + ") + ")"
	recency := fmt.Sprintf("(COALESCE(renewed_time, 0)::float / %s)", b.bind(float64(now.Unix())))

	return fmt.Sprintf(
		"(%v * %s + %v * %s) DESC, renewed_time DESC NULLS LAST, id DESC",
		affinityWeight, affinity, recencyWeight, recency,
	)
}
