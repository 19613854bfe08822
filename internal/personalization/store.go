// Package personalization keeps per-visitor interest profiles in Redis.
// Profiles are sorted sets keyed by a hash of the visitor id; members encode
// an attribute and its value, scores accumulate across searches.
package personalization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"automarket_backend/platform/logger"
)

const (
	keyPrefix = "visitor_terms:"
	// memberSep joins the attribute key and value inside a set member.
	memberSep = "|"
	// profileTTL expires profiles of visitors who stop searching.
	profileTTL = 30 * 24 * time.Hour
)

// Term is one weighted visitor interest.
type Term struct {
	Key   string
	Value string
	Score float64
}

// Store reads and accumulates visitor interest profiles.
type Store struct {
	client   redis.UniversalClient
	log      *logger.Logger
	maxTerms int
}

func NewStore(client redis.UniversalClient, log *logger.Logger, maxTerms int) *Store {
	return &Store{client: client, log: log, maxTerms: maxTerms}
}

// visitorKey hashes the raw visitor id so profile keys never carry
// client-supplied bytes.
func visitorKey(visitorID string) string {
	sum := sha256.Sum256([]byte(visitorID))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// TopTerms returns the visitor's strongest interests, best first, capped at
// the configured term limit. A missing profile yields an empty slice.
func (s *Store) TopTerms(ctx context.Context, visitorID string) ([]Term, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, visitorKey(visitorID), 0, int64(s.maxTerms)-1).Result()
	if err != nil {
		return nil, err
	}

	terms := make([]Term, 0, len(members))
	for _, member := range members {
		raw, ok := member.Member.(string)
		if !ok {
			continue
		}
		key, value, found := strings.Cut(raw, memberSep)
		if !found || key == "" || value == "" {
			continue
		}
		terms = append(terms, Term{Key: key, Value: value, Score: member.Score})
	}
	return terms, nil
}

// BumpTerms increments the visitor's score for each observed term and
// refreshes the profile TTL. All increments ride one pipeline round trip.
func (s *Store) BumpTerms(ctx context.Context, visitorID string, terms []Term) error {
	if len(terms) == 0 {
		return nil
	}

	key := visitorKey(visitorID)
	pipe := s.client.Pipeline()
	for _, term := range terms {
		if term.Key == "" || term.Value == "" {
			continue
		}
		weight := term.Score
		if weight == 0 {
			weight = 1
		}
		pipe.ZIncrBy(ctx, key, weight, term.Key+memberSep+term.Value)
	}
	pipe.Expire(ctx, key, profileTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}
