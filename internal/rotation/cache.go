// Package rotation remembers which promoted listing a search context last
// showed, so repeat searches cycle through competing promotions instead of
// pinning one winner.
package rotation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "promo_rotation:"
	fieldSearches = "searches"
	fieldLastID   = "last_id"
)

// State is the rotation bookkeeping for one search context.
type State struct {
	// Searches counts searches seen for the context since the key was
	// created or last expired.
	Searches int64
	// LastPromotedID is the listing the context last surfaced, 0 when none.
	LastPromotedID int64
}

// Cache tracks promotion rotation per search context in Redis.
type Cache struct {
	client   redis.UniversalClient
	ttl      time.Duration
	interval int
}

func NewCache(client redis.UniversalClient, ttl time.Duration, interval int) *Cache {
	if interval < 1 {
		interval = 1
	}
	return &Cache{client: client, ttl: ttl, interval: interval}
}

// contextKey hashes the context signature into a fixed-size key.
func contextKey(signature string) string {
	sum := sha256.Sum256([]byte(signature))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Bump registers one search for the context and returns the updated state.
// The key's TTL is refreshed so active contexts never expire mid-cycle.
func (c *Cache) Bump(ctx context.Context, signature string) (State, error) {
	key := contextKey(signature)

	pipe := c.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, fieldSearches, 1)
	last := pipe.HGet(ctx, key, fieldLastID)
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return State{}, err
	}

	state := State{Searches: incr.Val()}
	if raw, err := last.Result(); err == nil {
		if id, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			state.LastPromotedID = id
		}
	}
	return state, nil
}

// ShouldRotate reports whether this search falls on a rotation boundary.
func (c *Cache) ShouldRotate(state State) bool {
	return state.LastPromotedID != 0 && state.Searches%int64(c.interval) == 0
}

// MarkShown records the promoted listing the context just surfaced.
func (c *Cache) MarkShown(ctx context.Context, signature string, listingID int64) error {
	key := contextKey(signature)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fieldLastID, listingID)
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}
