// Package repository holds the relational side of listing search: predicate,
// ordering and promotion SQL is assembled here and nowhere else.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"automarket_backend/internal/listings/transport"
	"automarket_backend/platform/apperr"
	"automarket_backend/platform/logger"
	"automarket_backend/platform/timing"
)

// ErrNotFound is returned when a listing id does not resolve to a live row.
var ErrNotFound = errors.New("listing not found")

// Repository executes listing queries against Postgres.
type Repository struct {
	pool  *pgxpool.Pool
	guard *timing.Guard
	log   *logger.Logger
}

func New(pool *pgxpool.Pool, guard *timing.Guard, log *logger.Logger) *Repository {
	return &Repository{pool: pool, guard: guard, log: log}
}

// SearchParams is everything the main search statement needs beyond the
// filter itself.
type SearchParams struct {
	Filter   *transport.Filter
	Tokens   []string
	Terms    []TermScore
	Page     int
	PageSize int
	Now      time.Time
}

// Search runs the main result-page query. The returned slice carries the
// window total on every row via COUNT(*) OVER(). Personalized ordering only
// applies when the client left the sort at its default.
func (r *Repository) Search(ctx context.Context, p SearchParams) ([]Listing, int64, error) {
	b := newSQLBuilder()
	where := buildSearchWhere(b, p.Filter, p.Tokens, p.Now)

	order := resolveSort(p.Filter.SortKey, p.Filter.SortOrder)
	if isDefaultSort(p.Filter.SortKey) && len(p.Terms) > 0 {
		if personalized := buildPersonalizedOrder(b, p.Terms, p.Now); personalized != "" {
			order = personalized
		}
	}

	// Pages are zero-based.
	offset := p.Page * p.PageSize
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total FROM listings WHERE %s ORDER BY %s LIMIT %s OFFSET %s`,
		listingColumns, where, order, b.bind(p.PageSize), b.bind(offset),
	)

	var items []Listing
	err := r.guard.Observe(ctx, "listings.search", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, b.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var item Listing
			if err := scanListing(rows, &item, true); err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.DatabaseError("listings.search", err)
		return nil, 0, apperr.Wrap(apperr.KindUnavailable, "search temporarily unavailable", err)
	}

	var total int64
	if len(items) > 0 {
		total = items[0].Total
	}
	return items, total, nil
}

// ResolvePromotion picks the best active promoted listing for the context,
// skipping any excluded ids. A nil listing without error means no promotion
// is live.
func (r *Repository) ResolvePromotion(ctx context.Context, pctx PromotionContext, excludeIDs []int64, now time.Time) (*Listing, error) {
	query, args := buildPromotionQuery(pctx, excludeIDs, now)

	var item Listing
	err := r.guard.Observe(ctx, "listings.promotion", func(ctx context.Context) error {
		return scanListing(r.pool.QueryRow(ctx, query, args...), &item, false)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.DatabaseError("listings.promotion", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "promotion lookup unavailable", err)
	}
	return &item, nil
}

// GetByID fetches one live listing.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Listing, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM listings WHERE id = $1 AND deleted_at IS NULL`,
		listingColumns,
	)

	var item Listing
	err := r.guard.Observe(ctx, "listings.get", func(ctx context.Context) error {
		return scanListing(r.pool.QueryRow(ctx, query, id), &item, false)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.DatabaseError("listings.get", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "listing lookup unavailable", err)
	}
	return &item, nil
}

// FindRelated returns up to limit live listings similar to the reference,
// ranked by the same specificity cascade promotions use. The reference and
// any explicitly excluded ids never appear in the result.
func (r *Repository) FindRelated(ctx context.Context, ref *Listing, excludeIDs []int64, limit int) ([]Listing, error) {
	b := newSQLBuilder()
	pctx := ContextFromListing(ref)

	rank := "0"
	tiers := buildPromotionTiers(b, pctx)
	if len(tiers) > 0 {
		var cases []string
		for i, tier := range tiers {
			cases = append(cases, fmt.Sprintf("WHEN %s THEN %d", tier, len(tiers)-i))
		}
		rank = "CASE " + strings.Join(cases, " ") + " ELSE 0 END"
	}

	exclude := append([]int64{ref.ID}, excludeIDs...)
	where := []string{
		"sold = FALSE",
		"deleted_at IS NULL",
		"category = " + b.bind(pctx.Category),
		"NOT (id = ANY(" + b.bind(exclude) + "))",
	}
	if len(tiers) > 0 {
		where = append(where, "("+strings.Join(tiers, " OR ")+")")
	}

	query := fmt.Sprintf(
		`SELECT %s FROM listings WHERE %s ORDER BY (%s) DESC, renewed_time DESC NULLS LAST, id DESC LIMIT %s`,
		listingColumns, strings.Join(where, " AND "), rank, b.bind(limit),
	)

	var items []Listing
	err := r.guard.Observe(ctx, "listings.related", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, b.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var item Listing
			if err := scanListing(rows, &item, false); err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.DatabaseError("listings.related", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "related lookup unavailable", err)
	}
	return items, nil
}
