package repository

import (
	"fmt"
	"strings"
	"time"

	"automarket_backend/internal/listings/transport"
)

// PromotionContext carries the attributes a promoted slot is matched against.
// Zero-valued fields simply disable the tiers that need them.
type PromotionContext struct {
	Category     string
	Make         string
	Model        string
	Registration int
	FuelType     string
	BodyType     string
}

// ContextFromFilter derives a promotion context from the search filter.
// Registration participates only when a range pins a single year.
func ContextFromFilter(f *transport.Filter) PromotionContext {
	ctx := PromotionContext{Category: f.Type}
	if ctx.Category == "" {
		ctx.Category = defaultCategory
	}

	if term := f.Term("make1"); term != nil {
		ctx.Make = term.Value.Scalar
	}
	if term := f.Term("model1"); term != nil {
		ctx.Model = strings.TrimSuffix(term.Value.Scalar, " (all)")
	}
	if term := f.Term("fuelType"); term != nil && !strings.Contains(term.Value.Scalar, ",") {
		ctx.FuelType = term.Value.Scalar
	}
	if term := f.Term("bodyType"); term != nil && !strings.Contains(term.Value.Scalar, ",") {
		ctx.BodyType = term.Value.Scalar
	}
	if term := f.Term("registration"); term != nil {
		if year, pinned := pinnedYear(term.Value); pinned {
			ctx.Registration = year
		}
	}
	return ctx
}

// ContextFromListing derives a promotion context from a reference listing,
// used when resolving the promoted slot next to a detail page.
func ContextFromListing(item *Listing) PromotionContext {
	ctx := PromotionContext{Category: item.Category}
	if item.Make != nil {
		ctx.Make = *item.Make
	}
	if item.Model != nil {
		ctx.Model = *item.Model
	}
	if item.Registration != nil {
		ctx.Registration = *item.Registration
	}
	if item.FuelType != nil {
		ctx.FuelType = *item.FuelType
	}
	if item.BodyType != nil {
		ctx.BodyType = *item.BodyType
	}
	return ctx
}

// pinnedYear reports the single year a registration range selects, if any.
// An exclusive from/to pair one apart leaves exactly one integer between.
func pinnedYear(v transport.TermValue) (int, bool) {
	if !v.IsRange() || v.From == nil || v.To == nil {
		return 0, false
	}
	if *v.To-*v.From == 2 {
		return int(*v.From) + 1, true
	}
	return 0, false
}

// buildPromotionTiers returns match clauses from most to least specific. Each
// clause is self-contained so it can serve both the CASE rank and the WHERE
// disjunction of the same statement.
func buildPromotionTiers(b *sqlBuilder, ctx PromotionContext) []string {
	var tiers []string

	if ctx.Make != "" && ctx.Model != "" {
		makeModel := fmt.Sprintf("make = %s AND model = %s", b.bind(ctx.Make), b.bind(ctx.Model))
		if ctx.Registration != 0 {
			regClause := fmt.Sprintf("%s AND registration = %s", makeModel, b.bind(ctx.Registration))
			if ctx.FuelType != "" {
				tiers = append(tiers, fmt.Sprintf("%s AND fuel_type = %s", regClause, b.bind(ctx.FuelType)))
			}
			tiers = append(tiers, regClause)
		}
		tiers = append(tiers, makeModel)
	}
	if ctx.BodyType != "" {
		tiers = append(tiers, "body_type = "+b.bind(ctx.BodyType))
	}

	return tiers
}

// buildPromotionQuery assembles the statement that picks one active promoted
// listing for the context. Tier clauses feed a CASE rank so a more specific
// match always wins; ties fall to the promotion that runs longest, then to
// freshness. When the context offers no tiers the rank degenerates to a
// constant and any active promotion qualifies. excludeIDs skips listings the
// caller must not surface again, such as the rotation cache's last pick or
// the related flow's reference listing.
func buildPromotionQuery(ctx PromotionContext, excludeIDs []int64, now time.Time) (string, []interface{}) {
	b := newSQLBuilder()

	rank := "0"
	tiers := buildPromotionTiers(b, ctx)
	if len(tiers) > 0 {
		var cases []string
		for i, tier := range tiers {
			cases = append(cases, fmt.Sprintf("WHEN %s THEN %d", tier, len(tiers)-i))
		}
		rank = "CASE " + strings.Join(cases, " ") + " ELSE 0 END"
	}

	where := []string{
		"sold = FALSE",
		"deleted_at IS NULL",
		"category = " + b.bind(ctx.Category),
		"promotion_to >= " + b.bind(now.Unix()),
	}
	if len(excludeIDs) > 0 {
		where = append(where, "NOT (id = ANY("+b.bind(excludeIDs)+"))")
	}

	query := fmt.Sprintf(
		`SELECT %s FROM listings WHERE %s ORDER BY (%s) DESC, promotion_to DESC, renewed_time DESC NULLS LAST, id DESC LIMIT 1`,
		listingColumns, strings.Join(where, " AND "), rank,
	)
	return query, b.args
}
