package repository

import (
	"fmt"
	"strings"
	"time"

	"automarket_backend/internal/listings/transport"
)

// houseVendorID is the reserved marketplace-owned account. Its listings are
// hidden from generic browsing and surfaced only through the "encar" keyword
// or an explicit vendor lookup.
const houseVendorID int64 = 1

// defaultCategory applies when the filter carries no category.
const defaultCategory = "car"

var rangeColumns = map[string]string{
	"registration": "registration",
	"price":        "price",
	"mileage":      "mileage",
}

var categoricalColumns = map[string]string{
	"transmission":  "transmission",
	"fuelType":      "fuel_type",
	"bodyType":      "body_type",
	"emissionGroup": "emission_group",
}

// buildSearchWhere translates a validated filter plus normalized free-text
// tokens into a WHERE clause. All values are bound through b; the returned
// text contains placeholders only. Sold and soft-deleted rows are excluded
// unconditionally.
func buildSearchWhere(b *sqlBuilder, f *transport.Filter, tokens []string, now time.Time) string {
	where := []string{"sold = FALSE", "deleted_at IS NULL"}

	category := f.Type
	if category == "" {
		category = defaultCategory
	}
	where = append(where, "category = "+b.bind(category))

	addEquals := func(column, value string) {
		where = append(where, fmt.Sprintf("%s = %s", column, b.bind(value)))
	}

	hasVendorTerm := false
	for _, term := range f.SearchTerms {
		switch term.Key {
		case "make1":
			if term.Value.Scalar != "" {
				addEquals("make", term.Value.Scalar)
			}
		case "model1":
			model := strings.TrimSuffix(term.Value.Scalar, " (all)")
			if model != "" {
				addEquals("model", model)
			}
		case "registration", "price", "mileage":
			column := rangeColumns[term.Key]
			if term.Value.From != nil {
				where = append(where, fmt.Sprintf("%s > %s", column, b.bind(*term.Value.From)))
			}
			if term.Value.To != nil {
				where = append(where, fmt.Sprintf("%s < %s", column, b.bind(*term.Value.To)))
			}
			// A scalar on a range key is an exact request.
			if !term.Value.IsRange() && term.Value.Scalar != "" {
				addEquals(column, term.Value.Scalar)
			}
		case "transmission", "fuelType", "bodyType", "emissionGroup":
			values := splitCategorical(term.Value.Scalar)
			if len(values) > 0 {
				where = append(where, fmt.Sprintf("%s = ANY(%s)", categoricalColumns[term.Key], b.bind(values)))
			}
		case "customsPaid":
			switch term.Value.Scalar {
			case "1", "true":
				// Unknown customs status counts as paid for this filter only.
				where = append(where, "(customs_paid = 1 OR customs_paid IS NULL)")
			case "0", "false":
				where = append(where, "customs_paid = 0")
			case "":
			default:
				addEquals("customs_paid", term.Value.Scalar)
			}
		case "vendorAccountName":
			if term.Value.Scalar != "" {
				addEquals("vendor_account_name", term.Value.Scalar)
				hasVendorTerm = true
			}
		}
	}

	where = append(where, buildKeywordClauses(b, f.Keyword, hasVendorTerm, now)...)

	for _, token := range tokens {
		pattern := b.bind("%" + token + "%")
		where = append(where, fmt.Sprintf(
			"(caption_clean ILIKE %s OR make ILIKE %s OR model ILIKE %s OR variant ILIKE %s OR registration::text LIKE %s OR fuel_type ILIKE %s)",
			pattern, pattern, pattern, pattern, pattern, pattern,
		))
	}

	return strings.Join(where, " AND ")
}

// buildKeywordClauses applies the legacy keyword shortcut rules. Branches are
// mutually exclusive, in priority order.
func buildKeywordClauses(b *sqlBuilder, keyword string, hasVendorTerm bool, now time.Time) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	options := splitOptions(keyword)

	switch {
	case keyword == "":
		if hasVendorTerm {
			// An explicit vendor lookup must show that vendor's own
			// listings, even the house account's.
			return nil
		}
		return []string{"vendor_id <> " + b.bind(houseVendorID)}

	case keyword == "encar":
		return []string{"vendor_id = " + b.bind(houseVendorID)}

	case containsOption(options, "okazion") || containsOption(options, "oferte"):
		clauses := []string{
			"price > 1",
			"min_price > 1",
			"max_price > 1",
			"(price - min_price) / NULLIF(max_price - price, 0) < 0.25",
		}
		var captionOr []string
		for _, opt := range options {
			if opt == "okazion" || opt == "oferte" {
				continue
			}
			captionOr = append(captionOr, "caption_clean ILIKE "+b.bind("%"+opt+"%"))
		}
		if len(captionOr) > 0 {
			clauses = append(clauses, "("+strings.Join(captionOr, " OR ")+")")
		}
		return clauses

	case keyword == "retro":
		return []string{fmt.Sprintf(
			"(caption_clean ILIKE %s OR registration < %s)",
			b.bind("%retro%"), b.bind(now.Year()-30),
		)}

	case keyword == "korea":
		return []string{fmt.Sprintf(
			"(caption_clean ILIKE %s OR vendor_account_name ILIKE %s)",
			b.bind("%korea%"), b.bind("%korea%"),
		)}

	case keyword == "elektrike":
		// The category filter alone covers electric-only browsing.
		return nil

	default:
		var captionOr []string
		for _, opt := range options {
			captionOr = append(captionOr, "caption_clean ILIKE "+b.bind("%"+opt+"%"))
		}
		if len(captionOr) == 0 {
			return nil
		}
		return []string{"(" + strings.Join(captionOr, " OR ") + ")"}
	}
}

func splitOptions(keyword string) []string {
	if keyword == "" {
		return nil
	}
	parts := strings.Split(keyword, ",")
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	return options
}

func containsOption(options []string, target string) bool {
	for _, opt := range options {
		if opt == target {
			return true
		}
	}
	return false
}

// splitCategorical splits a comma-separated categorical value list. Hyphens
// become spaces unless the value names a label family that legitimately
// carries them (SUV/gas variants).
func splitCategorical(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		lowered := strings.ToLower(trimmed)
		if !strings.Contains(lowered, "suv") && !strings.Contains(lowered, "gas") {
			trimmed = strings.ReplaceAll(trimmed, "-", " ")
		}
		values = append(values, trimmed)
	}
	return values
}
