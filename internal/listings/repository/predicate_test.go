package repository

import (
	"strings"
	"testing"
	"time"

	"automarket_backend/internal/listings/transport"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func TestBuildSearchWhere_BaseClauses(t *testing.T) {
	b := newSQLBuilder()
	where := buildSearchWhere(b, &transport.Filter{}, nil, testNow)

	for _, clause := range []string{"sold = FALSE", "deleted_at IS NULL", "category = $1"} {
		if !strings.Contains(where, clause) {
			t.Fatalf("expected clause %q in %q", clause, where)
		}
	}
	if b.args[0] != "car" {
		t.Fatalf("expected default category car, got %v", b.args[0])
	}
}

func TestBuildSearchWhere_ExcludesHouseVendorByDefault(t *testing.T) {
	b := newSQLBuilder()
	where := buildSearchWhere(b, &transport.Filter{}, nil, testNow)

	if !strings.Contains(where, "vendor_id <> $2") {
		t.Fatalf("expected house vendor exclusion, got %q", where)
	}
	if b.args[1] != houseVendorID {
		t.Fatalf("expected house vendor id bound, got %v", b.args[1])
	}
}

func TestBuildSearchWhere_VendorTermDisablesHouseExclusion(t *testing.T) {
	f := &transport.Filter{
		SearchTerms: []transport.SearchTerm{
			{Key: "vendorAccountName", Value: transport.TermValue{Scalar: "encar"}},
		},
	}

	b := newSQLBuilder()
	where := buildSearchWhere(b, f, nil, testNow)

	if strings.Contains(where, "vendor_id <>") {
		t.Fatalf("vendor lookup must not exclude house vendor: %q", where)
	}
	if !strings.Contains(where, "vendor_account_name = ") {
		t.Fatalf("expected vendor clause in %q", where)
	}
}

func TestBuildSearchWhere_ModelAllSuffixStripped(t *testing.T) {
	f := &transport.Filter{
		SearchTerms: []transport.SearchTerm{
			{Key: "make1", Value: transport.TermValue{Scalar: "BMW"}},
			{Key: "model1", Value: transport.TermValue{Scalar: "3 Series (all)"}},
		},
	}

	b := newSQLBuilder()
	buildSearchWhere(b, f, nil, testNow)

	found := false
	for _, arg := range b.args {
		if arg == "3 Series" {
			found = true
		}
		if arg == "3 Series (all)" {
			t.Fatalf("model bound with (all) suffix intact")
		}
	}
	if !found {
		t.Fatalf("expected stripped model value among args %v", b.args)
	}
}

func TestBuildSearchWhere_RangeBoundsAreStrict(t *testing.T) {
	f := &transport.Filter{
		SearchTerms: []transport.SearchTerm{
			{Key: "price", Value: transport.TermValue{From: floatPtr(5000), To: floatPtr(15000)}},
		},
	}

	b := newSQLBuilder()
	where := buildSearchWhere(b, f, nil, testNow)

	if !strings.Contains(where, "price > ") || !strings.Contains(where, "price < ") {
		t.Fatalf("expected strict range bounds, got %q", where)
	}
	if strings.Contains(where, ">=") || strings.Contains(where, "<=") {
		t.Fatalf("bounds must be exclusive, got %q", where)
	}
}

func TestBuildSearchWhere_CategoricalSetHyphenNormalization(t *testing.T) {
	f := &transport.Filter{
		SearchTerms: []transport.SearchTerm{
			{Key: "bodyType", Value: transport.TermValue{Scalar: "station-wagon,mini-suv"}},
		},
	}

	b := newSQLBuilder()
	where := buildSearchWhere(b, f, nil, testNow)

	if !strings.Contains(where, "body_type = ANY(") {
		t.Fatalf("expected ANY clause, got %q", where)
	}

	var values []string
	for _, arg := range b.args {
		if v, ok := arg.([]string); ok {
			values = v
		}
	}
	if len(values) != 2 || values[0] != "station wagon" || values[1] != "mini-suv" {
		t.Fatalf("unexpected categorical values %v", values)
	}
}

func TestBuildSearchWhere_CustomsPaidTreatsUnknownAsPaid(t *testing.T) {
	f := &transport.Filter{
		SearchTerms: []transport.SearchTerm{
			{Key: "customsPaid", Value: transport.TermValue{Scalar: "1"}},
		},
	}

	b := newSQLBuilder()
	where := buildSearchWhere(b, f, nil, testNow)

	if !strings.Contains(where, "(customs_paid = 1 OR customs_paid IS NULL)") {
		t.Fatalf("expected unknown customs status to pass, got %q", where)
	}
}

func TestBuildSearchWhere_FreeTextTokenGroups(t *testing.T) {
	b := newSQLBuilder()
	where := buildSearchWhere(b, &transport.Filter{}, []string{"passat", "2010"}, testNow)

	if got := strings.Count(where, "caption_clean ILIKE"); got != 2 {
		t.Fatalf("expected one caption group per token, got %d in %q", got, where)
	}

	foundPattern := false
	for _, arg := range b.args {
		if arg == "%passat%" {
			foundPattern = true
		}
	}
	if !foundPattern {
		t.Fatalf("expected wrapped pattern among args %v", b.args)
	}
}

func TestBuildKeywordClauses_Encar(t *testing.T) {
	b := newSQLBuilder()
	clauses := buildKeywordClauses(b, "encar", false, testNow)

	if len(clauses) != 1 || !strings.HasPrefix(clauses[0], "vendor_id = ") {
		t.Fatalf("expected house vendor pin, got %v", clauses)
	}
	if b.args[0] != houseVendorID {
		t.Fatalf("expected house vendor id, got %v", b.args[0])
	}
}

func TestBuildKeywordClauses_BargainFormula(t *testing.T) {
	b := newSQLBuilder()
	clauses := buildKeywordClauses(b, "okazion", false, testNow)

	joined := strings.Join(clauses, " AND ")
	if !strings.Contains(joined, "NULLIF(max_price - price, 0)") {
		t.Fatalf("bargain ratio must guard division by zero: %q", joined)
	}
	for _, guard := range []string{"price > 1", "min_price > 1", "max_price > 1"} {
		if !strings.Contains(joined, guard) {
			t.Fatalf("missing guard %q in %q", guard, joined)
		}
	}
}

func TestBuildKeywordClauses_BargainWithExtraOptions(t *testing.T) {
	b := newSQLBuilder()
	clauses := buildKeywordClauses(b, "oferte,golf", false, testNow)

	joined := strings.Join(clauses, " AND ")
	if !strings.Contains(joined, "caption_clean ILIKE") {
		t.Fatalf("expected caption filter for extra option, got %q", joined)
	}

	found := false
	for _, arg := range b.args {
		if arg == "%golf%" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected golf pattern among args %v", b.args)
	}
}

func TestBuildKeywordClauses_RetroUsesThirtyYearCutoff(t *testing.T) {
	b := newSQLBuilder()
	buildKeywordClauses(b, "retro", false, testNow)

	found := false
	for _, arg := range b.args {
		if arg == testNow.Year()-30 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cutoff year %d among args %v", testNow.Year()-30, b.args)
	}
}

func TestBuildKeywordClauses_UnknownKeywordMatchesCaption(t *testing.T) {
	b := newSQLBuilder()
	clauses := buildKeywordClauses(b, "kamper", false, testNow)

	if len(clauses) != 1 || !strings.Contains(clauses[0], "caption_clean ILIKE") {
		t.Fatalf("expected caption fallback, got %v", clauses)
	}
}

func TestBuildKeywordClauses_ElektrikeAddsNothing(t *testing.T) {
	b := newSQLBuilder()
	if clauses := buildKeywordClauses(b, "elektrike", false, testNow); len(clauses) != 0 {
		t.Fatalf("expected no clauses, got %v", clauses)
	}
}
