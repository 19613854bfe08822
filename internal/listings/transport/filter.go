package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"automarket_backend/platform/apperr"
)

// TermValue is either a scalar or a {from,to} range. Scalars of any JSON
// primitive type are normalized to their string form; ranges keep numeric
// bounds. Exactly one of the two shapes is populated.
type TermValue struct {
	Scalar string
	From   *float64
	To     *float64
}

// IsRange reports whether the value carries at least one range bound.
func (v *TermValue) IsRange() bool {
	return v.From != nil || v.To != nil
}

// UnmarshalJSON accepts a string, number, boolean, or a {from,to} object.
func (v *TermValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '{' {
		var bounds struct {
			From *json.Number `json:"from"`
			To   *json.Number `json:"to"`
		}
		if err := json.Unmarshal(trimmed, &bounds); err != nil {
			return err
		}
		v.From = numberPtr(bounds.From)
		v.To = numberPtr(bounds.To)
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		v.Scalar = text
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err == nil {
		v.Scalar = number.String()
		return nil
	}

	var flag bool
	if err := json.Unmarshal(trimmed, &flag); err == nil {
		v.Scalar = strconv.FormatBool(flag)
		return nil
	}

	return fmt.Errorf("unsupported term value: %s", string(trimmed))
}

func numberPtr(n *json.Number) *float64 {
	if n == nil {
		return nil
	}
	parsed, err := n.Float64()
	if err != nil {
		return nil
	}
	return &parsed
}

// ParseFilter decodes a raw JSON filter payload into a Filter. It fails on
// invalid encoding or a payload that is not a JSON object. Field-level
// semantics are left to the predicate builder; unknown term keys pass through
// untouched and are ignored downstream. Duplicate term keys keep the first
// occurrence.
func ParseFilter(raw string) (*Filter, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperr.Validation("filter must be a JSON object")
	}

	var filter Filter
	if err := json.Unmarshal(trimmed, &filter); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "malformed filter payload", err)
	}

	filter.SearchTerms = dedupeTerms(filter.SearchTerms)

	return &filter, nil
}

func dedupeTerms(terms []SearchTerm) []SearchTerm {
	if len(terms) < 2 {
		return terms
	}
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, term := range terms {
		if _, dup := seen[term.Key]; dup {
			continue
		}
		seen[term.Key] = struct{}{}
		out = append(out, term)
	}
	return out
}
