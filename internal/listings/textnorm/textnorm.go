// Package textnorm turns free-text search input into canonical search tokens.
// The pipeline encodes market-specific spelling and model-name conventions
// observed in real queries; pass order matters and each pass consumes the
// previous pass's output.
package textnorm

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxTextLength is the longest accepted raw input, in runes.
	MaxTextLength = 75
	// MaxTokens caps the number of tokens produced.
	MaxTokens = 10
)

// ErrTextTooLong is returned when the raw input exceeds MaxTextLength.
var ErrTextTooLong = errors.New("search text too long")

// typoTable maps frequent misspellings to canonical brand and series words.
var typoTable = map[string]string{
	"benc":       "benz",
	"bens":       "benz",
	"mercedez":   "mercedes",
	"seria":      "series",
	"serie":      "series",
	"bmv":        "bmw",
	"wolkswagen": "volkswagen",
	"folksvagen": "volkswagen",
	"pasat":      "passat",
	"reno":       "renault",
	"pejo":       "peugeot",
}

// manufacturers are the brand words that anchor the series-collapse rule.
var manufacturers = map[string]struct{}{
	"audi":       {},
	"benz":       {},
	"bmw":        {},
	"citroen":    {},
	"fiat":       {},
	"ford":       {},
	"honda":      {},
	"hyundai":    {},
	"kia":        {},
	"mercedes":   {},
	"opel":       {},
	"peugeot":    {},
	"renault":    {},
	"toyota":     {},
	"volkswagen": {},
	"vw":         {},
	"yamaha":     {},
}

// Normalize converts raw free-text input into at most MaxTokens lowercase
// canonical tokens. It is idempotent on its own token output: a second run of
// the token passes leaves already-normalized tokens untouched, and no pass
// reorders tokens except the documented series swap.
func Normalize(raw string) ([]string, error) {
	if utf8.RuneCountInString(raw) > MaxTextLength {
		return nil, ErrTextTooLong
	}

	tokens := split(raw)
	tokens = applyTypoTable(tokens)
	tokens = fuseUnitPairs(tokens)
	tokens = normalizeSeries(tokens)
	tokens = fuseSingleChars(tokens)
	tokens = fuseModelNumbers(tokens)

	return tokens, nil
}

// split lowercases and tokenizes on whitespace, treating commas as whitespace.
func split(raw string) []string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) > MaxTokens {
		fields = fields[:MaxTokens]
	}
	return fields
}

func applyTypoTable(tokens []string) []string {
	for i, token := range tokens {
		if canonical, ok := typoTable[token]; ok {
			tokens[i] = canonical
		}
	}
	return tokens
}

// fuseUnitPairs merges literal unit pairs that tokenization splits apart.
func fuseUnitPairs(tokens []string) []string {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == "t" && tokens[i+1] == "max" {
			tokens[i] = "tmax"
			tokens = splice(tokens, i+1)
		}
	}
	return tokens
}

// normalizeSeries handles the "series" keyword. With a manufacturer in a
// 3-token window and a number adjacent to "series", the pair collapses into a
// single "<number>-series" token. Otherwise "series" followed by a number is
// swapped so the number leads. The numeric guard keeps re-runs from moving
// "series" past unrelated tokens.
func normalizeSeries(tokens []string) []string {
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "series" {
			continue
		}

		numIdx := -1
		if i+1 < len(tokens) && isNumeric(tokens[i+1]) {
			numIdx = i + 1
		} else if i > 0 && isNumeric(tokens[i-1]) {
			numIdx = i - 1
		}

		if numIdx >= 0 && manufacturerNearby(tokens, i) {
			fused := tokens[numIdx] + "-series"
			lo := i
			if numIdx < lo {
				lo = numIdx
			}
			tokens[lo] = fused
			tokens = splice(tokens, lo+1)
			continue
		}

		if i+1 < len(tokens) && isNumeric(tokens[i+1]) {
			tokens[i], tokens[i+1] = tokens[i+1], tokens[i]
			i++
		}
	}
	return tokens
}

func manufacturerNearby(tokens []string, idx int) bool {
	for j := idx - 2; j <= idx+2; j++ {
		if j < 0 || j >= len(tokens) || j == idx {
			continue
		}
		if _, ok := manufacturers[tokens[j]]; ok {
			return true
		}
	}
	return false
}

// fuseSingleChars merges a lone alphabetic token with its right neighbor:
// with a space when the neighbor is numeric, a hyphen otherwise.
func fuseSingleChars(tokens []string) []string {
	for i := 0; i+1 < len(tokens); i++ {
		if len(tokens[i]) != 1 || !isAlpha(tokens[i]) {
			continue
		}
		sep := "-"
		if isNumeric(tokens[i+1]) {
			sep = " "
		}
		tokens[i] = tokens[i] + sep + tokens[i+1]
		tokens = splice(tokens, i+1)
	}
	return tokens
}

// fuseModelNumbers attaches a purely numeric token to its left neighbor with
// a hyphen, unless the neighbor already carries one. "golf" takes a space to
// match how its generations are written.
func fuseModelNumbers(tokens []string) []string {
	for i := 1; i < len(tokens); i++ {
		if !isNumeric(tokens[i]) || strings.Contains(tokens[i-1], "-") {
			continue
		}
		sep := "-"
		if tokens[i-1] == "golf" {
			sep = " "
		}
		tokens[i-1] = tokens[i-1] + sep + tokens[i]
		tokens = splice(tokens, i)
		i--
	}
	return tokens
}

func splice(tokens []string, idx int) []string {
	return append(tokens[:idx], tokens[idx+1:]...)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
