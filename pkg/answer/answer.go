// Package answer canonicalizes declared and computed answers and
// compares them. Matching is exact equality on normalized forms; the
// benchmark requires unambiguous short answers, so there is deliberately
// no fuzzy or edit-distance matching.
package answer

import (
	"strings"
)

// Schema describes the declared shape of an answer, parsed from the
// question's "Answer as: ..." fragment.
type Schema struct {
	Raw string
	// Numeric answers get currency symbols and thousands separators
	// stripped before comparison.
	Numeric bool
	// Prefix is a declared unit prefix (e.g. "$") re-applied after
	// numeric stripping.
	Prefix string
	// ProperNoun answers keep their case.
	ProperNoun bool
}

var currencyPrefixes = []string{"$", "€", "£"}

var numericWords = []string{"number", "numeric", "integer", "count", "amount", "total"}

var properNounWords = []string{"proper noun", "title", "person", "place"}

// ParseSchema interprets an answer-schema fragment by keyword. Unknown
// fragments yield a plain case-insensitive text schema.
func ParseSchema(fragment string) Schema {
	s := Schema{Raw: fragment}
	lower := strings.ToLower(fragment)

	for _, w := range numericWords {
		if strings.Contains(lower, w) {
			s.Numeric = true
			break
		}
	}
	for _, p := range currencyPrefixes {
		if strings.Contains(fragment, p) {
			s.Numeric = true
			s.Prefix = p
			break
		}
	}
	for _, w := range properNounWords {
		if strings.Contains(lower, w) {
			s.ProperNoun = true
			break
		}
	}
	return s
}

// Normalize returns the canonical text form of a value under the schema.
// Normalize is idempotent.
func Normalize(value string, schema Schema) string {
	out := strings.Join(strings.Fields(value), " ")

	if schema.Numeric {
		for _, p := range currencyPrefixes {
			out = strings.ReplaceAll(out, p, "")
		}
		out = strings.ReplaceAll(out, ",", "")
		out = strings.TrimSpace(out)
		if out != "" && schema.Prefix != "" {
			out = schema.Prefix + out
		}
	}

	if !schema.ProperNoun {
		out = strings.ToLower(out)
	}
	return out
}

// Compare reports whether the declared and computed answers agree under
// the schema.
func Compare(declared, computed string, schema Schema) bool {
	return Normalize(declared, schema) == Normalize(computed, schema)
}
