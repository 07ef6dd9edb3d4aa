package answer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	t.Parallel()

	t.Run("numeric_keywords", func(t *testing.T) {
		t.Parallel()

		require.True(t, ParseSchema("number").Numeric)
		require.True(t, ParseSchema("total medal count").Numeric)
		require.False(t, ParseSchema("month name").Numeric)
	})

	t.Run("currency_prefix_implies_numeric", func(t *testing.T) {
		t.Parallel()

		s := ParseSchema("$ amount")
		require.True(t, s.Numeric)
		require.Equal(t, "$", s.Prefix)
	})

	t.Run("proper_noun_keywords", func(t *testing.T) {
		t.Parallel()

		require.True(t, ParseSchema("proper noun").ProperNoun)
		require.True(t, ParseSchema("film title").ProperNoun)
		require.False(t, ParseSchema("month name").ProperNoun)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("trims_and_collapses_whitespace", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "two words", Normalize("  Two \t words \n", Schema{}))
	})

	t.Run("numeric_strips_currency_and_separators", func(t *testing.T) {
		t.Parallel()

		s := Schema{Numeric: true, Prefix: "$"}
		require.Equal(t, "$1200", Normalize("$1,200", s))
		require.Equal(t, "$1200", Normalize("1200", s))
	})

	t.Run("proper_noun_preserves_case", func(t *testing.T) {
		t.Parallel()

		s := Schema{ProperNoun: true}
		require.Equal(t, "100 Bloody Acres", Normalize("100 Bloody Acres", s))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		schemas := []Schema{
			{},
			{Numeric: true},
			{Numeric: true, Prefix: "$"},
			{ProperNoun: true},
		}
		inputs := []string{"  Two  words ", "$1,200", "100 Bloody Acres", "August", ""}
		for _, s := range schemas {
			for _, in := range inputs {
				once := Normalize(in, s)
				require.Equal(t, once, Normalize(once, s), "schema %+v input %q", s, in)
			}
		}
	})
}

func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("currency_prefix_match", func(t *testing.T) {
		t.Parallel()

		s := ParseSchema("$ amount")
		require.True(t, Compare("$1,200", "1200", s))
	})

	t.Run("proper_noun_case_mismatch", func(t *testing.T) {
		t.Parallel()

		s := ParseSchema("film title (proper noun)")
		require.False(t, Compare("100 Bloody Acres", "100 bloody acres", s))
	})

	t.Run("plain_text_is_case_insensitive", func(t *testing.T) {
		t.Parallel()

		require.True(t, Compare("August", "august", ParseSchema("month name")))
		require.False(t, Compare("August", "July", ParseSchema("month name")))
	})
}
