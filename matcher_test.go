package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCasePermutations(t *testing.T) {
	cases := []struct {
		title string
		in    string
		exp   []string
	}{
		{
			title: "empty",
			in:    "",
			exp:   []string{""},
		},
		{
			title: "single-letter",
			in:    "a",
			exp:   []string{"a", "A"},
		},
		{
			title: "non-letters-contribute-one-variant",
			in:    "1-",
			exp:   []string{"1-"},
		},
		{
			title: "mixed",
			in:    "a1b",
			exp:   []string{"a1b", "a1B", "A1b", "A1B"},
		},
		{
			title: "unicode",
			in:    "á",
			exp:   []string{"á", "Á"},
		},
	}

	for _, c := range cases {
		assert.ElementsMatch(t, c.exp, casePermutations(c.in), c.title)
	}
}

func TestCaseInsensitiveSelector(t *testing.T) {
	sel := caseInsensitiveSelector("emails.address", "User@x.com")

	and, ok := sel["$and"].(bson.A)
	require.True(t, ok)
	require.Len(t, and, 2)

	// Prefix clause: permutations of the first 4 characters only.
	or, ok := and[0].(bson.M)["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 16) // "User" has 4 cased letters

	patterns := make(map[string]bool)
	for _, clause := range or {
		re, ok := clause.(bson.M)["emails.address"].(bson.Regex)
		require.True(t, ok)
		assert.Empty(t, re.Options)
		patterns[re.Pattern] = true
	}
	assert.True(t, patterns["^user"])
	assert.True(t, patterns["^USER"])
	assert.True(t, patterns["^User"])

	// Full clause: anchored case insensitive equality.
	full, ok := and[1].(bson.M)["emails.address"].(bson.Regex)
	require.True(t, ok)
	assert.Equal(t, `^User@x\.com$`, full.Pattern)
	assert.Equal(t, "i", full.Options)
}

func TestCaseInsensitiveSelectorShortValue(t *testing.T) {
	sel := caseInsensitiveSelector("emails.address", "ab")

	and := sel["$and"].(bson.A)
	or := and[0].(bson.M)["$or"].(bson.A)
	assert.Len(t, or, 4)
}

func TestCaseInsensitiveSelectorEmptyValue(t *testing.T) {
	// Callers guard against empty input; the selector degenerates to a
	// single case insensitive scan.
	sel := caseInsensitiveSelector("emails.address", "")

	and := sel["$and"].(bson.A)
	or := and[0].(bson.M)["$or"].(bson.A)
	require.Len(t, or, 1)
	re := or[0].(bson.M)["emails.address"].(bson.Regex)
	assert.Equal(t, "^", re.Pattern)
}

func TestCaseInsensitiveSelectorEscaping(t *testing.T) {
	sel := caseInsensitiveSelector("emails.address", "a+b@x.com")

	and := sel["$and"].(bson.A)
	full := and[1].(bson.M)["emails.address"].(bson.Regex)
	assert.Equal(t, `^a\+b@x\.com$`, full.Pattern)
}
