package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/apiforge/internal/config"
)

func buildTable(t *testing.T, fields map[string][]config.Rule, order []string) *Table {
	t.Helper()
	table, issues := Build(map[string]*config.Model{
		"user": {Fields: fields, FieldOrder: order},
	}, []string{"user"})
	require.Empty(t, issues)
	return table
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"90m", 90 * time.Minute},
		{"7d", 7 * 24 * time.Hour},
		{"1.5d", 36 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "yesterday", "12q"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMatcher(t *testing.T) {
	t.Parallel()
	m, err := ParseMatcher("active")
	require.NoError(t, err)
	assert.False(t, m.IsSpan)
	assert.Equal(t, "active", m.Literal)

	m, err = ParseMatcher("$span:24h")
	require.NoError(t, err)
	assert.True(t, m.IsSpan)
	assert.Equal(t, 24*time.Hour, m.Span)

	_, err = ParseMatcher("$span:nope")
	assert.Error(t, err)
}

func TestTranslate_Literal(t *testing.T) {
	t.Parallel()
	table := buildTable(t, map[string][]config.Rule{
		"status": {
			{Matcher: "active", Label: "Active"},
			{Matcher: "inactive", Label: "Inactive"},
		},
	}, []string{"status"})

	label, ok := table.Translate("user", "status", "inactive", time.Now())
	require.True(t, ok)
	assert.Equal(t, "Inactive", label)

	_, ok = table.Translate("user", "status", "banned", time.Now())
	assert.False(t, ok, "no default is synthesized")
}

func TestTranslate_SpanFirstMatchWins(t *testing.T) {
	t.Parallel()
	table := buildTable(t, map[string][]config.Rule{
		"visited_at": {
			{Matcher: "$span:24h", Label: "within a day"},
			{Matcher: "$span:7d", Label: "within a week"},
		},
	}, []string{"visited_at"})

	asOf := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// Two hours old: both spans cover it, the 24h rule is declared first.
	label, ok := table.Translate("user", "visited_at", asOf.Add(-2*time.Hour), asOf)
	require.True(t, ok)
	assert.Equal(t, "within a day", label)

	// Three days old: only the 7d rule covers it.
	label, ok = table.Translate("user", "visited_at", asOf.Add(-72*time.Hour), asOf)
	require.True(t, ok)
	assert.Equal(t, "within a week", label)

	// Thirty days old: no rule matches.
	_, ok = table.Translate("user", "visited_at", asOf.Add(-30*24*time.Hour), asOf)
	assert.False(t, ok)
}

func TestTranslate_MixedLiteralAndSpanDeclarationOrder(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	stamp := asOf.Add(-time.Hour).Format(time.RFC3339)

	table := buildTable(t, map[string][]config.Rule{
		"seen": {
			{Matcher: stamp, Label: "exact"},
			{Matcher: "$span:24h", Label: "recent"},
		},
	}, []string{"seen"})

	// The literal rule is declared first and compares against the
	// stringified value, so it wins over the overlapping span.
	label, ok := table.Translate("user", "seen", stamp, asOf)
	require.True(t, ok)
	assert.Equal(t, "exact", label)
}

func TestTranslate_SpanValueForms(t *testing.T) {
	t.Parallel()
	table := buildTable(t, map[string][]config.Rule{
		"visited_at": {{Matcher: "$span:24h", Label: "today"}},
	}, []string{"visited_at"})

	asOf := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recent := asOf.Add(-2 * time.Hour)

	for _, value := range []any{
		recent,
		recent.Format(time.RFC3339),
		recent.Unix(),
	} {
		label, ok := table.Translate("user", "visited_at", value, asOf)
		require.True(t, ok, "%T", value)
		assert.Equal(t, "today", label)
	}

	// A future timestamp has negative age and never matches a span.
	_, ok := table.Translate("user", "visited_at", asOf.Add(2*time.Hour), asOf)
	assert.False(t, ok)
}

func TestBuild_CollectsBadMatchers(t *testing.T) {
	t.Parallel()
	_, issues := Build(map[string]*config.Model{
		"user": {
			Fields: map[string][]config.Rule{
				"a": {{Matcher: "$span:bad", Label: "x"}},
				"b": {{Matcher: "$span:worse", Label: "y"}},
			},
			FieldOrder: []string{"a", "b"},
		},
	}, []string{"user"})
	require.Len(t, issues, 2)
	assert.Equal(t, "user", issues[0].Model)
}
