package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeRule(scheme, category, id string) Rule {
	return Rule{
		ID:          id,
		Scheme:      scheme,
		Category:    category,
		Title:       "Title " + id,
		Description: "Description " + id,
		Severity:    SeverityHigh,
		Source:      SourceManual,
	}
}

func TestRepositoryAddAndGet(t *testing.T) {
	repo := NewRepository()
	repo.Add(makeRule("sepa", "Mandatory Fields", "R1"))
	repo.Add(makeRule("SEPA", "Mandatory Fields", "R2"))
	repo.Add(makeRule("SEPA", "", "R3"))

	got := repo.Get("sepa")
	require.Len(t, got["Mandatory Fields"], 2)
	require.Len(t, got["General"], 1, "empty category defaults to General")
	require.Equal(t, 3, repo.Count())

	require.True(t, repo.Has("SEPA", "R1"))
	require.False(t, repo.Has("SEPA", "R9"))
	require.Nil(t, repo.Get("CHAPS"))
}

func TestRepositoryGetReturnsSnapshot(t *testing.T) {
	repo := NewRepository()
	repo.Add(makeRule("SEPA", "General", "R1"))

	snapshot := repo.Get("SEPA")
	repo.Add(makeRule("SEPA", "General", "R2"))

	require.Len(t, snapshot["General"], 1, "later ingestion must not mutate an earlier snapshot")
	require.Len(t, repo.Get("SEPA")["General"], 2)
}

func TestRepositoryAllIsOrdered(t *testing.T) {
	repo := NewRepository()
	repo.Add(makeRule("SWIFT_MT103", "General", "M1"))
	repo.Add(makeRule("CHAPS", "General", "C1"))
	repo.Add(makeRule("CHAPS", "Amounts", "C2"))

	all := repo.All()
	require.Len(t, all, 3)
	require.Equal(t, "C2", all[0].ID, "schemes then categories sort alphabetically")
	require.Equal(t, "C1", all[1].ID)
	require.Equal(t, "M1", all[2].ID)
}

func TestRepositoryDeleteScheme(t *testing.T) {
	repo := NewRepository()
	repo.Add(makeRule("SEPA", "General", "R1"))
	repo.Add(makeRule("CHAPS", "General", "C1"))

	repo.DeleteScheme("sepa")

	require.Nil(t, repo.Get("SEPA"))
	require.Equal(t, []string{"CHAPS"}, repo.Schemes())
}

func TestRenderTextIsDeterministic(t *testing.T) {
	repo := NewRepository()
	repo.Add(makeRule("SEPA", "Mandatory Fields", "R1"))
	repo.Add(makeRule("SEPA", "Amount Validation", "R2"))
	repo.Add(makeRule("SEPA", "Mandatory Fields", "R3"))

	first := repo.RenderText("SEPA")
	second := repo.RenderText("SEPA")
	require.Equal(t, first, second)

	require.Contains(t, first, "SEPA Compliance Rules")
	require.Contains(t, first, "[R1] Title R1 (high)")
	require.Less(t, indexOf(t, first, "Amount Validation"), indexOf(t, first, "Mandatory Fields"))

	require.Empty(t, repo.RenderText("CHAPS"))
}

func TestDefaultRulesKnownSchemes(t *testing.T) {
	sepa := DefaultRules("SEPA")
	require.NotEmpty(t, sepa)
	for _, rule := range sepa {
		require.Equal(t, "SEPA", rule.Scheme)
		require.Equal(t, SourceDefault, rule.Source)
		require.Contains(t, []string{SeverityHigh, SeverityMedium, SeverityLow}, rule.Severity)
	}

	require.Empty(t, DefaultRules("UNKNOWN"))
	require.NotEmpty(t, DefaultRulebookText("SEPA"))
	require.Empty(t, DefaultRulebookText("UNKNOWN"))
}

func TestNormalizeSeverity(t *testing.T) {
	require.Equal(t, SeverityHigh, NormalizeSeverity("HIGH"))
	require.Equal(t, SeverityLow, NormalizeSeverity("low"))
	require.Equal(t, SeverityMedium, NormalizeSeverity(""))
	require.Equal(t, SeverityMedium, NormalizeSeverity("critical"))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found", needle)
	return idx
}
