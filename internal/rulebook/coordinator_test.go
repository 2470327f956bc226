package rulebook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/payguard/backend/internal/llm"
	"github.com/payguard/backend/internal/rules"
)

type fakeExtractor struct {
	rules      []llm.RuleCandidate
	err        error
	summary    string
	summaryErr error
	calls      int
}

func (f *fakeExtractor) ProposeRules(ctx context.Context, scheme, chunk string) ([]llm.RuleCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rules, nil
}

func (f *fakeExtractor) Summarize(ctx context.Context, text string) (string, error) {
	return f.summary, f.summaryErr
}

func rulebookText() string {
	return strings.Repeat("All SEPA credit transfers must carry a valid purpose code above the reporting threshold. ", 5)
}

func TestIngestRejectsShortText(t *testing.T) {
	coord := NewCoordinator(NewStore(), rules.NewRepository(), nil, 100)

	_, err := coord.Ingest(context.Background(), "SEPA", "short.txt", "too short", 1)
	require.ErrorIs(t, err, ErrInsufficientText)
}

func TestIngestWithoutExtractorUsesDefaults(t *testing.T) {
	store := NewStore()
	repo := rules.NewRepository()
	coord := NewCoordinator(store, repo, nil, 100)

	report, err := coord.Ingest(context.Background(), "sepa", "rules.txt", rulebookText(), 1)
	require.NoError(t, err)

	require.Equal(t, "SEPA", report.Scheme)
	require.Equal(t, rules.SourceDefault, report.Provenance)
	require.Equal(t, len(rules.DefaultRules("SEPA")), report.RulesAdded)
	require.Equal(t, repo.Count(), report.RulesAdded)

	// The source is stored even though extraction was unavailable.
	src, ok := store.Get("SEPA")
	require.True(t, ok)
	require.Equal(t, "rules.txt", src.Filename)
	require.Equal(t, len(rulebookText()), src.TextLength)
}

func TestIngestExtractionFailureDegradesToDefaults(t *testing.T) {
	repo := rules.NewRepository()
	extractor := &fakeExtractor{err: errors.New("model unavailable")}
	coord := NewCoordinator(NewStore(), repo, extractor, 100)

	report, err := coord.Ingest(context.Background(), "SEPA", "rules.txt", rulebookText(), 1)
	require.NoError(t, err, "extraction failure must not fail ingestion")

	require.Equal(t, rules.SourceDefault, report.Provenance)
	require.Equal(t, len(rules.DefaultRules("SEPA")), repo.Count())
}

func TestIngestValidatesCandidates(t *testing.T) {
	repo := rules.NewRepository()
	extractor := &fakeExtractor{
		summary: "Two rules about purpose codes.",
		rules: []llm.RuleCandidate{
			{ID: "AT-X01", Category: "Mandatory Fields", Title: "Purpose Code", Description: "Required above threshold", Severity: "high"},
			{Severity: "catastrophic", Description: "No title or id provided"},
		},
	}
	coord := NewCoordinator(NewStore(), repo, extractor, 100)

	report, err := coord.Ingest(context.Background(), "SEPA", "rules.txt", rulebookText(), 1)
	require.NoError(t, err)

	require.Equal(t, rules.SourceExtracted, report.Provenance)
	require.Equal(t, 2, report.RulesAdded)
	require.Equal(t, "Two rules about purpose codes.", report.Summary)

	require.True(t, repo.Has("SEPA", "AT-X01"))
	require.True(t, repo.Has("SEPA", "SEPA_002"), "missing id is synthesized from the sequence")

	var synthesized rules.Rule
	for _, rule := range repo.All() {
		if rule.ID == "SEPA_002" {
			synthesized = rule
		}
	}
	require.Equal(t, rules.SeverityMedium, synthesized.Severity, "unknown severity coerces to medium")
	require.Equal(t, "Compliance Rule", synthesized.Title)
	require.Equal(t, "General", synthesized.Category)
}

func TestIngestReplacesPriorSource(t *testing.T) {
	store := NewStore()
	coord := NewCoordinator(store, rules.NewRepository(), nil, 100)

	_, err := coord.Ingest(context.Background(), "SEPA", "first.txt", rulebookText(), 1)
	require.NoError(t, err)
	_, err = coord.Ingest(context.Background(), "SEPA", "second.txt", rulebookText()+" Updated.", 2)
	require.NoError(t, err)

	src, ok := store.Get("SEPA")
	require.True(t, ok)
	require.Equal(t, "second.txt", src.Filename)
	require.Equal(t, 1, store.Count())
}

func TestChunkTextRespectsCeilings(t *testing.T) {
	short := "One sentence."
	require.Equal(t, []string{short}, chunkText(short))

	long := strings.Repeat("This clause describes one compliance requirement in detail. ", 600)
	chunks := chunkText(long)
	require.LessOrEqual(t, len(chunks), maxChunks)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), maxChunkChars)
	}
}
