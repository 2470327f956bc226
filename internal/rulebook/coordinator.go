package rulebook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/payguard/backend/internal/llm"
	"github.com/payguard/backend/internal/metrics"
	"github.com/payguard/backend/internal/rules"
	"github.com/payguard/backend/pkg/logger"
)

// ErrInsufficientText rejects rulebook uploads whose extracted text is too
// short to be usable. This is the only hard failure of ingestion; extraction
// problems degrade to default rules instead.
var ErrInsufficientText = errors.New("rulebook text too short to be usable")

const currentRulebookVersion = "v2024.1"

// RuleExtractor is the external reasoning collaborator as the coordinator
// sees it. Implementations may fail or time out; the coordinator recovers.
type RuleExtractor interface {
	ProposeRules(ctx context.Context, scheme, chunk string) ([]llm.RuleCandidate, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// IngestReport describes what one ingestion did.
type IngestReport struct {
	Scheme     string `json:"scheme"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	TextLength int    `json:"text_length"`
	RulesAdded int    `json:"rules_added"`
	Provenance string `json:"provenance"`
	Summary    string `json:"summary,omitempty"`
}

// Coordinator turns raw rulebook text into a stored source plus structured
// rules in the repository.
type Coordinator struct {
	store     *Store
	repo      *rules.Repository
	extractor RuleExtractor
	minChars  int
}

func NewCoordinator(store *Store, repo *rules.Repository, extractor RuleExtractor, minChars int) *Coordinator {
	if minChars <= 0 {
		minChars = 100
	}
	return &Coordinator{
		store:     store,
		repo:      repo,
		extractor: extractor,
		minChars:  minChars,
	}
}

// Ingest stores the rulebook text as the scheme's source (replacing any
// prior one) and populates the rule repository, degrading to the scheme's
// default rule set when extraction is unavailable or fails.
func (c *Coordinator) Ingest(ctx context.Context, scheme, filename, text string, pages int) (*IngestReport, error) {
	scheme = strings.ToUpper(scheme)

	if len(text) < c.minChars {
		return nil, fmt.Errorf("%w: got %d characters, need %d", ErrInsufficientText, len(text), c.minChars)
	}

	summary := c.summarize(ctx, text)

	c.store.Put(Source{
		Scheme:     scheme,
		Text:       text,
		Filename:   filename,
		UploadedAt: time.Now(),
		Pages:      pages,
		TextLength: len(text),
		Version:    currentRulebookVersion,
		Summary:    summary,
	})

	added, provenance := c.extractRules(ctx, scheme, text)
	for _, rule := range added {
		c.repo.Add(rule)
	}

	metrics.RulebooksIngested.Inc()
	logger.Info("Rulebook ingested",
		zap.String("scheme", scheme),
		zap.String("filename", filename),
		zap.Int("text_length", len(text)),
		zap.Int("rules_added", len(added)),
		zap.String("provenance", provenance),
	)

	return &IngestReport{
		Scheme:     scheme,
		Filename:   filename,
		Pages:      pages,
		TextLength: len(text),
		RulesAdded: len(added),
		Provenance: provenance,
		Summary:    summary,
	}, nil
}

func (c *Coordinator) summarize(ctx context.Context, text string) string {
	if c.extractor == nil {
		return ""
	}
	summary, err := c.extractor.Summarize(ctx, text)
	if err != nil {
		logger.Warn("Rulebook summary unavailable", zap.Error(err))
		return ""
	}
	return summary
}

// extractRules runs chunked extraction and validates every candidate. Any
// failure path lands on the scheme's default rule set.
func (c *Coordinator) extractRules(ctx context.Context, scheme, text string) ([]rules.Rule, string) {
	if c.extractor == nil {
		return rules.DefaultRules(scheme), rules.SourceDefault
	}

	var candidates []llm.RuleCandidate
	for i, chunk := range chunkText(text) {
		proposed, err := c.extractor.ProposeRules(ctx, scheme, chunk)
		if err != nil {
			logger.Warn("Rule extraction failed for chunk",
				zap.String("scheme", scheme),
				zap.Int("chunk", i+1),
				zap.Error(err),
			)
			metrics.ExtractionFailures.Inc()
			continue
		}
		candidates = append(candidates, proposed...)
	}

	if len(candidates) == 0 {
		logger.Warn("No rules extracted, falling back to defaults", zap.String("scheme", scheme))
		return rules.DefaultRules(scheme), rules.SourceDefault
	}

	now := time.Now()
	out := make([]rules.Rule, 0, len(candidates))
	for i, cand := range candidates {
		out = append(out, validateCandidate(scheme, cand, i+1, now))
	}
	return out, rules.SourceExtracted
}

// validateCandidate coerces a model-proposed rule into a well-formed Rule:
// severity lands in the enum, missing text gets deterministic defaults, and
// a sequence id is synthesized when the model gave none.
func validateCandidate(scheme string, cand llm.RuleCandidate, seq int, now time.Time) rules.Rule {
	id := strings.TrimSpace(cand.ID)
	if id == "" {
		id = fmt.Sprintf("%s_%03d", scheme, seq)
	}

	title := strings.TrimSpace(cand.Title)
	if title == "" {
		title = "Compliance Rule"
	}

	category := strings.TrimSpace(cand.Category)
	if category == "" {
		category = "General"
	}

	return rules.Rule{
		ID:          id,
		Scheme:      scheme,
		Category:    category,
		Title:       title,
		Description: strings.TrimSpace(cand.Description),
		Severity:    rules.NormalizeSeverity(cand.Severity),
		FieldPath:   strings.TrimSpace(cand.FieldPath),
		Example:     strings.TrimSpace(cand.Example),
		Source:      rules.SourceExtracted,
		Version:     currentRulebookVersion,
		CreatedAt:   now,
	}
}
