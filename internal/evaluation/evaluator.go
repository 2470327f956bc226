package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/payguard/backend/internal/llm"
	"github.com/payguard/backend/internal/metrics"
	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/internal/rulebook"
	"github.com/payguard/backend/internal/rules"
	"github.com/payguard/backend/pkg/config"
	"github.com/payguard/backend/pkg/logger"
)

// ErrEvaluation is returned when a record cannot be evaluated at all. The
// deterministic fallback absorbs almost everything, so this only surfaces on
// unusable input.
var ErrEvaluation = errors.New("compliance evaluation failed")

// Reasoner is the external reasoning collaborator used for violation
// analysis. A nil Reasoner means analysis runs deterministically.
type Reasoner interface {
	ProposeViolations(ctx context.Context, scheme, ruleText string, record *payment.CanonicalPaymentRecord) ([]llm.ViolationCandidate, error)
}

// Evaluator checks canonical payment records against the best available rule
// source for their scheme.
type Evaluator struct {
	repo     *rules.Repository
	sources  *rulebook.Store
	reasoner Reasoner
	policy   config.ComplianceConfig

	sepaThreshold payment.Amount
}

func NewEvaluator(repo *rules.Repository, sources *rulebook.Store, reasoner Reasoner, policy config.ComplianceConfig) (*Evaluator, error) {
	threshold, err := payment.ParseAmount(policy.SEPAThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid SEPA threshold %q: %w", policy.SEPAThreshold, err)
	}

	return &Evaluator{
		repo:          repo,
		sources:       sources,
		reasoner:      reasoner,
		policy:        policy,
		sepaThreshold: threshold,
	}, nil
}

// Evaluate runs the record through the reasoning collaborator when one is
// configured, and through the deterministic scheme checks otherwise. A
// collaborator failure degrades to the deterministic checks and is recorded
// in the result's source tag.
func (e *Evaluator) Evaluate(ctx context.Context, record *payment.CanonicalPaymentRecord) (*Result, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", ErrEvaluation)
	}

	start := time.Now()

	scheme := record.Scheme
	if scheme == "" {
		scheme = "SEPA"
	}

	ruleText, sourceTag, confidence := e.selectRuleSource(scheme)

	var violations []Violation

	switch {
	case e.reasoner != nil && ruleText != "":
		candidates, err := e.reasoner.ProposeViolations(ctx, scheme, ruleText, record)
		if err != nil {
			logger.Warn("Reasoning collaborator failed, using deterministic checks",
				zap.String("scheme", scheme),
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
			metrics.ExtractionFailures.Inc()

			violations = e.deterministicChecks(scheme, record)
			sourceTag = SourceFallbackRules
			confidence = e.policy.ConfidenceFallback
		} else {
			violations = harden(candidates)
		}
	default:
		// No reasoner ran, so the selected rule material was never
		// consulted. The findings come from the built-in checks and the
		// result must say so, at the matching confidence tier.
		violations = e.deterministicChecks(scheme, record)
		if sourceTag != SourceRuleBased {
			sourceTag = SourceDefaultRulebook
			confidence = e.policy.ConfidenceDefault
		}
	}

	status := StatusCompliant
	if len(violations) > 0 {
		status = StatusNonCompliant
	}

	result := &Result{
		RecordID:       record.ID,
		Scheme:         scheme,
		Amount:         record.Amount,
		Currency:       record.Currency,
		Sender:         record.SenderRef(),
		Receiver:       record.ReceiverRef(),
		Status:         status,
		Violations:     violations,
		Confidence:     confidence,
		RulebookSource: sourceTag,
		DurationMs:     time.Since(start).Milliseconds(),
		EvaluatedAt:    time.Now().UTC(),
	}

	metrics.ValidationDuration.WithLabelValues(scheme).Observe(time.Since(start).Seconds())
	metrics.ValidationsTotal.WithLabelValues(scheme, status).Inc()
	metrics.RuleSourceUsed.WithLabelValues(sourceLabel(sourceTag)).Inc()
	for _, v := range violations {
		metrics.ViolationsFound.WithLabelValues(v.Severity).Inc()
	}

	return result, nil
}

// selectRuleSource picks the rule material for a scheme in trust order:
// uploaded document, then curated repository rules, then the built-in
// default text.
func (e *Evaluator) selectRuleSource(scheme string) (ruleText, sourceTag string, confidence float64) {
	if src, ok := e.sources.Get(scheme); ok {
		return src.Text, SourceUploaded(src.Filename), e.policy.ConfidenceUploaded
	}

	if len(e.repo.Get(scheme)) > 0 {
		return e.repo.RenderText(scheme), SourceRuleLibrary, e.policy.ConfidenceRuleLibrary
	}

	if text := rules.DefaultRulebookText(scheme); text != "" {
		return text, SourceDefaultRulebook, e.policy.ConfidenceDefault
	}

	// Unknown scheme with no curated material at all.
	return "", SourceRuleBased, e.policy.ConfidenceFallback
}

// harden applies defensive defaults to collaborator output so a partially
// populated candidate never yields an invalid violation.
func harden(candidates []llm.ViolationCandidate) []Violation {
	violations := make([]Violation, 0, len(candidates))
	for _, c := range candidates {
		v := Violation{
			Severity:   rules.NormalizeSeverity(c.Severity),
			Rule:       c.Rule,
			Issue:      c.Issue,
			Impact:     c.Impact,
			Suggestion: c.Suggestion,
			FieldPath:  c.FieldPath,
		}
		if v.Rule == "" {
			v.Rule = "Rulebook requirement"
		}
		if v.Issue == "" {
			v.Issue = "Compliance issue detected"
		}
		if v.Impact == "" {
			v.Impact = "May cause processing issues"
		}
		if v.Suggestion == "" {
			v.Suggestion = "Review payment details"
		}
		violations = append(violations, v)
	}
	return violations
}

func sourceLabel(tag string) string {
	if i := strings.IndexByte(tag, ':'); i > 0 {
		return tag[:i]
	}
	return tag
}
