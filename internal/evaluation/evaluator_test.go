package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payguard/backend/internal/llm"
	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/internal/rulebook"
	"github.com/payguard/backend/internal/rules"
	"github.com/payguard/backend/pkg/config"
)

func testPolicy() config.ComplianceConfig {
	return config.ComplianceConfig{
		ConfidenceUploaded:    99.5,
		ConfidenceRuleLibrary: 99.3,
		ConfidenceDefault:     99.0,
		ConfidenceFallback:    98.5,
		SEPAThreshold:         "12500.00",
		RemittanceMaxChars:    140,
		MinRulebookChars:      100,
	}
}

type fakeReasoner struct {
	violations []llm.ViolationCandidate
	err        error
	calls      int
}

func (f *fakeReasoner) ProposeViolations(ctx context.Context, scheme, ruleText string, record *payment.CanonicalPaymentRecord) ([]llm.ViolationCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.violations, nil
}

func newTestEvaluator(t *testing.T, reasoner Reasoner) (*Evaluator, *rules.Repository, *rulebook.Store) {
	t.Helper()
	repo := rules.NewRepository()
	store := rulebook.NewStore()
	eval, err := NewEvaluator(repo, store, reasoner, testPolicy())
	require.NoError(t, err)
	return eval, repo, store
}

func sepaRecord(amount string) *payment.CanonicalPaymentRecord {
	return &payment.CanonicalPaymentRecord{
		ID:       "PAY-1",
		Scheme:   "SEPA",
		Amount:   amount,
		Currency: "EUR",
	}
}

func TestHighValueTransferWithoutPurposeCode(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	result, err := eval.Evaluate(context.Background(), sepaRecord("15000"))
	require.NoError(t, err)

	require.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Violations, 1)
	require.Equal(t, "high", result.Violations[0].Severity)
	require.Equal(t, SourceDefaultRulebook, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceDefault, result.Confidence)
}

func TestThresholdBoundaryIsCompliant(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	result, err := eval.Evaluate(context.Background(), sepaRecord("12500.00"))
	require.NoError(t, err)
	require.Equal(t, StatusCompliant, result.Status)
	require.Empty(t, result.Violations)
}

func TestPurposeCodeSatisfiesThresholdCheck(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	record := sepaRecord("15000")
	record.PurposeCode = "SALA"

	result, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, StatusCompliant, result.Status)
}

func TestDeterministicChecksAreRepeatable(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	record := sepaRecord("99999.99")
	record.Currency = "USD"

	first, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	second, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)

	require.Equal(t, first.Violations, second.Violations)
	require.Equal(t, first.Status, second.Status)
}

func TestRuleSourcePriority(t *testing.T) {
	reasoner := &fakeReasoner{}
	eval, repo, store := newTestEvaluator(t, reasoner)
	record := sepaRecord("100.00")

	// No uploaded source, no repository rules: built-in default text.
	result, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, SourceDefaultRulebook, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceDefault, result.Confidence)

	// Repository rules outrank defaults.
	repo.Add(rules.Rule{ID: "R1", Scheme: "SEPA", Category: "General", Title: "T", Description: "D", Severity: "high"})
	result, err = eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, SourceRuleLibrary, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceRuleLibrary, result.Confidence)

	// An uploaded document outranks everything.
	store.Put(rulebook.Source{Scheme: "SEPA", Text: "uploaded rule text", Filename: "sepa-2024.pdf", UploadedAt: time.Now()})
	result, err = eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, SourceUploaded("sepa-2024.pdf"), result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceUploaded, result.Confidence)
}

func TestDisabledReasonerAlwaysTagsDefaultRulebook(t *testing.T) {
	eval, repo, store := newTestEvaluator(t, nil)
	record := sepaRecord("15000")

	// Library rules exist but nothing consulted them.
	repo.Add(rules.Rule{ID: "R1", Scheme: "SEPA", Category: "General", Title: "T", Description: "D", Severity: "high"})
	result, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, SourceDefaultRulebook, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceDefault, result.Confidence)

	// Same for an uploaded document: its tag and confidence belong to
	// reasoner-backed results only.
	store.Put(rulebook.Source{Scheme: "SEPA", Text: "uploaded rule text", Filename: "sepa.pdf", UploadedAt: time.Now()})
	result, err = eval.Evaluate(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, SourceDefaultRulebook, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceDefault, result.Confidence)
	require.Equal(t, StatusNonCompliant, result.Status)
}

func TestReasonerFailureFallsBackDeterministically(t *testing.T) {
	reasoner := &fakeReasoner{err: errors.New("model timeout")}
	eval, _, _ := newTestEvaluator(t, reasoner)

	result, err := eval.Evaluate(context.Background(), sepaRecord("15000"))
	require.NoError(t, err, "reasoner failure must not fail the evaluation")

	require.Equal(t, SourceFallbackRules, result.RulebookSource)
	require.Equal(t, testPolicy().ConfidenceFallback, result.Confidence)
	require.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Violations, 1)
	require.Equal(t, 1, reasoner.calls)
}

func TestReasonerOutputIsDefensivelyDefaulted(t *testing.T) {
	reasoner := &fakeReasoner{
		violations: []llm.ViolationCandidate{
			{Severity: "", Rule: "", Issue: "", Impact: "", Suggestion: ""},
			{Severity: "HIGH", Rule: "AT-T001", Issue: "IBAN invalid", Impact: "Rejected", Suggestion: "Fix the IBAN"},
		},
	}
	eval, _, _ := newTestEvaluator(t, reasoner)

	result, err := eval.Evaluate(context.Background(), sepaRecord("100.00"))
	require.NoError(t, err)
	require.Len(t, result.Violations, 2)

	defaulted := result.Violations[0]
	require.Equal(t, "medium", defaulted.Severity)
	require.Equal(t, "Rulebook requirement", defaulted.Rule)
	require.Equal(t, "Compliance issue detected", defaulted.Issue)
	require.Equal(t, "May cause processing issues", defaulted.Impact)
	require.Equal(t, "Review payment details", defaulted.Suggestion)

	require.Equal(t, "high", result.Violations[1].Severity)
}

func TestReasonerCompliantOutcome(t *testing.T) {
	reasoner := &fakeReasoner{}
	eval, _, _ := newTestEvaluator(t, reasoner)

	result, err := eval.Evaluate(context.Background(), sepaRecord("15000"))
	require.NoError(t, err)

	// The reasoner saw the full rule text and found nothing; the
	// deterministic checks do not run on top of it.
	require.Equal(t, StatusCompliant, result.Status)
	require.Equal(t, 1, reasoner.calls)
}

func TestSchemeSpecificFallbackChecks(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	chaps := &payment.CanonicalPaymentRecord{ID: "P1", Scheme: "CHAPS", Amount: "100", Currency: "EUR"}
	result, err := eval.Evaluate(context.Background(), chaps)
	require.NoError(t, err)
	require.Equal(t, StatusNonCompliant, result.Status)

	six := &payment.CanonicalPaymentRecord{
		ID: "P2", Scheme: "SIX", Amount: "100", Currency: "CHF",
		CreditorReferenceType: "QRR", CreditorReference: "too-short",
	}
	result, err = eval.Evaluate(context.Background(), six)
	require.NoError(t, err)
	require.Equal(t, StatusNonCompliant, result.Status)

	mt103 := &payment.CanonicalPaymentRecord{ID: "P3", Scheme: "SWIFT_MT103", Amount: "100"}
	result, err = eval.Evaluate(context.Background(), mt103)
	require.NoError(t, err)
	require.Len(t, result.Violations, 2, "missing ordering customer and beneficiary")
}

func TestPacs008StructuralChecksAreGatedOnMessageType(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	partial := sepaRecord("100.00")
	result, err := eval.Evaluate(context.Background(), partial)
	require.NoError(t, err)
	require.Equal(t, StatusCompliant, result.Status, "field-map records skip structural checks")

	wire := sepaRecord("100.00")
	wire.MessageType = "PACS.008"
	result, err = eval.Evaluate(context.Background(), wire)
	require.NoError(t, err)
	require.Equal(t, StatusNonCompliant, result.Status)
	require.Len(t, result.Violations, 3, "missing debtor IBAN, creditor IBAN and end-to-end id")
}

func TestUnknownSchemeYieldsRuleBasedTag(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	record := &payment.CanonicalPaymentRecord{ID: "P1", Scheme: "FEDWIRE", Amount: "100"}
	result, err := eval.Evaluate(context.Background(), record)
	require.NoError(t, err)

	require.Equal(t, SourceRuleBased, result.RulebookSource)
	require.Equal(t, StatusCompliant, result.Status, "no checks exist for an unknown scheme")
}

func TestEvaluateNilRecord(t *testing.T) {
	eval, _, _ := newTestEvaluator(t, nil)

	_, err := eval.Evaluate(context.Background(), nil)
	require.ErrorIs(t, err, ErrEvaluation)
}

func TestConfidenceOrderingInvariant(t *testing.T) {
	policy := testPolicy()
	require.Greater(t, policy.ConfidenceUploaded, policy.ConfidenceRuleLibrary)
	require.Greater(t, policy.ConfidenceRuleLibrary, policy.ConfidenceDefault)
	require.Greater(t, policy.ConfidenceDefault, policy.ConfidenceFallback)

	_, err := NewEvaluator(rules.NewRepository(), rulebook.NewStore(), nil, config.ComplianceConfig{SEPAThreshold: "not-a-number"})
	require.Error(t, err)
}
