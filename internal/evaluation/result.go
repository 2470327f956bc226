package evaluation

import "time"

// Result status values.
const (
	StatusCompliant    = "compliant"
	StatusNonCompliant = "non-compliant"
)

// Rulebook-source tags attached to every result. The tag records which tier
// of rule material actually produced the findings.
const (
	SourceRuleLibrary     = "rule-library"
	SourceDefaultRulebook = "default-rulebook"
	SourceRuleBased       = "rule-based"
	SourceFallbackRules   = "fallback-rules"
)

// SourceUploaded tags a result produced against an uploaded rulebook document.
func SourceUploaded(filename string) string {
	return "uploaded-document:" + filename
}

// Violation is a single finding against a payment record. Severity is always
// one of high, medium or low after defensive defaulting.
type Violation struct {
	Severity   string `json:"severity"`
	Rule       string `json:"rule"`
	Issue      string `json:"issue"`
	Impact     string `json:"impact"`
	Suggestion string `json:"suggestion"`
	FieldPath  string `json:"field_path,omitempty"`
}

// Result is the outcome of evaluating one payment record.
type Result struct {
	RecordID       string      `json:"record_id"`
	Scheme         string      `json:"scheme"`
	Amount         string      `json:"amount,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	Sender         string      `json:"sender,omitempty"`
	Receiver       string      `json:"receiver,omitempty"`
	Status         string      `json:"status"`
	Violations     []Violation `json:"violations"`
	Confidence     float64     `json:"confidence"`
	RulebookSource string      `json:"rulebook_source"`
	DurationMs     int64       `json:"duration_ms"`
	QueuePosition  int         `json:"queue_position,omitempty"`
	EvaluatedAt    time.Time   `json:"evaluated_at"`
}

// HighestSeverity returns the most severe level present in the result, or an
// empty string for a compliant result.
func (r *Result) HighestSeverity() string {
	rank := map[string]int{"low": 1, "medium": 2, "high": 3}
	best := ""
	for _, v := range r.Violations {
		if rank[v.Severity] > rank[best] {
			best = v.Severity
		}
	}
	return best
}
