package rules

import (
	"strings"
	"time"
)

// Severity levels a rule or violation may carry.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Rule provenance values.
const (
	SourceExtracted = "extracted-from-document"
	SourceDefault   = "default"
	SourceManual    = "manual"
)

// Rule is one compliance requirement of a scheme. (Scheme, ID) identifies
// it; rules are never mutated in place, re-ingestion appends new entries.
type Rule struct {
	ID          string    `json:"id"`
	Scheme      string    `json:"scheme"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	FieldPath   string    `json:"field_path,omitempty"`
	Example     string    `json:"example,omitempty"`
	Source      string    `json:"source"`
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizeSeverity coerces free-text severity into the three-level enum,
// defaulting to medium.
func NormalizeSeverity(s string) string {
	switch lowered := strings.ToLower(s); lowered {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return lowered
	default:
		return SeverityMedium
	}
}
