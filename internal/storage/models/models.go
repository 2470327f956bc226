package models

import "time"

// ValidationRecord is one persisted compliance evaluation outcome. The
// violations list is stored as JSON; the row is the audit trail, the queue
// counters remain the statistics source of truth.
type ValidationRecord struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	BatchID        string    `json:"batch_id,omitempty"`
	RecordID       string    `json:"record_id"`
	Scheme         string    `json:"scheme"`
	Status         string    `json:"status"`
	Amount         string    `json:"amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	ViolationCount int       `json:"violation_count"`
	ViolationsJSON string    `json:"violations_json,omitempty"`
	Confidence     float64   `json:"confidence"`
	RulebookSource string    `json:"rulebook_source"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// IngestionRecord is one persisted rulebook ingestion event.
type IngestionRecord struct {
	ID         string    `json:"id"`
	Scheme     string    `json:"scheme"`
	Filename   string    `json:"filename"`
	TextLength int       `json:"text_length"`
	Pages      int       `json:"pages"`
	RulesAdded int       `json:"rules_added"`
	RuleSource string    `json:"rule_source"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
