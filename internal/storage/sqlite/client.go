package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/internal/storage/models"
	"github.com/payguard/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS validation_history (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		batch_id TEXT,
		record_id TEXT NOT NULL,
		scheme TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT,
		currency TEXT,
		violation_count INTEGER NOT NULL DEFAULT 0,
		violations TEXT,
		confidence REAL,
		rulebook_source TEXT,
		duration_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_validation_scheme ON validation_history(scheme);
	CREATE INDEX IF NOT EXISTS idx_validation_job ON validation_history(job_id);
	CREATE INDEX IF NOT EXISTS idx_validation_created ON validation_history(created_at);

	CREATE TABLE IF NOT EXISTS ingestion_history (
		id TEXT PRIMARY KEY,
		scheme TEXT NOT NULL,
		filename TEXT NOT NULL,
		text_length INTEGER NOT NULL,
		pages INTEGER,
		rules_added INTEGER NOT NULL,
		rule_source TEXT NOT NULL,
		summary TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ingestion_scheme ON ingestion_history(scheme);
	CREATE INDEX IF NOT EXISTS idx_ingestion_created ON ingestion_history(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveResult persists a completed evaluation. It satisfies the queue's
// result sink contract.
func (c *Client) SaveResult(ctx context.Context, jobID, batchID string, result *evaluation.Result) error {
	violationsJSON, err := json.Marshal(result.Violations)
	if err != nil {
		return fmt.Errorf("failed to marshal violations: %w", err)
	}

	query := `
		INSERT INTO validation_history (id, job_id, batch_id, record_id, scheme, status, amount, currency,
			violation_count, violations, confidence, rulebook_source, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(
		ctx,
		query,
		uuid.NewString(),
		jobID,
		batchID,
		result.RecordID,
		result.Scheme,
		result.Status,
		result.Amount,
		result.Currency,
		len(result.Violations),
		string(violationsJSON),
		result.Confidence,
		result.RulebookSource,
		result.DurationMs,
		result.EvaluatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert validation record: %w", err)
	}

	logger.Debug("Validation recorded",
		zap.String("job_id", jobID),
		zap.String("status", result.Status),
	)

	return nil
}

func (c *Client) GetValidationHistory(scheme string, limit int) ([]models.ValidationRecord, error) {
	query := `
		SELECT id, job_id, batch_id, record_id, scheme, status, amount, currency,
			violation_count, violations, confidence, rulebook_source, duration_ms, created_at
		FROM validation_history
	`
	args := []interface{}{}
	if scheme != "" {
		query += " WHERE scheme = ?"
		args = append(args, scheme)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get validation history: %w", err)
	}
	defer rows.Close()

	var records []models.ValidationRecord
	for rows.Next() {
		var r models.ValidationRecord
		var batchID, amount, currency, violations, source sql.NullString
		var createdAt int64

		err := rows.Scan(&r.ID, &r.JobID, &batchID, &r.RecordID, &r.Scheme, &r.Status,
			&amount, &currency, &r.ViolationCount, &violations, &r.Confidence, &source,
			&r.DurationMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.BatchID = batchID.String
		r.Amount = amount.String
		r.Currency = currency.String
		r.ViolationsJSON = violations.String
		r.RulebookSource = source.String
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) RecordIngestion(record *models.IngestionRecord) error {
	query := `
		INSERT INTO ingestion_history (id, scheme, filename, text_length, pages, rules_added, rule_source, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := c.db.Exec(
		query,
		id,
		record.Scheme,
		record.Filename,
		record.TextLength,
		record.Pages,
		record.RulesAdded,
		record.RuleSource,
		record.Summary,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert ingestion record: %w", err)
	}

	logger.Info("Ingestion recorded",
		zap.String("scheme", record.Scheme),
		zap.String("filename", record.Filename),
		zap.Int("rules_added", record.RulesAdded),
	)

	return nil
}

func (c *Client) GetIngestionHistory(limit int) ([]models.IngestionRecord, error) {
	query := `
		SELECT id, scheme, filename, text_length, pages, rules_added, rule_source, summary, created_at
		FROM ingestion_history
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingestion history: %w", err)
	}
	defer rows.Close()

	var records []models.IngestionRecord
	for rows.Next() {
		var r models.IngestionRecord
		var summary sql.NullString
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Scheme, &r.Filename, &r.TextLength, &r.Pages,
			&r.RulesAdded, &r.RuleSource, &summary, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Summary = summary.String
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}
