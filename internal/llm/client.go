package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/pkg/circuitbreaker"
	"github.com/payguard/backend/pkg/logger"
	"github.com/payguard/backend/pkg/retry"
)

// Input-size ceilings for prompt material. Rulebook text beyond these limits
// is truncated by the caller before it reaches the wire.
const (
	maxRuleTextChars = 8000
)

// ViolationCandidate is one violation proposed by the model, before
// defensive defaulting by the evaluator.
type ViolationCandidate struct {
	Severity   string `json:"severity"`
	Rule       string `json:"rule"`
	Issue      string `json:"issue"`
	Impact     string `json:"impact"`
	Suggestion string `json:"suggestion"`
	FieldPath  string `json:"field_path,omitempty"`
}

// RuleCandidate is one rule proposed by the model during rulebook
// extraction, before validation by the ingestion coordinator.
type RuleCandidate struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	FieldPath   string `json:"field_path,omitempty"`
	Example     string `json:"example,omitempty"`
}

type violationsEnvelope struct {
	Violations []ViolationCandidate `json:"violations"`
}

type rulesEnvelope struct {
	Rules []RuleCandidate `json:"rules"`
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

// NewClient builds the reasoning client. A nil client (no API key) means the
// collaborator is disabled and callers fall back deterministically.
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		logger.Warn("Reasoning collaborator disabled: no API key configured")
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Reasoning client initialized", zap.String("model", cfg.Model))

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			logger.Debug("Completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			content = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return "", err
	}

	return content, nil
}

// ProposeViolations asks the model for violations of the record against the
// given rule text. The response must satisfy the violations schema exactly;
// anything else is an error the evaluator treats as an extraction failure.
func (c *Client) ProposeViolations(ctx context.Context, scheme, ruleText string, record *payment.CanonicalPaymentRecord) ([]ViolationCandidate, error) {
	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	systemPrompt := "You are a payment compliance analyst. Analyze payments with precision against rulebook requirements."

	userPrompt := fmt.Sprintf(`Analyze this %s payment against the rulebook:

RULEBOOK:
%s

PAYMENT:
%s

Find violations and provide detailed analysis. For each violation identify
severity (high: payment rejected, medium: delays, low: advisory), reference
the specific rule, describe the exact issue with actual values, explain the
business impact, and provide an actionable fix.

Return JSON:
{
  "violations": [
    {
      "severity": "high|medium|low",
      "rule": "specific rule reference",
      "issue": "what is wrong",
      "impact": "business impact",
      "suggestion": "how to fix",
      "field_path": "record field path if applicable"
    }
  ]
}

If compliant, return an empty violations array.`, scheme, truncate(ruleText, maxRuleTextChars), recordJSON)

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0.2, true)
	if err != nil {
		return nil, err
	}

	var envelope violationsEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &envelope); err != nil {
		return nil, fmt.Errorf("violation response failed schema validation: %w", err)
	}

	logger.Debug("Violations proposed",
		zap.String("scheme", scheme),
		zap.Int("count", len(envelope.Violations)),
	)

	return envelope.Violations, nil
}

// ProposeRules asks the model to extract structured compliance rules from a
// chunk of rulebook text.
func (c *Client) ProposeRules(ctx context.Context, scheme, chunk string) ([]RuleCandidate, error) {
	systemPrompt := "You are a payment compliance expert. Extract clear, structured rules from scheme rulebooks."

	userPrompt := fmt.Sprintf(`Extract compliance rules from this %s payment scheme rulebook.

RULEBOOK TEXT:
%s

Look for mandatory field requirements, field format rules, validation rules,
amount ranges and limits, and code restrictions. For each rule provide a
unique id (e.g. %s_001), a category, a brief title, the detailed rule text,
a severity (high if mandatory or causes rejection, medium for format issues,
low for advisory), the record field path if mentioned, and an example
violation scenario.

Return JSON:
{
  "rules": [
    {
      "id": "string",
      "category": "string",
      "title": "string",
      "description": "string",
      "severity": "high|medium|low",
      "field_path": "string",
      "example": "string"
    }
  ]
}

Extract 5-12 key rules.`, scheme, chunk, scheme)

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0.1, true)
	if err != nil {
		return nil, err
	}

	var envelope rulesEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &envelope); err != nil {
		return nil, fmt.Errorf("rule response failed schema validation: %w", err)
	}

	logger.Debug("Rules proposed",
		zap.String("scheme", scheme),
		zap.Int("count", len(envelope.Rules)),
	)

	return envelope.Rules, nil
}

// Summarize produces a short plain-text summary of rulebook text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	systemPrompt := `You are a payment scheme expert. Generate a concise 2-3 sentence summary of the given rulebook text. Focus on the scheme, the main rule categories, and notable limits.`

	userPrompt := fmt.Sprintf("Summarize this payment scheme rulebook:\n\n%s", truncate(text, 4000))

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0.3, false)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}

	return strings.TrimSpace(content), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
