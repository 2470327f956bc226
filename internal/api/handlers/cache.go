package handlers

import (
	"context"

	"github.com/payguard/backend/internal/cache/redis"
	"github.com/payguard/backend/internal/evaluation"
)

// ResultCache stores evaluation results keyed by scheme and record hash.
// Implementations must drop a scheme's entries when its rules change.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*evaluation.Result, bool, error)
	SetResult(ctx context.Context, key string, result *evaluation.Result) error
	InvalidateScheme(ctx context.Context, scheme string) error
}

var _ ResultCache = (*redis.Client)(nil)
