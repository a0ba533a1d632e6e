package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// EmbeddingRetry bounds how often embedding generation is attempted.
type EmbeddingRetry struct {
	Attempts int
	Delay    time.Duration
}

// DefaultEmbeddingRetry returns 3 attempts spaced 2 seconds apart.
func DefaultEmbeddingRetry() EmbeddingRetry {
	return EmbeddingRetry{Attempts: 3, Delay: 2 * time.Second}
}

// RetryFromSettings converts the configured retry settings.
func RetryFromSettings(s domain.RetrySettings) EmbeddingRetry {
	return EmbeddingRetry{Attempts: s.Attempts, Delay: s.Delay}
}

// embedBatch embeds texts, retrying transient failures.
func (r EmbeddingRetry) embedBatch(
	ctx context.Context, svc driven.EmbeddingService, texts []string,
) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, "embed batch", func() error {
		var err error
		out, err = svc.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// embed embeds a single text, retrying transient failures.
func (r EmbeddingRetry) embed(ctx context.Context, svc driven.EmbeddingService, text string) ([]float32, error) {
	var out []float32
	err := r.do(ctx, "embed query", func() error {
		var err error
		out, err = svc.Embed(ctx, text)
		return err
	})
	return out, err
}

func (r EmbeddingRetry) do(ctx context.Context, label string, fn func() error) error {
	attempts := max(r.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		logger.Warn("%s: attempt %d/%d failed: %v", label, attempt, attempts, lastErr)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(r.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w: after %d attempts: %w", domain.ErrEmbeddingFailed, attempts, lastErr)
}

// retryable is false for cancellation and configuration errors.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrDimensionMismatch), errors.Is(err, domain.ErrConfiguration):
		return false
	default:
		return true
	}
}
