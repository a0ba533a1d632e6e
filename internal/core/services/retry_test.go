package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestEmbeddingRetry_SucceedsAfterTransientFailures(t *testing.T) {
	emb := &flakyEmbedder{EmbeddingService: newTestEmbedder(), failures: 2}
	r := EmbeddingRetry{Attempts: 3}

	vecs, err := r.embedBatch(context.Background(), emb, []string{"one", "two"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, emb.calls)
}

func TestEmbeddingRetry_Exhausted(t *testing.T) {
	emb := &flakyEmbedder{EmbeddingService: newTestEmbedder(), failures: 10}
	r := EmbeddingRetry{Attempts: 3}

	_, err := r.embedBatch(context.Background(), emb, []string{"one"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, emb.calls)
}

func TestEmbeddingRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"dimension mismatch", fmt.Errorf("model: %w", domain.ErrDimensionMismatch)},
		{"configuration", domain.ErrConfiguration},
		{"cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := EmbeddingRetry{Attempts: 3}.do(context.Background(), "test", func() error {
				calls++
				return tt.err
			})
			assert.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, domain.ErrEmbeddingFailed)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestEmbeddingRetry_CancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := EmbeddingRetry{Attempts: 3, Delay: time.Hour}.do(ctx, "test", func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestEmbeddingRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := EmbeddingRetry{}.do(context.Background(), "test", func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryFromSettings(t *testing.T) {
	r := RetryFromSettings(domain.DefaultAppSettings().Retry)
	assert.Equal(t, DefaultEmbeddingRetry(), r)
}
