package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// DocumentService lists documents available in the configured source.
type DocumentService interface {
	// List returns the folder's documents annotated with their index state.
	List(ctx context.Context) ([]domain.DocumentInfo, error)
}
