package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// IngestService builds and maintains the persisted similarity index.
type IngestService interface {
	// IngestAll indexes docs into a fresh index that replaces the persisted one.
	// Per-document failures are reported in the result; the call fails only on
	// configuration errors, cancellation, or when nothing could be indexed.
	IngestAll(ctx context.Context, docs []domain.DocumentRef) (*domain.IngestResult, error)

	// IngestFolder lists the configured folder and indexes every document in it.
	IngestFolder(ctx context.Context) (*domain.IngestResult, error)

	// IngestOne appends a single document to the existing index.
	IngestOne(ctx context.Context, documentID string) (*domain.IngestResult, error)

	// Reindex forgets the indexed documents and rebuilds from the folder.
	Reindex(ctx context.Context) (*domain.IngestResult, error)

	// ClearIndex removes the persisted index. Returns domain.ErrNotFound when
	// there is nothing to remove.
	ClearIndex(ctx context.Context) error

	// IndexExists reports whether a persisted index is present.
	IndexExists() bool

	// Status describes the persisted index and the last run.
	Status(ctx context.Context) (*domain.IndexStatus, error)
}
