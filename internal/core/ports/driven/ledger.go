package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// IngestLedger records ingestion runs and which documents the index holds.
// The index artifacts are the source of truth for search; the ledger only
// answers "what was indexed, when".
type IngestLedger interface {
	// SaveRun inserts or updates a run record.
	SaveRun(ctx context.Context, run *domain.IngestRun) error

	// LastRun returns the most recently started run, or domain.ErrNotFound.
	LastRun(ctx context.Context) (*domain.IngestRun, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)

	// MarkIndexed records documents as indexed, replacing earlier entries.
	MarkIndexed(ctx context.Context, docs []domain.IndexedDocument) error

	// IndexedDocuments returns all indexed documents keyed by document ID.
	IndexedDocuments(ctx context.Context) (map[string]domain.IndexedDocument, error)

	// ClearDocuments forgets every indexed document. Run history is kept.
	ClearDocuments(ctx context.Context) error

	// Close releases resources.
	Close() error
}
