package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// DocumentSource reads documents from an external store (Google Drive, local folder).
//
// Access failures wrap domain.ErrSourceAccess, together with
// domain.ErrNotFound for unknown IDs or folders and domain.ErrPermissionDenied
// when access is refused.
type DocumentSource interface {
	// Name returns the source type identifier.
	Name() string

	// ListDocuments returns the documents in folder, newest first.
	ListDocuments(ctx context.Context, folder string) ([]domain.DocumentRef, error)

	// GetDocumentText returns the plain text of a document.
	GetDocumentText(ctx context.Context, id string) (string, error)

	// GetDocumentMetadata returns the reference for a single document.
	GetDocumentMetadata(ctx context.Context, id string) (domain.DocumentRef, error)

	// Close releases resources.
	Close() error
}
