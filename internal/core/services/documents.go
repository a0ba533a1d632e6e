package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists the source folder annotated with index state.
type DocumentService struct {
	source   driven.DocumentSource
	ledger   driven.IngestLedger
	folderID string
}

// NewDocumentService creates a document service for folderID.
func NewDocumentService(source driven.DocumentSource, ledger driven.IngestLedger, folderID string) *DocumentService {
	return &DocumentService{source: source, ledger: ledger, folderID: folderID}
}

// List returns the folder's documents, newest first, with their index state.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	if s.folderID == "" {
		return nil, fmt.Errorf("%w: no source folder configured (set source.folder_id)", domain.ErrConfiguration)
	}

	refs, err := s.source.ListDocuments(ctx, s.folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", s.folderID, err)
	}
	indexed, err := s.ledger.IndexedDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed documents: %w", err)
	}
	logger.Debug("Listed %d documents, %d indexed", len(refs), len(indexed))

	out := make([]domain.DocumentInfo, len(refs))
	for i, ref := range refs {
		info := domain.DocumentInfo{DocumentRef: ref}
		if rec, ok := indexed[ref.ID]; ok {
			info.Indexed = true
			info.Chunks = rec.Chunks
			info.IndexedAt = rec.IndexedAt
			info.Stale = newer(ref.ModifiedTime, rec.ModifiedTime)
		}
		out[i] = info
	}
	return out, nil
}

// newer reports whether timestamp a is after b. Unparseable values are never newer.
func newer(a, b string) bool {
	ta, err := time.Parse(time.RFC3339, a)
	if err != nil {
		return false
	}
	tb, err := time.Parse(time.RFC3339, b)
	if err != nil {
		return false
	}
	return ta.After(tb)
}
