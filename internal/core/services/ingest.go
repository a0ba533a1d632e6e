package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService chunks, embeds and indexes documents from a source.
type IngestService struct {
	source   driven.DocumentSource
	embedder driven.EmbeddingService
	splitter driven.TextSplitter
	repo     driven.IndexRepository
	ledger   driven.IngestLedger
	folderID string
	retry    EmbeddingRetry
	newID    func() string
	now      func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithFolder sets the folder listed by IngestFolder and Reindex.
func WithFolder(folderID string) IngestOption {
	return func(s *IngestService) {
		s.folderID = folderID
	}
}

// WithIngestRetry sets the retry policy for passage embeddings.
func WithIngestRetry(r EmbeddingRetry) IngestOption {
	return func(s *IngestService) {
		s.retry = r
	}
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	source driven.DocumentSource,
	embedder driven.EmbeddingService,
	splitter driven.TextSplitter,
	repo driven.IndexRepository,
	ledger driven.IngestLedger,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		source:   source,
		embedder: embedder,
		splitter: splitter,
		repo:     repo,
		ledger:   ledger,
		retry:    DefaultEmbeddingRetry(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestAll indexes docs into a fresh index that replaces the persisted one.
func (s *IngestService) IngestAll(ctx context.Context, docs []domain.DocumentRef) (*domain.IngestResult, error) {
	return s.ingestAll(ctx, domain.RunKindAll, docs)
}

// IngestFolder lists the configured folder and indexes every document in it.
func (s *IngestService) IngestFolder(ctx context.Context) (*domain.IngestResult, error) {
	return s.ingestFolder(ctx, domain.RunKindAll)
}

// Reindex forgets the indexed documents and rebuilds from the folder.
func (s *IngestService) Reindex(ctx context.Context) (*domain.IngestResult, error) {
	logger.Section("Reindex")
	if err := s.ledger.ClearDocuments(ctx); err != nil {
		logger.Warn("Failed to clear indexed documents: %v", err)
	}
	return s.ingestFolder(ctx, domain.RunKindReindex)
}

func (s *IngestService) ingestFolder(ctx context.Context, kind domain.RunKind) (*domain.IngestResult, error) {
	if err := s.checkDimensions(); err != nil {
		return nil, err
	}
	if s.folderID == "" {
		return nil, fmt.Errorf("%w: no source folder configured (set source.folder_id)", domain.ErrConfiguration)
	}

	done := logger.Timed("list documents")
	docs, err := s.source.ListDocuments(ctx, s.folderID)
	done()
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", s.folderID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents found in folder %s", domain.ErrNotFound, s.folderID)
	}
	return s.ingestAll(ctx, kind, docs)
}

func (s *IngestService) ingestAll(
	ctx context.Context, kind domain.RunKind, docs []domain.DocumentRef,
) (*domain.IngestResult, error) {
	logger.Section("Ingestion")
	if err := s.checkDimensions(); err != nil {
		return nil, err
	}

	run := s.startRun(ctx, kind)
	result := &domain.IngestResult{RunID: run.ID}
	idx := s.repo.New()
	var indexed []domain.IndexedDocument

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			s.finishRun(ctx, run, result, err)
			return result, err
		}

		logger.Debug("[%d/%d] %s (%s)", i+1, len(docs), doc.Name, doc.ID)
		outcome := s.ingestDocument(ctx, idx, doc)
		if outcome.Kind == domain.OutcomeFatal {
			s.finishRun(ctx, run, result, outcome.Err)
			return result, outcome.Err
		}
		result.Record(doc, outcome)

		switch outcome.Kind {
		case domain.OutcomeIndexed:
			logger.Debug("  indexed %d chunks", outcome.Chunks)
			indexed = append(indexed, s.indexedDocument(doc, outcome.Chunks, run.ID))
		default:
			logger.Warn("  %s skipped: %s", doc.Name, outcome.Reason)
		}
	}

	if result.ChunksIndexed == 0 {
		err := fmt.Errorf("%w: none of %d documents produced passages", domain.ErrNoIndexableContent, len(docs))
		s.finishRun(ctx, run, result, err)
		return result, err
	}

	if err := s.repo.Save(ctx, idx); err != nil {
		err = fmt.Errorf("save index: %w", err)
		s.finishRun(ctx, run, result, err)
		return result, err
	}

	if err := s.ledger.ClearDocuments(ctx); err != nil {
		logger.Warn("Failed to clear indexed documents: %v", err)
	}
	s.markIndexed(ctx, indexed)
	s.finishRun(ctx, run, result, nil)

	logger.Info("Indexed %d chunks from %d documents (%d failed)",
		result.ChunksIndexed, result.DocumentsProcessed, len(result.FailedDocuments))
	return result, nil
}

// ingestDocument reads, splits, embeds and adds one document.
func (s *IngestService) ingestDocument(
	ctx context.Context, idx driven.SimilarityIndex, doc domain.DocumentRef,
) domain.DocumentOutcome {
	text, err := s.source.GetDocumentText(ctx, doc.ID)
	if err != nil {
		if isCancellation(err) {
			return domain.Fatal(err)
		}
		return domain.Failed(fmt.Errorf("read document: %w", err))
	}
	if strings.TrimSpace(text) == "" {
		return domain.Skipped(domain.SkipReasonEmpty)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return domain.Skipped(domain.SkipReasonNoChunks)
	}

	embeddings, err := s.retry.embedBatch(ctx, s.embedder, chunks)
	if err != nil {
		if !retryable(err) {
			return domain.Fatal(err)
		}
		return domain.Failed(err)
	}

	if err := idx.Add(chunks, embeddings, doc.Metadata()); err != nil {
		return domain.Fatal(fmt.Errorf("add %s to index: %w", doc.ID, err))
	}
	return domain.Indexed(len(chunks))
}

// IngestOne appends a single document to the persisted index.
func (s *IngestService) IngestOne(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	logger.Section("Ingest Document")
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, fmt.Errorf("%w: document ID is empty", domain.ErrInvalidInput)
	}
	if err := s.checkDimensions(); err != nil {
		return nil, err
	}

	doc, err := s.source.GetDocumentMetadata(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	text, err := s.source.GetDocumentText(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", documentID, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document %s is empty", domain.ErrInvalidInput, doc.Name)
	}
	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %s produced no passages", domain.ErrInvalidInput, doc.Name)
	}

	idx, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrIndexNotReady):
		logger.Debug("No existing index, starting a new one")
		idx = s.repo.New()
	case err != nil:
		return nil, err
	}

	run := s.startRun(ctx, domain.RunKindSingle)
	result := &domain.IngestResult{RunID: run.ID}

	embeddings, err := s.retry.embedBatch(ctx, s.embedder, chunks)
	if err != nil {
		s.finishRun(ctx, run, result, err)
		return nil, err
	}
	if err := idx.Add(chunks, embeddings, doc.Metadata()); err != nil {
		s.finishRun(ctx, run, result, err)
		return nil, fmt.Errorf("add %s to index: %w", doc.ID, err)
	}
	if err := s.repo.Save(ctx, idx); err != nil {
		err = fmt.Errorf("save index: %w", err)
		s.finishRun(ctx, run, result, err)
		return nil, err
	}

	result.Record(doc, domain.Indexed(len(chunks)))
	s.markIndexed(ctx, []domain.IndexedDocument{s.indexedDocument(doc, len(chunks), run.ID)})
	s.finishRun(ctx, run, result, nil)

	logger.Info("Indexed %d chunks from %s; index now holds %d passages", len(chunks), doc.Name, idx.Len())
	return result, nil
}

// ClearIndex removes the persisted index and the indexed document records.
func (s *IngestService) ClearIndex(ctx context.Context) error {
	removed, err := s.repo.Remove()
	if err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	if err := s.ledger.ClearDocuments(ctx); err != nil {
		logger.Warn("Failed to clear indexed documents: %v", err)
	}
	if !removed {
		return fmt.Errorf("%w: no index to clear", domain.ErrNotFound)
	}
	logger.Info("Index cleared")
	return nil
}

// IndexExists reports whether a persisted index is present.
func (s *IngestService) IndexExists() bool {
	return s.repo.Exists()
}

// Status describes the persisted index and the last run.
func (s *IngestService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	status := &domain.IndexStatus{Exists: s.repo.Exists()}

	if status.Exists {
		idx, err := s.repo.Load(ctx)
		if err != nil {
			return nil, err
		}
		status.Passages = idx.Len()
		status.Dimension = idx.Dimension()
	}

	docs, err := s.ledger.IndexedDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed documents: %w", err)
	}
	status.Documents = len(docs)

	last, err := s.ledger.LastRun(ctx)
	switch {
	case err == nil:
		status.LastRun = last
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("last run: %w", err)
	}
	return status, nil
}

// checkDimensions fails fast when the embedder cannot fill the index.
func (s *IngestService) checkDimensions() error {
	want := s.repo.New().Dimension()
	if got := s.embedder.Dimensions(); got != want {
		return fmt.Errorf("%w: %w: %s produces %d-dimensional vectors, index expects %d",
			domain.ErrConfiguration, domain.ErrDimensionMismatch, s.embedder.ModelName(), got, want)
	}
	return nil
}

func (s *IngestService) indexedDocument(doc domain.DocumentRef, chunks int, runID string) domain.IndexedDocument {
	return domain.IndexedDocument{DocumentRef: doc, Chunks: chunks, RunID: runID, IndexedAt: s.now()}
}

// ==================== Ledger ====================

// Ledger failures are logged, never returned: the index files are authoritative.

func (s *IngestService) startRun(ctx context.Context, kind domain.RunKind) *domain.IngestRun {
	run := &domain.IngestRun{
		ID:        s.newID(),
		Kind:      kind,
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	if err := s.ledger.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to record run %s: %v", run.ID, err)
	}
	logger.Debug("Run %s (%s) started", run.ID, kind)
	return run
}

func (s *IngestService) finishRun(ctx context.Context, run *domain.IngestRun, result *domain.IngestResult, err error) {
	run.FinishedAt = s.now()
	run.ChunksIndexed = result.ChunksIndexed
	run.DocumentsProcessed = result.DocumentsProcessed
	run.Failures = result.FailedDocuments
	run.Status = domain.RunStatusCompleted
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	}

	if err := s.ledger.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to record run %s: %v", run.ID, err)
	}
	logger.Debug("Run %s %s in %s", run.ID, run.Status, run.Duration().Round(time.Millisecond))
}

func (s *IngestService) markIndexed(ctx context.Context, docs []domain.IndexedDocument) {
	if err := s.ledger.MarkIndexed(ctx, docs); err != nil {
		logger.Warn("Failed to record indexed documents: %v", err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
