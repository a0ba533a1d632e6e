package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.IngestLedger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.IngestLedger.
// It mirrors the SQLite ledger, including rejecting documents for unknown runs.
type Ledger struct {
	mu   sync.RWMutex
	runs []domain.IngestRun
	docs map[string]domain.IndexedDocument
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{docs: make(map[string]domain.IndexedDocument)}
}

// SaveRun inserts or updates a run.
func (l *Ledger) SaveRun(_ context.Context, run *domain.IngestRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := *run
	stored.Failures = slices.Clone(run.Failures)
	for i := range l.runs {
		if l.runs[i].ID == run.ID {
			stored.Kind = l.runs[i].Kind
			stored.StartedAt = l.runs[i].StartedAt
			l.runs[i] = stored
			return nil
		}
	}
	l.runs = append(l.runs, stored)
	return nil
}

// LastRun returns the most recently started run.
func (l *Ledger) LastRun(ctx context.Context) (*domain.IngestRun, error) {
	runs, err := l.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first. Runs started at the
// same instant are ordered by insertion, latest first.
func (l *Ledger) ListRuns(_ context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	l.mu.RLock()
	runs := slices.Clone(l.runs)
	l.mu.RUnlock()

	slices.Reverse(runs)
	slices.SortStableFunc(runs, func(a, b domain.IngestRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// MarkIndexed upserts indexed documents. Nothing is stored when any
// document references an unknown run.
func (l *Ledger) MarkIndexed(_ context.Context, docs []domain.IndexedDocument) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range docs {
		if !l.hasRun(d.RunID) {
			return fmt.Errorf("saving indexed document %s: unknown run %q", d.ID, d.RunID)
		}
	}
	for _, d := range docs {
		l.docs[d.ID] = d
	}
	return nil
}

func (l *Ledger) hasRun(id string) bool {
	return slices.ContainsFunc(l.runs, func(r domain.IngestRun) bool { return r.ID == id })
}

// IndexedDocuments returns a copy of every indexed document keyed by ID.
func (l *Ledger) IndexedDocuments(_ context.Context) (map[string]domain.IndexedDocument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]domain.IndexedDocument, len(l.docs))
	for id, d := range l.docs {
		out[id] = d
	}
	return out, nil
}

// ClearDocuments forgets every indexed document.
func (l *Ledger) ClearDocuments(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs = make(map[string]domain.IndexedDocument)
	return nil
}

// Close is a no-op.
func (l *Ledger) Close() error { return nil }
