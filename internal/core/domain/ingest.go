package domain

import "time"

// OutcomeKind tags the result of ingesting a single document.
type OutcomeKind int

// Outcome kinds.
const (
	// OutcomeIndexed means the document's passages were added to the index.
	OutcomeIndexed OutcomeKind = iota

	// OutcomeSkipped means the document had nothing to index.
	OutcomeSkipped

	// OutcomeFailed means the document failed; the batch continues.
	OutcomeFailed

	// OutcomeFatal means a configuration error; the batch aborts.
	OutcomeFatal
)

// DocumentOutcome is the tagged result of ingesting one document.
type DocumentOutcome struct {
	Kind   OutcomeKind
	Chunks int
	Reason string
	Err    error
}

// Indexed returns an outcome for a document that produced chunks passages.
func Indexed(chunks int) DocumentOutcome {
	return DocumentOutcome{Kind: OutcomeIndexed, Chunks: chunks}
}

// Skipped returns an outcome for a document with nothing to index.
func Skipped(reason string) DocumentOutcome {
	return DocumentOutcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed returns an outcome for a recoverable per-document failure.
func Failed(err error) DocumentOutcome {
	return DocumentOutcome{Kind: OutcomeFailed, Reason: err.Error(), Err: err}
}

// Fatal returns an outcome that aborts the batch.
func Fatal(err error) DocumentOutcome {
	return DocumentOutcome{Kind: OutcomeFatal, Reason: err.Error(), Err: err}
}

// Skip reasons.
const (
	SkipReasonEmpty    = "empty"
	SkipReasonNoChunks = "no chunks"
)

// FailedDocument records a document that did not make it into the index.
type FailedDocument struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Reason       string `json:"reason"`
}

// IngestResult summarises an ingestion run.
type IngestResult struct {
	// RunID identifies the run in the ingestion ledger.
	RunID string `json:"run_id"`

	// ChunksIndexed is the number of passages added by the run.
	ChunksIndexed int `json:"chunks_indexed"`

	// DocumentsProcessed counts documents that produced at least one indexed passage.
	DocumentsProcessed int `json:"documents_processed"`

	// FailedDocuments lists skipped and failed documents with their reasons.
	FailedDocuments []FailedDocument `json:"failed_documents,omitempty"`
}

// Record applies a document outcome to the result.
func (r *IngestResult) Record(doc DocumentRef, outcome DocumentOutcome) {
	switch outcome.Kind {
	case OutcomeIndexed:
		r.ChunksIndexed += outcome.Chunks
		r.DocumentsProcessed++
	case OutcomeSkipped, OutcomeFailed, OutcomeFatal:
		r.FailedDocuments = append(r.FailedDocuments, FailedDocument{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Reason:       outcome.Reason,
		})
	}
}

// RunKind identifies what triggered an ingestion run.
type RunKind string

// Run kinds.
const (
	RunKindAll     RunKind = "all"
	RunKindSingle  RunKind = "single"
	RunKindReindex RunKind = "reindex"
)

// RunStatus is the terminal state of an ingestion run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestRun is the ledger record of one ingestion run.
type IngestRun struct {
	ID                 string
	Kind               RunKind
	Status             RunStatus
	StartedAt          time.Time
	FinishedAt         time.Time
	ChunksIndexed      int
	DocumentsProcessed int
	Failures           []FailedDocument
	Error              string
}

// Duration returns how long the run took, or zero when unfinished.
func (r *IngestRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IndexStatus describes the persisted index.
type IndexStatus struct {
	Exists    bool       `json:"exists"`
	Passages  int        `json:"passages"`
	Dimension int        `json:"dimension"`
	Documents int        `json:"documents"`
	LastRun   *IngestRun `json:"last_run,omitempty"`
}
