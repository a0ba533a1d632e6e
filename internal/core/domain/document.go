package domain

import "time"

// DocumentRef identifies a document in the external document source.
type DocumentRef struct {
	// ID is the source-specific identifier.
	ID string `json:"id"`

	// Name is the human-readable title.
	Name string `json:"name"`

	// ModifiedTime is the last-modified timestamp reported by the source.
	ModifiedTime string `json:"modified"`
}

// Metadata returns the passage metadata record for the document.
func (d DocumentRef) Metadata() *PassageMetadata {
	return &PassageMetadata{
		DocumentID:   d.ID,
		DocumentName: d.Name,
		ModifiedTime: d.ModifiedTime,
	}
}

// IndexedDocument records that a document's passages are part of the index.
type IndexedDocument struct {
	DocumentRef

	// Chunks is the number of passages indexed for the document.
	Chunks int

	// RunID is the ingestion run that indexed the document.
	RunID string

	// IndexedAt is when the document was indexed.
	IndexedAt time.Time
}

// DocumentInfo is a document listed from the source, annotated with index state.
type DocumentInfo struct {
	DocumentRef

	// Indexed is true when the document's passages are in the index.
	Indexed bool `json:"indexed"`

	// Chunks is the number of indexed passages (0 when not indexed).
	Chunks int `json:"chunks"`

	// IndexedAt is when the document was last indexed.
	IndexedAt time.Time `json:"indexed_at,omitempty"`

	// Stale is true when the source reports a newer modification than the indexed copy.
	Stale bool `json:"stale"`
}
