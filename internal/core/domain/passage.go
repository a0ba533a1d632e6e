package domain

// PassageMetadata describes the document a passage was cut from.
// A single value is shared by pointer across every passage produced
// from the same ingestion call.
type PassageMetadata struct {
	// DocumentID is the source-specific document identifier.
	DocumentID string `json:"doc_id"`

	// DocumentName is the human-readable document title.
	DocumentName string `json:"doc_name"`

	// ModifiedTime is the source's last-modified timestamp, as reported by the source.
	ModifiedTime string `json:"modified"`
}

// Passage is a contiguous chunk of document text sized for embedding and retrieval.
// Passages are immutable once created.
type Passage struct {
	// Text is the passage content.
	Text string

	// Metadata identifies the source document.
	Metadata *PassageMetadata
}

// SearchResult is a single nearest-neighbour hit.
type SearchResult struct {
	// Text is the matched passage content.
	Text string

	// Distance is the Euclidean distance to the query (lower = more similar).
	Distance float64

	// Metadata identifies the source document of the passage.
	Metadata *PassageMetadata
}

// DocumentName returns the metadata document name, or "Unknown Document".
func (r SearchResult) DocumentName() string {
	if r.Metadata == nil || r.Metadata.DocumentName == "" {
		return "Unknown Document"
	}
	return r.Metadata.DocumentName
}
