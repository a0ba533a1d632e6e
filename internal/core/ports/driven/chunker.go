package driven

// TextSplitter splits document text into passages sized for embedding.
type TextSplitter interface {
	// Split returns passages in document order. Whitespace-only input yields none.
	Split(text string) []string
}
