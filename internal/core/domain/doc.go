// Package domain defines the core business entities for askdocs.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Passage: A chunk of document text together with its source metadata
//   - SearchResult: A passage returned by similarity search with its distance
//   - ConversationTurn: One caller-supplied message of a conversation
//   - Answer: The result of asking a question, with citations
//   - IngestResult: The outcome of an indexing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
