// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns passages and queries into vectors
//   - SimilarityIndex: Exact nearest-neighbour search over passage vectors
//   - IndexRepository: Persists and reloads the similarity index
//   - TextSplitter: Splits document text into passages
//   - DocumentSource: Lists documents and reads their text (Google Drive, local folder)
//   - IngestLedger: Records ingestion runs and which documents are indexed
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, ask and chat are disabled
//     but indexing and document listing still work.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
