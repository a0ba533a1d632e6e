// Package services implements the driving port interfaces.
//
// IngestService builds the similarity index from a document source,
// ChatService answers questions against it, DocumentService lists the
// source's documents with their index state, and SettingsService manages
// configuration. Services depend only on driven ports and are wired
// explicitly by the composition root.
package services
