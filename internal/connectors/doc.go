// Package connectors holds the document sources askdocs can index.
//
// Each subpackage implements driven.DocumentSource for one store: Google
// Drive folders of Google Docs (google/drive) or a local directory of text,
// Markdown, HTML and Word files (filesystem).
package connectors
