// Package normalisers turns local files into plain text for indexing.
//
// Each subpackage handles one family of formats, selected by file
// extension through a Registry. Normalisers only extract text and a title;
// chunking happens later in the ingestion pipeline.
package normalisers
