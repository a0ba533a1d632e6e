// Package flat provides an exact, exhaustive similarity index over passage
// embeddings with file persistence.
//
// Every search computes the Euclidean distance from the query to every
// stored vector, so results are exact and deterministic. Ties keep
// insertion order.
//
// # Files
//
// An index persisted under store ID "all_docs" occupies two files:
//
//	all_docs_index.vec   binary header + little-endian float32 matrix
//	all_docs_data.json   passage texts and their metadata table
//
// Both are required to load and both carry the generation of the save that
// wrote them. Each file is written to a temporary file in the same directory
// and renamed into place. A save interrupted between the two renames leaves
// the previous file as <name>.prev, and Load pairs it with the current file
// of the same generation.
package flat
