// Package plaintext normalises plain text files.
package plaintext

import (
	"strings"

	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ normalisers.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text", ".rst", ".csv", ".log", ".json", ".yaml", ".yml", ".toml"}
}

// Normalise returns the content as text. Invalid UTF-8 sequences are
// replaced and a leading byte order mark is dropped. Plain text has no title.
func (n *Normaliser) Normalise(_ string, content []byte) (normalisers.Result, error) {
	text := strings.ToValidUTF8(string(content), "\uFFFD")
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return normalisers.Result{Text: text}, nil
}
