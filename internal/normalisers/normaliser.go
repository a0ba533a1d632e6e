package normalisers

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Result is the text extracted from one file.
type Result struct {
	// Title is the document title found in the content, or empty.
	Title string

	// Text is the plain text content.
	Text string
}

// Normaliser extracts plain text from a file format.
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled, with the leading dot.
	Extensions() []string

	// Normalise extracts text from content. name is the file name, used for titles.
	Normalise(name string, content []byte) (Result, error)
}

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt map[string]Normaliser
}

// NewRegistry creates a registry. Later normalisers win when extensions overlap.
func NewRegistry(normalisers ...Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]Normaliser)}
	for _, n := range normalisers {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// For returns the normaliser for a file name.
func (r *Registry) For(name string) (Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return n, ok
}

// Supports reports whether a file name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.For(name)
	return ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Normalise extracts text from a file, falling back to a title derived
// from the file name.
func (r *Registry) Normalise(name string, content []byte) (Result, error) {
	n, ok := r.For(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filepath.Ext(name))
	}
	res, err := n.Normalise(name, content)
	if err != nil {
		return Result{}, err
	}
	if res.Title == "" {
		res.Title = TitleFromFilename(name)
	}
	return res, nil
}

// TitleFromFilename makes a readable title from a file name:
// "team_handbook-2024.md" becomes "team handbook 2024".
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}
