// Package filesystem reads documents from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers"
	"github.com/custodia-labs/askdocs/internal/normalisers/docx"
	"github.com/custodia-labs/askdocs/internal/normalisers/html"
	"github.com/custodia-labs/askdocs/internal/normalisers/markdown"
	"github.com/custodia-labs/askdocs/internal/normalisers/plaintext"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// SourceName identifies the local folder source.
const SourceName = "filesystem"

// DefaultMaxFileSize caps how much of a single file is read.
const DefaultMaxFileSize = 20 << 20

// DefaultRegistry returns the registry with every built-in normaliser.
func DefaultRegistry() *normalisers.Registry {
	return normalisers.NewRegistry(plaintext.New(), markdown.New(), html.New(), docx.New())
}

// Source lists supported files under a directory. Document IDs are
// absolute file paths.
type Source struct {
	registry    *normalisers.Registry
	maxFileSize int64
}

// Option configures a Source.
type Option func(*Source)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// New creates a filesystem source. A nil registry uses DefaultRegistry.
func New(registry *normalisers.Registry, opts ...Option) *Source {
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := &Source{registry: registry, maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source type identifier.
func (s *Source) Name() string {
	return SourceName
}

// ListDocuments walks folder recursively and returns supported files,
// newest first. Hidden files and directories are skipped.
func (s *Source) ListDocuments(ctx context.Context, folder string) ([]domain.DocumentRef, error) {
	if folder == "" {
		return nil, fmt.Errorf("%w: folder path is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, mapError(err, "folder "+root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	var refs []domain.DocumentRef
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("Skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !s.registry.Supports(path) {
			logger.Debug("Skipping unsupported file %s", path)
			return nil
		}

		ref, err := s.ref(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		return nil, mapError(err, "folder "+root)
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].ModifiedTime != refs[j].ModifiedTime {
			return refs[i].ModifiedTime > refs[j].ModifiedTime
		}
		return refs[i].ID < refs[j].ID
	})
	logger.Debug("Found %d documents in %s", len(refs), root)
	return refs, nil
}

// GetDocumentText reads and normalises a file.
func (s *Source) GetDocumentText(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := s.read(id)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// GetDocumentMetadata returns the reference for a single file.
func (s *Source) GetDocumentMetadata(ctx context.Context, id string) (domain.DocumentRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentRef{}, err
	}
	path, err := s.checkID(id)
	if err != nil {
		return domain.DocumentRef{}, err
	}
	return s.ref(path)
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

func (s *Source) checkID(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	path, err := filepath.Abs(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !s.registry.Supports(path) {
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
	return path, nil
}

func (s *Source) ref(path string) (domain.DocumentRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.DocumentRef{}, mapError(err, "document "+path)
	}
	if info.IsDir() {
		return domain.DocumentRef{}, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	name := normalisers.TitleFromFilename(path)
	if res, err := s.read(path); err == nil {
		name = res.Title
	}

	return domain.DocumentRef{
		ID:           path,
		Name:         name,
		ModifiedTime: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Source) read(id string) (normalisers.Result, error) {
	path, err := s.checkID(id)
	if err != nil {
		return normalisers.Result{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return normalisers.Result{}, mapError(err, "document "+path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return normalisers.Result{}, mapError(err, "document "+path)
	}
	if info.IsDir() {
		return normalisers.Result{}, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > s.maxFileSize {
		return normalisers.Result{}, fmt.Errorf("%w: %s is larger than %d bytes",
			domain.ErrInvalidInput, path, s.maxFileSize)
	}

	content := make([]byte, info.Size())
	if _, err := io.ReadFull(f, content); err != nil {
		return normalisers.Result{}, mapError(err, "document "+path)
	}
	return s.registry.Normalise(path, content)
}

func mapError(err error, what string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w: %s", domain.ErrSourceAccess, domain.ErrNotFound, what)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w: %s", domain.ErrSourceAccess, domain.ErrPermissionDenied, what)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrSourceAccess, what, err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
