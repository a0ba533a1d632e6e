// Package drive reads Google Docs from a Google Drive folder.
package drive

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/askdocs/internal/connectors/google"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// SourceName identifies the Drive source.
const SourceName = "gdrive"

const fileFields = "id, name, modifiedTime, mimeType, trashed"

// Source lists Google Docs in a Drive folder and reads their text.
type Source struct {
	files   *drive.Service
	docs    *docs.Service
	limiter *google.RateLimiter
	cfg     Config
}

// New creates a source from existing API clients.
func New(files *drive.Service, docsSvc *docs.Service, cfg Config) *Source {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Source{
		files:   files,
		docs:    docsSvc,
		limiter: google.NewRateLimiter(cfg.RateLimit),
		cfg:     cfg,
	}
}

// NewFromCredentials creates a source authenticated as a service account.
func NewFromCredentials(
	ctx context.Context, creds *google.Credentials, cfg Config, opts ...option.ClientOption,
) (*Source, error) {
	files, err := google.NewDriveService(ctx, creds, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create drive client: %w", domain.ErrConfiguration, err)
	}
	docsSvc, err := google.NewDocsService(ctx, creds, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create docs client: %w", domain.ErrConfiguration, err)
	}
	return New(files, docsSvc, cfg), nil
}

// Name returns the source type identifier.
func (s *Source) Name() string {
	return SourceName
}

// ListDocuments returns the Google Docs in folder, most recently modified first.
func (s *Source) ListDocuments(ctx context.Context, folder string) ([]domain.DocumentRef, error) {
	if strings.TrimSpace(folder) == "" {
		return nil, fmt.Errorf("%w: folder ID is empty", domain.ErrInvalidInput)
	}
	query := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(folder), MimeTypeGoogleDoc)

	var (
		refs      []domain.DocumentRef
		pageToken string
	)
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := s.files.Files.List().
			Context(ctx).
			Q(query).
			OrderBy("modifiedTime desc").
			PageSize(s.cfg.PageSize).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			s.backoff(err)
			return nil, google.WrapError(err, fmt.Sprintf("folder %s", folder))
		}
		for _, f := range page.Files {
			refs = append(refs, toRef(f))
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	logger.Debug("Drive folder %s: %d documents", folder, len(refs))
	return refs, nil
}

// GetDocumentText returns the plain text of a Google Doc.
func (s *Source) GetDocumentText(ctx context.Context, id string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	doc, err := s.docs.Documents.Get(id).Context(ctx).Do()
	if err != nil {
		s.backoff(err)
		return "", google.WrapError(err, fmt.Sprintf("document %s", id))
	}
	return ExtractText(doc), nil
}

// GetDocumentMetadata returns the reference for a single Google Doc.
// Trashed files are reported as not found.
func (s *Source) GetDocumentMetadata(ctx context.Context, id string) (domain.DocumentRef, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.DocumentRef{}, err
	}
	f, err := s.files.Files.Get(id).
		Context(ctx).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Do()
	if err != nil {
		s.backoff(err)
		return domain.DocumentRef{}, google.WrapError(err, fmt.Sprintf("document %s", id))
	}
	if f.Trashed {
		return domain.DocumentRef{}, fmt.Errorf("%w: %w: document %s is in the trash", domain.ErrSourceAccess, domain.ErrNotFound, id)
	}
	if f.MimeType != MimeTypeGoogleDoc {
		return domain.DocumentRef{}, fmt.Errorf("%w: %s is %s, not a Google Doc", domain.ErrInvalidInput, id, f.MimeType)
	}
	return toRef(f), nil
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

func (s *Source) backoff(err error) {
	if google.IsRateLimited(err) {
		s.limiter.RecordRateLimitError(0)
	}
}

func toRef(f *drive.File) domain.DocumentRef {
	return domain.DocumentRef{ID: f.Id, Name: f.Name, ModifiedTime: f.ModifiedTime}
}

// escapeQuery escapes a value for a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
