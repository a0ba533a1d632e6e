package main

import (
	"context"
	"sync"

	"github.com/custodia-labs/askdocs/internal/connectors/filesystem"
	"github.com/custodia-labs/askdocs/internal/connectors/google"
	"github.com/custodia-labs/askdocs/internal/connectors/google/drive"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure lazySource implements the interface.
var _ driven.DocumentSource = (*lazySource)(nil)

// lazySource opens the configured document source on first use, so commands
// that never read documents work without Drive credentials.
type lazySource struct {
	kind domain.SourceKind
	open func() (driven.DocumentSource, error)

	once sync.Once
	src  driven.DocumentSource
	err  error
}

func newLazySource(ctx context.Context, cfg domain.SourceSettings) *lazySource {
	return &lazySource{
		kind: cfg.Kind,
		open: func() (driven.DocumentSource, error) { return openSource(ctx, cfg) },
	}
}

func openSource(ctx context.Context, cfg domain.SourceSettings) (driven.DocumentSource, error) {
	if cfg.Kind == domain.SourceKindFilesystem {
		return filesystem.New(nil), nil
	}

	creds, err := google.LoadCredentials(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	driveCfg := drive.DefaultConfig()
	if cfg.RequestsPerSecond > 0 {
		driveCfg.RateLimit.RequestsPerSecond = cfg.RequestsPerSecond
	}
	return drive.NewFromCredentials(ctx, creds, driveCfg)
}

func (l *lazySource) get() (driven.DocumentSource, error) {
	l.once.Do(func() {
		l.src, l.err = l.open()
	})
	return l.src, l.err
}

func (l *lazySource) Name() string {
	return string(l.kind)
}

func (l *lazySource) ListDocuments(ctx context.Context, folder string) ([]domain.DocumentRef, error) {
	src, err := l.get()
	if err != nil {
		return nil, err
	}
	return src.ListDocuments(ctx, folder)
}

func (l *lazySource) GetDocumentText(ctx context.Context, id string) (string, error) {
	src, err := l.get()
	if err != nil {
		return "", err
	}
	return src.GetDocumentText(ctx, id)
}

func (l *lazySource) GetDocumentMetadata(ctx context.Context, id string) (domain.DocumentRef, error) {
	src, err := l.get()
	if err != nil {
		return domain.DocumentRef{}, err
	}
	return src.GetDocumentMetadata(ctx, id)
}

// Close closes the source if it was opened.
func (l *lazySource) Close() error {
	if l.src == nil {
		return nil
	}
	return l.src.Close()
}
