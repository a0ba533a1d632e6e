package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func writeFile(t *testing.T, path, content string, modified time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, modified, modified))
	return path
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(root, "remote_work.txt"), "Employees may work remotely two days a week.", base)
	writeFile(t, filepath.Join(root, "guides", "onboarding.md"), "# Onboarding Guide\n\nWelcome **aboard**.", base.Add(2*time.Hour))
	writeFile(t, filepath.Join(root, "policy.html"), "<title>Expense Policy</title><p>Keep receipts.</p>", base.Add(time.Hour))
	writeFile(t, filepath.Join(root, "photo.png"), "\x89PNG", base.Add(3*time.Hour))
	writeFile(t, filepath.Join(root, ".secret.txt"), "hidden", base.Add(4*time.Hour))
	writeFile(t, filepath.Join(root, ".git", "notes.txt"), "hidden", base.Add(5*time.Hour))
	return root
}

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "filesystem", New(nil).Name())
	assert.NoError(t, New(nil).Close())
}

func TestListDocuments(t *testing.T) {
	root := fixture(t)

	refs, err := New(nil).ListDocuments(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, filepath.Join(root, "guides", "onboarding.md"), refs[0].ID)
	assert.Equal(t, "Onboarding Guide", refs[0].Name)
	assert.Equal(t, "2025-03-01T14:00:00Z", refs[0].ModifiedTime)

	assert.Equal(t, "Expense Policy", refs[1].Name)

	assert.Equal(t, "remote work", refs[2].Name)
	assert.Equal(t, "2025-03-01T12:00:00Z", refs[2].ModifiedTime)
}

func TestListDocuments_Empty(t *testing.T) {
	refs, err := New(nil).ListDocuments(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestListDocuments_Errors(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "a.txt"), "x", time.Now())

	tests := []struct {
		name   string
		folder string
		want   error
	}{
		{"empty", "", domain.ErrInvalidInput},
		{"missing", filepath.Join(root, "nope"), domain.ErrNotFound},
		{"not a directory", file, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).ListDocuments(context.Background(), tt.folder)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListDocuments_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).ListDocuments(ctx, fixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetDocumentText(t *testing.T) {
	root := fixture(t)
	src := New(nil)

	text, err := src.GetDocumentText(context.Background(), filepath.Join(root, "guides", "onboarding.md"))
	require.NoError(t, err)
	assert.Equal(t, "Onboarding Guide\n\nWelcome aboard.", text)

	text, err = src.GetDocumentText(context.Background(), filepath.Join(root, "policy.html"))
	require.NoError(t, err)
	assert.Equal(t, "Keep receipts.", text)
}

func TestGetDocumentText_Errors(t *testing.T) {
	root := fixture(t)
	big := writeFile(t, filepath.Join(root, "big.txt"), "0123456789abcdef", time.Now())

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"empty id", "", domain.ErrInvalidInput},
		{"missing", filepath.Join(root, "gone.txt"), domain.ErrNotFound},
		{"unsupported", filepath.Join(root, "photo.png"), domain.ErrInvalidInput},
		{"too large", big, domain.ErrInvalidInput},
	}

	src := New(nil, WithMaxFileSize(8))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.GetDocumentText(context.Background(), tt.id)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetDocumentMetadata(t *testing.T) {
	root := fixture(t)
	path := filepath.Join(root, "remote_work.txt")

	ref, err := New(nil).GetDocumentMetadata(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentRef{
		ID:           path,
		Name:         "remote work",
		ModifiedTime: "2025-03-01T12:00:00Z",
	}, ref)

	_, err = New(nil).GetDocumentMetadata(context.Background(), filepath.Join(root, "missing.md"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMapError(t *testing.T) {
	missing := mapError(os.ErrNotExist, "x")
	assert.ErrorIs(t, missing, domain.ErrNotFound)
	assert.ErrorIs(t, missing, domain.ErrSourceAccess)
	assert.Equal(t, domain.ErrorKindSourceAccess, domain.Classify(missing).Kind)

	err := mapError(os.ErrPermission, "x")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.ErrorIs(t, err, domain.ErrSourceAccess)

	assert.ErrorIs(t, mapError(assert.AnError, "x"), domain.ErrSourceAccess)
}
