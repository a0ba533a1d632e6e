package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

type upper struct {
	exts  []string
	title string
}

func (u upper) Extensions() []string { return u.exts }

func (u upper) Normalise(_ string, content []byte) (Result, error) {
	return Result{Title: u.title, Text: string(content)}, nil
}

func TestRegistry_For(t *testing.T) {
	r := NewRegistry(upper{exts: []string{".txt"}}, upper{exts: []string{".MD", ".markdown"}})

	_, ok := r.For("notes/readme.md")
	assert.True(t, ok)
	assert.True(t, r.Supports("CHANGELOG.TXT"))
	assert.False(t, r.Supports("photo.png"))
	assert.False(t, r.Supports("Makefile"))
	assert.Equal(t, []string{".markdown", ".md", ".txt"}, r.Extensions())
}

func TestRegistry_Normalise(t *testing.T) {
	r := NewRegistry(upper{exts: []string{".txt"}}, upper{exts: []string{".md"}, title: "Handbook"})

	res, err := r.Normalise("/docs/remote_work-policy.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "remote work policy", res.Title)
	assert.Equal(t, "hello", res.Text)

	res, err = r.Normalise("guide.md", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "Handbook", res.Title)

	_, err = r.Normalise("image.png", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "team handbook 2024", TitleFromFilename("team_handbook-2024.md"))
	assert.Equal(t, "notes", TitleFromFilename("/a/b/notes"))
}
