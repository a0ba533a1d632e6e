package plaintext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	exts := New().Extensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".csv")
	assert.NotContains(t, exts, ".md")
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"plain", []byte("This is plain text content."), "This is plain text content."},
		{"empty", nil, ""},
		{"bom", []byte("\uFEFFhello"), "hello"},
		{"crlf", []byte("one\r\ntwo"), "one\ntwo"},
		{"invalid utf8", []byte{'a', 0xff, 'b'}, "a\uFFFDb"},
		{"unicode", []byte("Café ☕ 日本語"), "Café ☕ 日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Normalise("doc.txt", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
			assert.Empty(t, res.Title)
		})
	}
}
