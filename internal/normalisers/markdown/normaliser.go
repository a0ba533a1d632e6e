// Package markdown normalises Markdown files into plain text.
package markdown

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ normalisers.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// Normalise strips Markdown syntax. The title comes from front matter or
// the first level-one heading.
func (n *Normaliser) Normalise(_ string, content []byte) (normalisers.Result, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	var title string
	if m := frontMatter.FindStringSubmatch(text); m != nil {
		title = frontMatterTitle(m[1])
		text = text[len(m[0]):]
	}
	if title == "" {
		title = firstHeading(text)
	}

	return normalisers.Result{Title: title, Text: stripMarkdown(text)}, nil
}

var (
	frontMatter    = regexp.MustCompile(`(?s)\A---\n(.*?)\n---(?:\n|\z)`)
	frontTitle     = regexp.MustCompile(`(?m)^title:[ \t]*(.+?)[ \t]*$`)
	fences         = regexp.MustCompile("(?m)^[ \\t]*(?:```|~~~)[^\\n]*\\n?")
	images         = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links          = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode     = regexp.MustCompile("`([^`\\n]+)`")
	headings       = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	horizontalRule = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	tableRule      = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(?:\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	blockquote     = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	bullets        = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered       = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	strong         = regexp.MustCompile(`\*\*|__`)
	emphasis       = regexp.MustCompile(`\*([^*\n]+)\*`)
	htmlTags       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	trailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
)

func frontMatterTitle(block string) string {
	m := frontTitle.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}

func firstHeading(content string) string {
	inFence := false
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// stripMarkdown removes Markdown formatting. Code keeps its text; only the
// fences and backticks go.
func stripMarkdown(content string) string {
	content = fences.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = horizontalRule.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$1")
	content = htmlTags.ReplaceAllString(content, "")
	content = trailingSpace.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
