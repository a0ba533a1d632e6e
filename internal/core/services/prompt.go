package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// promptData is the value every prompt template is executed against.
type promptData struct {
	Question string
	History  string
	Context  string
}

// renderPrompt loads the named template and executes it.
func renderPrompt(store driven.PromptStore, name string, data promptData) (string, error) {
	text, err := store.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: parse prompt %s: %w", domain.ErrConfiguration, name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: render prompt %s: %w", domain.ErrConfiguration, name, err)
	}
	return b.String(), nil
}
