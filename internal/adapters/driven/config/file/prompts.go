package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from user-editable files on disk,
// falling back to built-in defaults.
//
// Nothing touches the filesystem until the first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClarityCheck: `Is this question too vague to answer without more context?

Question: "{{.Question}}"

Reply with ONLY a JSON object:
{"is_clear": true or false, "suggested_clarification": "a clarifying question if needed"}

Treat the question as clear unless it is extremely vague, like "what?", "huh?" or "more".`,

	driven.PromptRephrase: `Rewrite the user's latest question so it stands alone without the conversation below.

CONVERSATION HISTORY:
{{.History}}

LATEST USER QUESTION: "{{.Question}}"

Examples:
- "tell me more" after a discussion of Product X becomes "Tell me more about Product X"
- "benefits" after a discussion of meditation becomes "What are the benefits of meditation?"

Rules:
1. Pull the missing subject from earlier messages.
2. Keep it short and searchable.
3. If the question already stands alone, return it unchanged.
4. Return ONLY the question.

STANDALONE QUESTION:`,

	driven.PromptAnswer: `Answer the user's question from the documents below.

DOCUMENT CONTENT:
{{.Context}}
{{- if .History}}

RECENT CONVERSATION:
{{.History}}
(Use this conversation only to understand what follow-up questions refer to.)
{{- end}}

CURRENT USER QUESTION: {{.Question}}

INSTRUCTIONS:
1. Answer ONLY from the DOCUMENT CONTENT above.
2. When the question refers back ("it", "that technique"), resolve it from the conversation but answer from the documents.
3. Mention which document section supports each claim, e.g. "According to Document Section 2...".
4. If the documents do not contain the answer, say: "I don't have enough information in the provided documents to answer that question."
5. Be direct. Do not ask for clarification unless there is no other way.

ANSWER:`,

	driven.PromptAnswerSystem: `You are a document question answering assistant. You follow the conversation for context but only answer from the documents you are given.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.askdocs/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".askdocs", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template text for the given prompt.
// A user file that does not parse as a text/template is a configuration error.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		defaultPrompt, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
		}
		prompt = defaultPrompt
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, any missing default files and the README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range driven.AllPromptNames() {
		path := s.path(name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte(defaultPrompts[name]+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".tmpl")
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if _, err := template.New(name).Parse(content); err != nil {
		return "", fmt.Errorf("%w: prompt %s: %w", domain.ErrConfiguration, s.path(name), err)
	}
	return content, nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	content := `# askdocs prompts

Edit these files to change how askdocs talks to the generation backend.
Changes apply to the next command.

- ` + "`clarity_check.tmpl`" + ` - decides whether a short first question needs clarifying
- ` + "`rephrase.tmpl`" + ` - turns a follow-up into a standalone search query
- ` + "`answer.tmpl`" + ` - grounds the answer in the retrieved document sections
- ` + "`answer_system.tmpl`" + ` - system prompt for answers

Files are Go text/template documents. Available fields:

- ` + "`{{.Question}}`" + ` - the user's question
- ` + "`{{.History}}`" + ` - recent conversation, one "Role: text" line per turn
- ` + "`{{.Context}}`" + ` - retrieved sections labelled [Document Section N] (answer only)

Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
