package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

const welcome = "Ask a question about your documents."

// entry is one rendered block of the transcript.
type entry struct {
	role          domain.Role
	text          string
	sources       []domain.Citation
	clarification bool
	rephrased     string
	failure       *domain.ClassifiedError
}

// Model is the chat application following the Elm architecture.
// The conversation history lives here; the chat service is stateless.
type Model struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	transcript  []entry
	history     []domain.ConversationTurn
	pending     bool
	showSources bool
	status      string

	width  int
	height int
	ready  bool
}

// Ensure Model implements tea.Model.
var _ tea.Model = (*Model)(nil)

// New creates the chat model.
func New(ports *Ports) (*Model, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	s := styles.DefaultStyles()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a question and press Enter"
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Assistant

	return &Model{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keys:        keymap.DefaultKeyMap(),
		input:       ti,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		showSources: true,
	}, nil
}

// WithContext sets the context passed to the chat service.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("askdocs"),
		m.loadStatus(),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case messages.AnswerReceived:
		m.handleAnswer(msg)
		return m, nil

	case messages.StatusLoaded:
		m.status = statusLine(msg.Status, msg.Err)
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m, m.submit()

	case key.Matches(msg, m.keys.Reset):
		if m.pending {
			return m, nil
		}
		m.transcript = nil
		m.history = nil
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSources):
		m.showSources = !m.showSources
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line to the chat service with the turns so far.
func (m *Model) submit() tea.Cmd {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.pending {
		return nil
	}

	m.input.Reset()
	m.transcript = append(m.transcript, entry{role: domain.RoleUser, text: question})
	m.pending = true
	m.refresh()

	return tea.Batch(m.ask(question, slices.Clone(m.history)), m.spinner.Tick)
}

func (m *Model) ask(question string, history []domain.ConversationTurn) tea.Cmd {
	ctx, chat := m.ctx, m.ports.Chat
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, question, history)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (m *Model) handleAnswer(msg messages.AnswerReceived) {
	m.pending = false

	if msg.Err != nil {
		classified := domain.Classify(msg.Err)
		m.transcript = append(m.transcript, entry{role: domain.RoleAssistant, failure: &classified})
		m.refresh()
		return
	}

	a := msg.Answer
	m.transcript = append(m.transcript, entry{
		role:          domain.RoleAssistant,
		text:          a.Text,
		sources:       a.Sources,
		clarification: a.IsClarification,
		rephrased:     a.RephrasedQuery,
	})
	m.history = append(m.history,
		domain.ConversationTurn{Role: domain.RoleUser, Content: msg.Question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: a.Text},
	)
	m.refresh()
}

func (m *Model) loadStatus() tea.Cmd {
	if m.ports.Ingest == nil {
		return nil
	}
	ctx, ingest := m.ctx, m.ports.Ingest
	return func() tea.Msg {
		st, err := ingest.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

func statusLine(st *domain.IndexStatus, err error) string {
	switch {
	case err != nil:
		return "index status unavailable"
	case st == nil || !st.Exists:
		return "no index yet, run 'askdocs index all'"
	default:
		return fmt.Sprintf("%d passages from %d documents", st.Passages, st.Documents)
	}
}

// SetDimensions lays out the transcript and input for the terminal size.
func (m *Model) SetDimensions(width, height int) {
	m.width, m.height = width, height
	m.ready = true

	frameW, frameH := m.styles.Transcript.GetFrameSize()
	inputW, inputH := m.styles.InputField.GetFrameSize()
	reserved := 1 + (1 + inputH) + 1 // header, input box, help

	m.viewport.Width = max(20, width-frameW)
	m.viewport.Height = max(3, height-reserved-frameH)
	m.input.Width = max(10, width-inputW-len(m.input.Prompt)-1)
	m.help.Width = width
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return m.styles.Muted.Render(welcome)
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-2))
	blocks := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		blocks = append(blocks, m.renderEntry(e, wrap))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderEntry(e entry, wrap lipgloss.Style) string {
	var b strings.Builder

	if e.role == domain.RoleUser {
		b.WriteString(m.styles.User.Render("You"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(e.text))
		return b.String()
	}

	b.WriteString(m.styles.Assistant.Render("askdocs"))
	b.WriteString("\n")

	if e.failure != nil {
		b.WriteString(m.styles.Error.Render(wrap.Render("Error: " + e.failure.Message)))
		if e.failure.Remediation != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render(wrap.Render(e.failure.Remediation)))
		}
		return b.String()
	}

	if e.rephrased != "" {
		b.WriteString(m.styles.Muted.Render(wrap.Render("searched for: " + e.rephrased)))
		b.WriteString("\n")
	}
	if e.clarification {
		b.WriteString(m.styles.Clarification.Render(wrap.Render(e.text)))
	} else {
		b.WriteString(m.styles.Normal.Render(wrap.Render(e.text)))
	}

	if m.showSources && len(e.sources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Sources:"))
		for i, c := range e.sources {
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render(wrap.Render(fmt.Sprintf("  [%d] %s", i+1, c))))
		}
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Initialising..."
	}

	header := m.styles.Title.Render("askdocs")
	if m.status != "" {
		header += "  " + m.styles.Muted.Render(m.status)
	}

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.pending {
		footer = m.spinner.View() + " " + m.styles.Muted.Render("Thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.styles.Transcript.Render(m.viewport.View()),
		m.styles.InputField.Render(m.input.View()),
		footer,
	)
}

// History returns the conversation turns sent with the next question.
func (m *Model) History() []domain.ConversationTurn {
	return m.history
}

// Pending reports whether a question is awaiting its answer.
func (m *Model) Pending() bool {
	return m.pending
}

// Status returns the header status line.
func (m *Model) Status() string {
	return m.status
}
