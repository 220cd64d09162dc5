// Package tui is the page-style front end: a document sidebar plus a chat
// panel over the shared session controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfchat/internal/session"
)

// SessionPort is the TUI-facing subset of the session controller.
type SessionPort interface {
	Ready() bool
	Rebuild(ctx context.Context) error
	Ask(ctx context.Context, question string) (string, error)
	ClearHistory()
	History() []session.Exchange
	Documents() []string
	Dir() string
}

const sidebarWidth = 30

type rebuildDoneMsg struct{ err error }
type askDoneMsg struct{ err error }

// Model is the Bubble Tea model for the chat application.
type Model struct {
	session  SessionPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	// The controller is not safe for concurrent use; it is read only on the
	// Update goroutine, and never while a rebuild/ask Cmd is in flight.
	// Rendering works off these snapshots, refreshed between actions.
	docs     []string
	history  []session.Exchange
	ready    bool
	status   string
	busy     bool
	busyVerb string
	sized    bool
	width    int
	height   int
}

// New creates a new TUI model instance.
func New(svc SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		session:  svc,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		docs:     svc.Documents(),
		history:  svc.History(),
		ready:    svc.Ready(),
		status:   "Not ready. Press ctrl+r to build the knowledge base.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.sized = true
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case rebuildDoneMsg:
		m.busy = false
		m.docs = m.session.Documents()
		m.history = m.session.History()
		m.ready = m.session.Ready()
		if msg.err != nil {
			m.status = "Rebuild failed: " + msg.err.Error()
		} else {
			m.status = "Knowledge base ready. Ask away."
		}
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case askDoneMsg:
		m.busy = false
		m.history = m.session.History()
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = "Answered."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.busy {
			// one action at a time
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+r":
			m.busy = true
			m.busyVerb = "Building knowledge base"
			return m, tea.Batch(m.spinner.Tick, m.rebuildCmd())
		case "ctrl+l":
			m.session.ClearHistory()
			m.history = nil
			m.status = "History cleared."
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		m.status = "Please enter a question."
		return m, nil
	}
	if !m.ready {
		m.status = "Not ready. Press ctrl+r to build the knowledge base first."
		return m, nil
	}
	m.input.Reset()
	m.busy = true
	m.busyVerb = "Generating response"
	return m, tea.Batch(m.spinner.Tick, m.askCmd(q))
}

func (m Model) rebuildCmd() tea.Cmd {
	svc := m.session
	return func() tea.Msg {
		return rebuildDoneMsg{err: svc.Rebuild(context.Background())}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	svc := m.session
	return func() tea.Msg {
		_, err := svc.Ask(context.Background(), question)
		return askDoneMsg{err: err}
	}
}

func (m *Model) layout() {
	_, fh := chatBoxStyle.GetFrameSize()
	_, ih := inputBoxStyle.GetFrameSize()
	reserved := 1 + 1 + ih + 1 // header + spacer + input frame + status
	vh := m.height - reserved - fh
	if vh < 3 {
		vh = 3
	}
	vw := m.width - sidebarWidth - 4
	if vw < 20 {
		vw = 20
	}
	m.viewport.Width = vw
	m.viewport.Height = vh
	m.input.Width = vw - 4
}

// View renders the sidebar, transcript, input and status line.
func (m Model) View() string {
	if !m.sized {
		return "Loading..."
	}
	header := titleStyle.Render("pdfchat") + " " + hintStyle.Render("enter: send · ctrl+r: rebuild · ctrl+l: clear · esc: quit")
	sidebar := sidebarStyle.Height(m.viewport.Height + 2).Render(m.renderSidebar())
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Width(m.viewport.Width + 2).Render(m.input.View())
	main := lipgloss.JoinVertical(lipgloss.Left, chat, input)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	status := m.status
	if m.busy {
		status = m.spinner.View() + m.busyVerb + "..."
	}
	return header + "\n" + body + "\n" + statusStyle.Render(status)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Documents"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.session.Dir()))
	b.WriteString("\n\n")
	if len(m.docs) == 0 {
		b.WriteString(hintStyle.Render("No PDFs found. Drop files\ninto the directory above\nand press ctrl+r."))
		return b.String()
	}
	for _, d := range m.docs {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	return b.String()
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		if !m.ready {
			return "The knowledge base has not been built yet.\nPress ctrl+r to build it from your PDFs."
		}
		return "No questions yet. Type one below and press enter."
	}
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("You: ") + ex.Question + "\n")
		b.WriteString(answerStyle.Render("Assistant: ") + ex.Answer + "\n")
	}
	return b.String()
}

var (
	titleStyle        = lipgloss.NewStyle().Bold(true)
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sidebarTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sidebarStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(sidebarWidth)
	chatBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	answerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)
