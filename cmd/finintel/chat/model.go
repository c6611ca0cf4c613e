// Package chat implements the interactive FinIntel terminal.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"finintel/cmd/finintel/ui"
	"finintel/internal/apperr"
	"finintel/internal/logging"
	"finintel/internal/mode"
	"finintel/internal/session"
	"finintel/internal/types"
	"finintel/internal/usage"
)

// ViewMode determines which component is focused/active
type ViewMode int

const (
	ChatView ViewMode = iota
	UsageView
	HelpView
)

const (
	headerHeight = 2
	footerHeight = 1
	inputHeight  = 3
	statusHeight = 2
)

// Config holds configuration for initializing the chat interface.
type Config struct {
	Controller *session.Controller
	Tracker    *usage.Tracker
	Styles     ui.Styles
	Username   string
}

// replyMsg carries the outcome of an exchange back to Update.
type replyMsg struct {
	kind string // send, retry, summary
	turn *session.Turn
	err  error
}

// Model is the bubbletea model of the chat terminal.
type Model struct {
	ctx      context.Context
	ctrl     *session.Controller
	styles   ui.Styles
	username string

	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	usagePage ui.UsagePageModel
	md        *ui.MarkdownView

	view    ViewMode
	ready   bool
	width   int
	height  int
	loading bool
	status  string
	filter  string
	quit    bool
}

// New builds the chat model.
func New(ctx context.Context, cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask the intelligence node… (/help for commands)"
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight - 1)
	ta.CharLimit = 8000
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Styles.Spinner

	return Model{
		ctx:       ctx,
		ctrl:      cfg.Controller,
		styles:    cfg.Styles,
		username:  cfg.Username,
		textarea:  ta,
		spinner:   sp,
		usagePage: ui.NewUsagePageModel(cfg.Tracker, cfg.Styles),
		md:        ui.NewMarkdownView(cfg.Styles, 76),
	}
}

// Run starts the terminal program and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// exchange runs fn off the UI goroutine.
func (m Model) exchange(kind string, fn func(context.Context) (*session.Turn, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		turn, err := fn(ctx)
		return replyMsg{kind: kind, turn: turn, err: err}
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	chatWidth := w - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	vpHeight := h - headerHeight - footerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(chatWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(chatWidth - 2)
	m.usagePage.SetSize(w, h-headerHeight)
	if m.md.Width() != chatWidth-4 {
		m.md = ui.NewMarkdownView(m.styles, chatWidth-4)
	}
	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	msgs := m.ctrl.Transcript()
	if m.filter != "" {
		msgs = m.ctrl.Search(m.filter)
	}
	if len(msgs) == 0 {
		return m.emptyState()
	}

	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) emptyState() string {
	cfg := mode.ConfigFor(m.ctrl.Mode())
	var sb strings.Builder
	sb.WriteString(ui.Logo(m.styles))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Title.Render(cfg.Title))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Subtitle.Render(cfg.Description))
	sb.WriteString("\n\n")
	if m.filter != "" {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("No turns match %q. /search to reset.", m.filter)))
		return sb.String()
	}
	sb.WriteString(m.styles.Muted.Render("Type a question, or /quick for: " + mode.QuickAction))
	return sb.String()
}

func (m Model) renderMessage(msg types.ChatMessage) string {
	ts := msg.Time().Format("15:04")
	if msg.Role == types.RoleUser {
		var sb strings.Builder
		sb.WriteString(m.styles.Prompt.Render("▶ YOU") + " " + m.styles.Muted.Render(ts) + "\n")
		sb.WriteString(m.styles.UserInput.Render(msg.Content))
		for _, att := range msg.Attachments {
			sb.WriteString("\n" + m.styles.Muted.Render(fmt.Sprintf("  📎 %s (%s)", att.Name, att.MIMEType)))
		}
		return sb.String()
	}

	parts := []string{
		m.styles.Title.Render("◆ INTEL "+string(msg.Mode)) + " " + m.styles.Muted.Render(ts),
		m.md.Render(msg.Content),
	}
	if card := m.md.SignalCard(m.ctrl.Analyze(mode.Mode(msg.Mode), msg.Content)); card != "" {
		parts = append(parts, card)
	}
	if src := m.md.Sources(msg.Sources); src != "" {
		parts = append(parts, src)
	}
	return m.styles.AgentResponse.Render(strings.Join(parts, "\n"))
}

// surface logs and shows an error not owned by the controller.
func (m *Model) surface(err error) {
	ae := apperr.Wrap(err)
	logging.UIDebug("ui error: %v", ae)
	m.status = fmt.Sprintf("[%s] %s", ae.Category, ae.Message)
}
