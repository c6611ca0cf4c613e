package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"finintel/internal/logging"
	"finintel/internal/mode"
	"finintel/internal/session"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case replyMsg:
		m.loading = false
		m.status = ""
		if msg.err != nil {
			// The controller already holds the error for the status bar.
			logging.UIDebug("%s failed: %v", msg.kind, msg.err)
		} else if msg.turn != nil && msg.turn.Usage.Total > 0 {
			m.status = formatTokens(msg.turn.Usage.Total)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	if m.view == UsageView {
		var cmd tea.Cmd
		m.usagePage, cmd = m.usagePage.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quit = true
		return m, tea.Quit, true

	case tea.KeyEsc:
		if m.view != ChatView {
			m.view = ChatView
			return m, nil, true
		}
		m.ctrl.DismissError()
		m.status = ""
		return m, nil, true

	case tea.KeyTab:
		if m.view == ChatView && !m.loading {
			if err := m.ctrl.SwitchMode(m.nextMode()); err != nil {
				m.surface(err)
			}
			m.filter = ""
			m.refresh()
			return m, nil, true
		}

	case tea.KeyEnter:
		if m.view != ChatView {
			return m, nil, true
		}
		input := strings.TrimSpace(m.textarea.Value())
		m.textarea.Reset()
		if strings.HasPrefix(input, "/") {
			model, cmd := m.runCommand(input)
			return model, cmd, true
		}
		model, cmd := m.send(input)
		return model, cmd, true
	}
	return m, nil, false
}

func (m Model) nextMode() mode.Mode {
	return mode.Next(m.ctrl.Mode())
}

// send starts an exchange unless one is already running.
func (m Model) send(text string) (tea.Model, tea.Cmd) {
	if m.loading {
		m.status = session.MsgBusy
		return m, nil
	}
	if text == "" && len(m.ctrl.PendingAttachments()) == 0 {
		return m, nil
	}
	m.loading = true
	m.status = ""
	m.filter = ""
	return m, m.exchange("send", func(ctx context.Context) (*session.Turn, error) {
		return m.ctrl.Send(ctx, text)
	})
}
