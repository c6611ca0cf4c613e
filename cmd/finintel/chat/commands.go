package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"finintel/internal/attachments"
	"finintel/internal/mode"
	"finintel/internal/session"
)

// Command describes one slash command for /help.
type Command struct {
	Name  string
	Args  string
	Usage string
}

// Commands lists the slash commands in help order.
var Commands = []Command{
	{"/mode", "[MODE]", "Switch mode, or cycle to the next one"},
	{"/expertise", "BEGINNER|INTERMEDIATE|PRO", "Set the expertise modifier (no argument cycles)"},
	{"/goal", "ACCUMULATION|SCALPING|PRESERVATION|INCOME", "Set the goal modifier (no argument cycles)"},
	{"/quick", "", "Send the first-principles quick action"},
	{"/attach", "PATH", "Attach an image, PDF or text file to the next prompt"},
	{"/capture", "PATH", "Capture a frame from a device file"},
	{"/detach", "N", "Remove pending attachment N"},
	{"/retry", "", "Replay the last unanswered prompt"},
	{"/summary", "", "Summarize this mode's transcript"},
	{"/search", "[TERM]", "Filter the transcript; no term resets"},
	{"/clear", "", "Clear this mode's transcript"},
	{"/clearall", "", "Clear every mode"},
	{"/usage", "", "Show token usage"},
	{"/dismiss", "", "Dismiss the current error"},
	{"/help", "", "Show this help"},
	{"/quit", "", "Exit"},
}

func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
	m.status = ""

	switch name {
	case "/quit", "/exit":
		m.quit = true
		return m, tea.Quit

	case "/help":
		m.view = HelpView
		return m, nil

	case "/usage":
		m.usagePage.UpdateContent()
		m.view = UsageView
		return m, nil

	case "/dismiss":
		m.ctrl.DismissError()
		return m, nil

	case "/mode":
		next := mode.Next(m.ctrl.Mode())
		if arg != "" {
			parsed, err := mode.Parse(arg)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			next = parsed
		}
		if err := m.ctrl.SwitchMode(next); err != nil {
			m.surface(err)
		}
		m.filter = ""
		m.refresh()
		return m, nil

	case "/expertise":
		level := m.ctrl.Expertise().Next()
		if arg != "" {
			parsed, err := mode.ParseExpertise(arg)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			level = parsed
		}
		_ = m.ctrl.SetExpertise(level)
		m.status = "Expertise: " + string(level)
		return m, nil

	case "/goal":
		g := m.ctrl.Goal().Next()
		if arg != "" {
			parsed, err := mode.ParseGoal(arg)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			g = parsed
		}
		_ = m.ctrl.SetGoal(g)
		m.status = "Goal: " + string(g)
		return m, nil

	case "/quick":
		return m.send(mode.QuickAction)

	case "/attach":
		if arg == "" {
			m.status = "Usage: /attach PATH"
			return m, nil
		}
		if att, err := m.ctrl.AttachFile(arg); err == nil {
			m.status = fmt.Sprintf("Attached %s (%s)", att.Name, att.MIMEType)
		}
		return m, nil

	case "/capture":
		if arg == "" {
			m.status = "Usage: /capture PATH"
			return m, nil
		}
		if att, err := m.ctrl.AttachCapture(m.ctx, attachments.FileCapturer{Path: arg}); err == nil {
			m.status = fmt.Sprintf("Captured %s (%s)", att.Name, att.MIMEType)
		}
		return m, nil

	case "/detach":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.status = "Usage: /detach N"
			return m, nil
		}
		if err := m.ctrl.RemoveAttachment(n - 1); err != nil {
			m.surface(err)
		}
		return m, nil

	case "/retry":
		if m.loading {
			m.status = session.MsgBusy
			return m, nil
		}
		m.loading = true
		return m, m.exchange("retry", func(ctx context.Context) (*session.Turn, error) {
			return m.ctrl.Retry(ctx)
		})

	case "/summary", "/summarize":
		if m.loading {
			m.status = session.MsgBusy
			return m, nil
		}
		m.loading = true
		return m, m.exchange("summary", func(ctx context.Context) (*session.Turn, error) {
			return m.ctrl.Summarize(ctx)
		})

	case "/search":
		m.filter = arg
		m.refresh()
		if arg != "" {
			m.status = fmt.Sprintf("Filter: %q (recent: %s)", arg, strings.Join(m.ctrl.RecentSearches(), ", "))
		}
		return m, nil

	case "/clear":
		if n, err := m.ctrl.ClearHistory(); err == nil {
			m.status = fmt.Sprintf("Cleared %d turns from %s", n, m.ctrl.Mode())
		}
		m.refresh()
		return m, nil

	case "/clearall":
		if err := m.ctrl.ClearAll(); err == nil {
			m.status = "Cleared every mode"
		}
		m.refresh()
		return m, nil
	}

	m.status = fmt.Sprintf("Unknown command %s. /help lists commands.", name)
	return m, nil
}
