package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finintel/internal/mode"
)

func formatTokens(n int) string {
	return fmt.Sprintf("%d tokens", n)
}

func (m Model) View() string {
	if m.quit {
		return ""
	}
	if !m.ready {
		return "Initializing terminal..."
	}

	header := m.renderHeader()
	switch m.view {
	case UsageView:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.usagePage.View(),
			m.styles.Footer.Render("esc back"))
	case HelpView:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.renderHelp(),
			m.styles.Footer.Render("esc back"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.renderStatus(),
		m.textarea.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	cfg := mode.ConfigFor(m.ctrl.Mode())
	left := m.styles.Header.Render("FININTEL · " + cfg.Title)
	right := m.styles.Badge.Render(fmt.Sprintf("%s · %s", m.ctrl.Expertise(), m.ctrl.Goal()))
	if m.username != "" {
		right = m.styles.Muted.Render(m.username+" ") + right
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n" + m.styles.RenderDivider(m.width)
}

// renderStatus shows, in priority order: the surfaced error, the spinner,
// pending attachments and the last status line.
func (m Model) renderStatus() string {
	var lines []string
	if ae := m.ctrl.LastError(); ae != nil {
		line := m.styles.Error.Render(fmt.Sprintf("[%s] %s", ae.Category, ae.Message))
		if ae.Retryable {
			line += m.styles.Muted.Render("  /retry · esc dismiss")
		} else {
			line += m.styles.Muted.Render("  esc dismiss")
		}
		lines = append(lines, line)
	}
	if m.loading {
		lines = append(lines, m.spinner.View()+m.styles.Muted.Render(" Consulting intelligence node..."))
	}
	if pending := m.ctrl.PendingAttachments(); len(pending) > 0 {
		names := make([]string, len(pending))
		for i, a := range pending {
			names[i] = fmt.Sprintf("%d:%s", i+1, a.Name)
		}
		lines = append(lines, m.styles.Info.Render("📎 "+strings.Join(names, "  ")))
	}
	if m.status != "" && len(lines) < statusHeight {
		lines = append(lines, m.styles.Muted.Render(m.status))
	}
	for len(lines) < statusHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines[:statusHeight], "\n")
}

func (m Model) renderFooter() string {
	return m.styles.Footer.Render("enter send · tab next mode · /help commands · ctrl+c quit")
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Commands"))
	sb.WriteString("\n\n")
	for _, c := range Commands {
		sb.WriteString(fmt.Sprintf("  %-11s %-42s %s\n", c.Name, c.Args, m.styles.Muted.Render(c.Usage)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Title.Render("Modes"))
	sb.WriteString("\n\n")
	for _, md := range mode.All() {
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", md, mode.ConfigFor(md).Title))
	}
	return sb.String()
}
