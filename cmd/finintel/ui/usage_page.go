package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"finintel/internal/usage"
)

const shareBarWidth = 20

// UsagePageModel is the scrollable token ledger behind /usage.
type UsagePageModel struct {
	viewport viewport.Model
	tracker  *usage.Tracker
	styles   Styles
}

func NewUsagePageModel(tracker *usage.Tracker, styles Styles) UsagePageModel {
	return UsagePageModel{
		viewport: viewport.New(80, 20),
		tracker:  tracker,
		styles:   styles,
	}
}

// SetSize leaves two rows for the page header and footer.
func (m *UsagePageModel) SetSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = max(h-2, 3)
	m.UpdateContent()
}

func (m *UsagePageModel) UpdateContent() {
	m.viewport.SetContent(m.Content())
}

// Content renders the ledger: totals, then the token share per mode,
// operation and model, then outcomes.
func (m *UsagePageModel) Content() string {
	if m.tracker == nil {
		return "Usage tracking not available."
	}
	stats := m.tracker.Stats()
	if stats.Requests == 0 {
		return m.styles.Muted.Render("No requests recorded yet.")
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("TOKEN LEDGER"))
	sb.WriteString("\n\n")

	okRate := 100 * float64(stats.Requests-stats.Failures) / float64(stats.Requests)
	summary := fmt.Sprintf("Requests %d · success %.0f%%\nInput %d · Output %d · Thoughts %d\nGrand Total %d",
		stats.Requests, okRate, stats.Total.Input, stats.Total.Output, stats.Total.Thoughts, stats.Total.Total)
	sb.WriteString(m.styles.Card.Render(summary))
	sb.WriteString("\n\n")

	m.writeShares(&sb, "By Mode", stats.ByMode, stats.Total.Total)
	m.writeShares(&sb, "By Operation", stats.ByOperation, stats.Total.Total)
	m.writeShares(&sb, "By Model", stats.ByModel, stats.Total.Total)

	if len(stats.ByOutcome) > 0 {
		sb.WriteString(m.styles.Subtitle.Render("Outcomes"))
		sb.WriteString("\n")
		for _, k := range sortedKeys(stats.ByOutcome) {
			style := m.styles.Bearish
			if k == usage.OutcomeOK {
				style = m.styles.Bullish
			}
			sb.WriteString(fmt.Sprintf("  %-14s %s\n", k, style.Render(fmt.Sprint(stats.ByOutcome[k]))))
		}
	}
	return sb.String()
}

// writeShares lists each bucket by descending total with a share bar.
func (m *UsagePageModel) writeShares(sb *strings.Builder, title string, data map[string]usage.TokenCounts, grand int64) {
	if len(data) == 0 {
		return
	}
	keys := sortedKeys(data)
	sort.SliceStable(keys, func(i, j int) bool { return data[keys[i]].Total > data[keys[j]].Total })

	sb.WriteString(m.styles.Subtitle.Render(title))
	sb.WriteString("\n")
	for _, k := range keys {
		c := data[k]
		filled := 0
		if grand > 0 {
			filled = int(c.Total * shareBarWidth / grand)
		}
		sb.WriteString(fmt.Sprintf("  %-22s %s %8d  (in %d / out %d)\n",
			clip(k, 22), m.styles.Info.Render(gauge(filled, shareBarWidth)), c.Total, c.Input, c.Output))
	}
	sb.WriteString("\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func (m UsagePageModel) Update(msg tea.Msg) (UsagePageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m UsagePageModel) View() string {
	return m.viewport.View()
}
