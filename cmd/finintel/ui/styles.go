// Package ui provides the visual styling for the FinIntel terminal.
// Light/dark palettes follow the trading-desk look of the web terminal.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Signal colours are shared by both themes.
var (
	Bullish = lipgloss.Color("#10b981") // emerald
	Bearish = lipgloss.Color("#f43f5e") // rose
	Caution = lipgloss.Color("#f59e0b") // amber
	Info    = lipgloss.Color("#6366f1") // indigo
)

// Theme is one desk palette.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Background: "#f5f7fa",
		Foreground: "#0b1220",
		Primary:    "#0b1220", // terminal navy
		Accent:     "#0ea5e9", // quote blue
		Muted:      "#64748b",
		Border:     "#cbd5e1",
		Card:       "#ffffff",
	}
}

func DarkTheme() Theme {
	return Theme{
		Background: "#05080f",
		Foreground: "#e2e8f0",
		Primary:    "#38bdf8",
		Accent:     "#38bdf8",
		Muted:      "#64748b",
		Border:     "#1e293b",
		Card:       "#0f172a",
		IsDark:     true,
	}
}

// ThemeFor resolves a ui.theme setting: "dark", "light" or "auto".
func ThemeFor(setting string) Theme {
	switch strings.ToLower(setting) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	}
	return DetectTheme()
}

// DetectTheme reads COLORFGBG ("fg;bg") and FININTEL_LIGHT_MODE. Dark wins
// when neither says otherwise.
func DetectTheme() Theme {
	if os.Getenv("FININTEL_LIGHT_MODE") == "1" {
		return LightTheme()
	}
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		// 7 and 9-15 are light backgrounds
		if bg, err := strconv.Atoi(parts[1]); err == nil && (bg == 7 || (bg >= 9 && bg <= 15)) {
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds every rendered component of the terminal.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Prompt        lipgloss.Style
	UserInput     lipgloss.Style
	AgentResponse lipgloss.Style

	Bullish lipgloss.Style
	Bearish lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	RiskCallout      lipgloss.Style
	DiscoveryCallout lipgloss.Style
	QuoteCallout     lipgloss.Style
	ActionCallout    lipgloss.Style

	Card    lipgloss.Style
	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

func fg(c lipgloss.TerminalColor) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

// leftRule is the single left border used by the inline callouts.
func leftRule(c lipgloss.TerminalColor) lipgloss.Style {
	return fg(c).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(c).PaddingLeft(1)
}

func NewStyles(t Theme) Styles {
	s := Styles{Theme: t}

	s.Header = fg(t.Background).Background(t.Primary).Bold(true).Padding(0, 2)
	s.Footer = fg(t.Muted).Padding(0, 2)
	s.Content = lipgloss.NewStyle().Padding(0, 1)

	s.Title = fg(t.Primary).Bold(true)
	s.Subtitle = fg(t.Muted).Italic(true)
	s.Body = fg(t.Foreground)
	s.Muted = fg(t.Muted)
	s.Bold = fg(t.Foreground).Bold(true)

	s.Prompt = fg(t.Accent).Bold(true)
	s.UserInput = fg(t.Foreground).PaddingLeft(2)
	s.AgentResponse = fg(t.Foreground).
		BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(t.Accent).
		PaddingLeft(1)

	s.Bullish = fg(Bullish).Bold(true)
	s.Bearish = fg(Bearish).Bold(true)
	s.Warning = fg(Caution).Bold(true)
	s.Error = fg(Bearish).Bold(true)
	s.Info = fg(Info)

	s.RiskCallout = leftRule(Bearish).Bold(true)
	s.QuoteCallout = leftRule(t.Accent).Foreground(t.Muted).Italic(true)
	s.ActionCallout = leftRule(Bullish)
	s.DiscoveryCallout = fg(Info).Bold(true).
		Border(lipgloss.RoundedBorder()).BorderForeground(Info).
		Padding(0, 1)

	s.Card = fg(t.Foreground).Background(t.Card).
		Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).
		Padding(0, 1)
	s.Spinner = fg(t.Accent)
	s.Divider = fg(t.Border)
	s.Badge = fg(t.Background).Background(t.Accent).Bold(true).Padding(0, 1)
	return s
}

// DefaultStyles uses the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

const banner = `
  ___ _      ___     _       _
 | __(_)_ _ |_ _|_ _| |_ ___| |
 | _|| | ' \ | || ' \  _/ -_) |
 |_| |_|_||_|___|_||_\__\___|_|
`

// Logo returns the FinIntel banner.
func Logo(s Styles) string {
	return s.Title.Render(banner)
}

func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", max(width, 1)))
}
