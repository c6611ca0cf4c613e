package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"finintel/internal/interpret"
	"finintel/internal/types"
)

// MarkdownView renders assistant text: plain runs go through glamour,
// callout lines get their own styling.
type MarkdownView struct {
	styles   Styles
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownView creates a view wrapping at width. A nil renderer is
// tolerated; text is then emitted unformatted.
func NewMarkdownView(styles Styles, width int) *MarkdownView {
	if width < 20 {
		width = 20
	}
	style := "dark"
	if !styles.Theme.IsDark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}
	return &MarkdownView{styles: styles, renderer: r, width: width}
}

// Width returns the wrap width.
func (v *MarkdownView) Width() int { return v.width }

// Render formats text block by block.
func (v *MarkdownView) Render(text string) string {
	var out strings.Builder
	var run []string

	flush := func() {
		if len(run) == 0 {
			return
		}
		out.WriteString(v.markdown(strings.Join(run, "\n")))
		run = run[:0]
	}

	for _, b := range interpret.Blocks(text) {
		switch b.Kind {
		case interpret.BlockRiskHeader:
			flush()
			out.WriteString(v.styles.RiskCallout.Render("⚠ "+strings.Trim(b.Text, "#* ")) + "\n")
		case interpret.BlockDiscovery:
			flush()
			out.WriteString(v.styles.DiscoveryCallout.Render(strings.TrimSpace(b.Text)) + "\n")
		case interpret.BlockQuote:
			flush()
			out.WriteString(v.styles.QuoteCallout.Render(strings.TrimPrefix(b.Text, "> ")) + "\n")
		case interpret.BlockAction:
			flush()
			out.WriteString(v.styles.ActionCallout.Render("➜ "+strings.TrimSpace(b.Text)) + "\n")
		default:
			run = append(run, b.Text)
		}
	}
	flush()
	return strings.TrimRight(out.String(), "\n")
}

func (v *MarkdownView) markdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return "\n"
	}
	if v.renderer == nil {
		return md + "\n"
	}
	rendered, err := v.renderer.Render(md)
	if err != nil {
		return md + "\n"
	}
	return strings.Trim(rendered, "\n") + "\n"
}

// SignalCard renders the mode widgets of an analysis, or "" when nothing
// was extracted.
func (v *MarkdownView) SignalCard(a interpret.Analysis) string {
	var lines []string
	if t := a.Technical; t != nil && t.HasSignal() {
		lines = append(lines, "BIAS "+v.bias(t.Bias))
		if len(t.Resistance) > 0 {
			lines = append(lines, "RESISTANCE "+strings.Join(t.Resistance, " · "))
		}
		if len(t.Support) > 0 {
			lines = append(lines, "SUPPORT    "+strings.Join(t.Support, " · "))
		}
		if t.RiskReward != "" {
			lines = append(lines, "R/R        "+t.RiskReward)
		}
		if t.Volatility != "" {
			lines = append(lines, "VOLATILITY "+t.Volatility)
		}
		if t.LiveQuote != "" {
			lines = append(lines, "LIVE       "+t.LiveQuote)
		}
	}
	if p := a.Portfolio; p != nil {
		lines = append(lines,
			"RISK    "+p.RiskCategory,
			fmt.Sprintf("URGENCY %s %d/10", gauge(p.Urgency, 10), p.Urgency))
	}
	if an := a.Analyst; an != nil {
		lines = append(lines, "VALUATION "+an.Valuation, "MOAT      "+an.Moat)
	}
	if s := a.Sentiment; s != nil {
		lines = append(lines, fmt.Sprintf("MOOD %s %s (%d)", gauge(s.Score/10, 10), s.Label, s.Score))
	}
	if m := a.Mentor; m != nil && m.Discovery {
		lines = append(lines, v.styles.Info.Render("DISCOVERY SESSION ACTIVE"))
	}
	if len(a.Cautions) > 0 {
		lines = append(lines, v.styles.Warning.Render("CAUTION "+strings.ToUpper(strings.Join(a.Cautions, " · "))))
	}
	if len(lines) == 0 {
		return ""
	}
	return v.styles.Card.Render(strings.Join(lines, "\n"))
}

func (v *MarkdownView) bias(b interpret.Bias) string {
	switch b {
	case interpret.Bullish:
		return v.styles.Bullish.Render("▲ " + string(b))
	case interpret.Bearish:
		return v.styles.Bearish.Render("▼ " + string(b))
	}
	return v.styles.Muted.Render("■ " + string(b))
}

func gauge(n, max int) string {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return strings.Repeat("█", n) + strings.Repeat("░", max-n)
}

// Sources renders grounding citations.
func (v *MarkdownView) Sources(sources []types.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(v.styles.Muted.Render("SOURCES"))
	for i, s := range sources {
		sb.WriteString(fmt.Sprintf("\n %d. %s %s", i+1, s.Title, v.styles.Muted.Render(s.URI)))
	}
	return sb.String()
}
