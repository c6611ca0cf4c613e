package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"golang.org/x/term"

	"finintel/internal/apperr"
	"finintel/internal/interpret"
	"finintel/internal/types"
	"finintel/internal/usage"
)

var (
	headColor  = color.New(color.FgCyan, color.Bold)
	mutedColor = color.New(color.FgHiBlack)
	errColor   = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

// printError renders an AppError with its category and a retry hint.
func printError(w io.Writer, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		errColor.Fprintf(w, "error: %v\n", err)
		return
	}
	errColor.Fprintf(w, "[%s] ", ae.Category)
	fmt.Fprintln(w, ae.Message)
	if ae.Retryable {
		mutedColor.Fprintln(w, "  retry with: finintel ask --retry")
	}
}

// renderMarkdown formats reply text for a terminal; plain text elsewhere.
func renderMarkdown(text string, width int) string {
	if !isTerminal(os.Stdout) {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}

func printReply(w io.Writer, msg *types.ChatMessage, a interpret.Analysis) {
	if msg == nil {
		return
	}
	fmt.Fprintln(w, renderMarkdown(msg.Content, terminalWidth()-4))
	printAnalysis(w, a)
	printSources(w, msg.Sources)
}

func printAnalysis(w io.Writer, a interpret.Analysis) {
	lines := analysisLines(a)
	if len(lines) == 0 {
		return
	}
	headColor.Fprintln(w, "── SIGNALS ──")
	for _, l := range lines {
		fmt.Fprintln(w, "  "+l)
	}
}

// analysisLines flattens the mode widgets into label: value lines.
func analysisLines(a interpret.Analysis) []string {
	var out []string
	if t := a.Technical; t != nil && t.HasSignal() {
		out = append(out, "Bias: "+string(t.Bias))
		if len(t.Resistance) > 0 {
			out = append(out, "Resistance: "+strings.Join(t.Resistance, " / "))
		}
		if len(t.Support) > 0 {
			out = append(out, "Support: "+strings.Join(t.Support, " / "))
		}
		if t.RiskReward != "" {
			out = append(out, "Risk/Reward: "+t.RiskReward)
		}
		if t.Volatility != "" {
			out = append(out, "Volatility: "+t.Volatility)
		}
		if t.LiveQuote != "" {
			out = append(out, "Live quote: "+t.LiveQuote)
		}
	}
	if p := a.Portfolio; p != nil {
		if p.RiskCategory != "" {
			out = append(out, "Risk category: "+p.RiskCategory)
		}
		out = append(out, fmt.Sprintf("Rebalancing urgency: %d/10", p.Urgency))
	}
	if an := a.Analyst; an != nil {
		if an.Valuation != "" {
			out = append(out, "Valuation: "+an.Valuation)
		}
		out = append(out, "Moat: "+an.Moat)
	}
	if s := a.Sentiment; s != nil {
		out = append(out, fmt.Sprintf("Mood: %s (%d/100)", s.Label, s.Score))
	}
	if m := a.Mentor; m != nil && m.Discovery {
		out = append(out, "Discovery session active")
	}
	if len(a.Cautions) > 0 {
		out = append(out, "Cautions: "+strings.Join(a.Cautions, ", "))
	}
	return out
}

func printSources(w io.Writer, sources []types.Source) {
	if len(sources) == 0 {
		return
	}
	headColor.Fprintln(w, "── SOURCES ──")
	for i, s := range sources {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.Title)
		mutedColor.Fprintf(w, "     %s\n", s.URI)
	}
}

func printTranscript(w io.Writer, msgs []types.ChatMessage) {
	for _, m := range msgs {
		ts := m.Time().Format("2006-01-02 15:04")
		if m.Role == types.RoleUser {
			okColor.Fprintf(w, "▶ YOU  ")
		} else {
			headColor.Fprintf(w, "◆ INTEL ")
		}
		mutedColor.Fprintf(w, "%s [%s]\n", ts, m.Mode)
		fmt.Fprintln(w, m.Content)
		for _, att := range m.Attachments {
			mutedColor.Fprintf(w, "  📎 %s (%s)\n", att.Name, att.MIMEType)
		}
		fmt.Fprintln(w)
	}
}

func printUsage(w io.Writer, stats usage.AggregatedStats) {
	headColor.Fprintln(w, "Token Usage Statistics")
	fmt.Fprintf(w, "Requests:     %d (%d failed)\n", stats.Requests, stats.Failures)
	fmt.Fprintf(w, "Total Input:  %d\n", stats.Total.Input)
	fmt.Fprintf(w, "Total Output: %d\n", stats.Total.Output)
	fmt.Fprintf(w, "Thoughts:     %d\n", stats.Total.Thoughts)
	fmt.Fprintf(w, "Grand Total:  %d\n\n", stats.Total.Total)

	renderTable := func(title string, data map[string]usage.TokenCounts) {
		if len(data) == 0 {
			return
		}
		headColor.Fprintln(w, title)
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%-22s | %-10s | %-10s | %-10s | %-10s\n", "Name", "Input", "Output", "Thoughts", "Total")
		fmt.Fprintln(w, strings.Repeat("-", 74))
		for _, k := range keys {
			c := data[k]
			fmt.Fprintf(w, "%-22s | %-10d | %-10d | %-10d | %-10d\n", truncate(k, 22), c.Input, c.Output, c.Thoughts, c.Total)
		}
		fmt.Fprintln(w)
	}
	renderTable("By Model", stats.ByModel)
	renderTable("By Mode", stats.ByMode)
	renderTable("By Operation", stats.ByOperation)
}

func truncate(s string, l int) string {
	if len(s) > l {
		return s[:l-3] + "..."
	}
	return s
}

var stdin = bufio.NewReader(os.Stdin)

func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo on a terminal.
func promptPassword(label string) (string, error) {
	if !isTerminal(os.Stdin) {
		return promptLine(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
