package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finintel/internal/mode"
	"finintel/internal/session"
)

var (
	askAttach []string
	askRetry  bool
	clearAll  bool
)

// askCmd sends a single prompt in the selected mode
var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send one prompt in the selected mode",
	Long: `Appends the prompt to the mode's transcript, asks the intelligence node
and prints the analysis with its extracted signals and sources.

Examples:
  finintel ask "Analyze BTC"
  finintel ask -m ANALYST "Assess NVDA's moat"
  finintel ask --attach chart.png "Read this chart"
  finintel ask --retry`,
	RunE: runAsk,
}

// summarizeCmd condenses the mode transcript
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the selected mode's transcript into a brief",
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear stored transcripts",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the selected mode's transcript",
	Args:  cobra.NoArgs,
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the selected mode's transcript (--all for every mode)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historySearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the selected mode's transcript",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistorySearch,
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List conversation modes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, m := range mode.All() {
			mc := mode.ConfigFor(m)
			headColor.Fprintf(out, "%-12s", m)
			fmt.Fprintf(out, " %s\n", mc.Title)
			mutedColor.Fprintf(out, "             %s\n", mc.Description)
		}
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		printUsage(cmd.OutOrStdout(), a.tracker.Stats())
		return nil
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askAttach, "attach", "a", nil, "Attach an image, PDF or text file (repeatable)")
	askCmd.Flags().BoolVar(&askRetry, "retry", false, "Replay the last unanswered prompt of the mode")
	historyClearCmd.Flags().BoolVar(&clearAll, "all", false, "Clear every mode")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historySearchCmd)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	text := strings.TrimSpace(strings.Join(args, " "))
	if !askRetry && text == "" && len(askAttach) == 0 {
		return fmt.Errorf("provide a prompt, an attachment or --retry")
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	for _, path := range askAttach {
		if _, err := a.ctrl.AttachFile(path); err != nil {
			return err
		}
	}

	logger.Info("asking", zap.String("mode", string(a.ctrl.Mode())), zap.Bool("retry", askRetry))
	var turn *session.Turn
	if askRetry {
		turn, err = a.ctrl.Retry(ctx)
	} else {
		turn, err = a.ctrl.Send(ctx, text)
	}
	if err != nil {
		return err
	}
	printReply(cmd.OutOrStdout(), turn.Reply, turn.Analysis)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	turn, err := a.ctrl.Summarize(ctx)
	if err != nil {
		return err
	}
	printReply(cmd.OutOrStdout(), turn.Reply, turn.Analysis)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	msgs := a.ctrl.Transcript()
	if len(msgs) == 0 {
		mutedColor.Fprintf(cmd.OutOrStdout(), "No turns recorded in %s.\n", a.ctrl.Mode())
		return nil
	}
	printTranscript(cmd.OutOrStdout(), msgs)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if clearAll {
		if err := a.ctrl.ClearAll(); err != nil {
			return err
		}
		okColor.Fprintln(out, "Cleared every mode.")
		return nil
	}
	n, err := a.ctrl.ClearHistory()
	if err != nil {
		return err
	}
	okColor.Fprintf(out, "Cleared %d turns from %s.\n", n, a.ctrl.Mode())
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		terms := a.ctrl.RecentSearches()
		if len(terms) == 0 {
			mutedColor.Fprintln(out, "No recent searches.")
			return nil
		}
		headColor.Fprintln(out, "Recent searches:")
		for _, t := range terms {
			fmt.Fprintln(out, "  "+t)
		}
		return nil
	}

	hits := a.ctrl.Search(args[0])
	if len(hits) == 0 {
		mutedColor.Fprintf(out, "No turns in %s match %q.\n", a.ctrl.Mode(), args[0])
		return nil
	}
	printTranscript(out, hits)
	return nil
}
