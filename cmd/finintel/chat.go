package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finintel/cmd/finintel/chat"
	"finintel/cmd/finintel/ui"
)

// chatCmd launches the interactive terminal
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
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

	username := ""
	if cfg.Auth.Required {
		username = a.auth.Registry.LastUsername()
	}
	if !isTerminal(os.Stdin) {
		return fmt.Errorf("chat needs an interactive terminal; use 'finintel ask' for scripted prompts")
	}

	logger.Info("starting chat", zap.String("mode", string(a.ctrl.Mode())), zap.String("theme", cfg.UI.Theme))
	return chat.Run(ctx, chat.Config{
		Controller: a.ctrl,
		Tracker:    a.tracker,
		Styles:     ui.NewStyles(ui.ThemeFor(cfg.UI.Theme)),
		Username:   username,
	})
}
