package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"finintel/internal/config"
	"finintel/internal/logging"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	apiKey      string
	modeFlag    string
	expertise   string
	goal        string
	metricsAddr string
	timeout     time.Duration

	// Logger
	logger *zap.Logger

	// Loaded configuration
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finintel",
	Short: "FinIntel - institutional-grade financial intelligence terminal",
	Long: `FinIntel is a multi-mode financial assistant backed by Gemini.

Each mode (TRADING, PORTFOLIO, ANALYST, MENTOR, ...) has its own persona and
its own transcript. Expertise and goal modifiers tune every answer.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := logging.Initialize(cfg.LoggingOptions()); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("model", cfg.LLM.Model),
			zap.String("db", cfg.Storage.DatabasePath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runChat(cmd, args)
	},
}

// applyFlags layers explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if flags.Changed("mode") {
		c.Conversation.DefaultMode = modeFlag
	}
	if flags.Changed("expertise") {
		c.Conversation.DefaultExpertise = expertise
	}
	if flags.Changed("goal") {
		c.Conversation.DefaultGoal = goal
	}
	if flags.Changed("metrics-addr") {
		c.Metrics.Addr = metricsAddr
	}
	if flags.Changed("timeout") {
		c.LLM.Timeout = timeout.String()
	}
	if verbose {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.finintel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "TRADING", "Conversation mode")
	rootCmd.PersistentFlags().StringVar(&expertise, "expertise", "INTERMEDIATE", "Expertise level: BEGINNER, INTERMEDIATE, PRO")
	rootCmd.PersistentFlags().StringVar(&goal, "goal", "ACCUMULATION", "Financial goal: ACCUMULATION, SCALPING, PRESERVATION, INCOME")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "Model request timeout")

	// Add commands to root
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
