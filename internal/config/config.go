package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"finintel/internal/logging"
)

// Config holds all finintel configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Conversation handling
	Conversation ConversationConfig `yaml:"conversation"`

	// Persisted state
	Storage StorageConfig `yaml:"storage"`

	// Operator sessions
	Auth AuthConfig `yaml:"auth"`

	// Observability
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	ThinkingBudget  int32   `yaml:"thinking_budget"`
	SearchGrounding bool    `yaml:"search_grounding"`
	Timeout         string  `yaml:"timeout"`

	// ConnectivityHost is dialed before each request; empty disables the probe.
	ConnectivityHost string `yaml:"connectivity_host"`
}

// ConversationConfig configures prompt assembly.
type ConversationConfig struct {
	HistoryWindow    int    `yaml:"history_window"`
	DefaultMode      string `yaml:"default_mode"`
	DefaultExpertise string `yaml:"default_expertise"`
	DefaultGoal      string `yaml:"default_goal"`
}

// StorageConfig configures persisted state.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`
}

// AuthConfig configures operator sessions.
type AuthConfig struct {
	Required   bool   `yaml:"required"`
	SessionTTL string `yaml:"session_ttl"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Categories map[string]bool `yaml:"categories,omitempty"`
	MaxSizeMB  int             `yaml:"max_size_mb"`
	MaxBackups int             `yaml:"max_backups"`
	MaxAgeDays int             `yaml:"max_age_days"`
}

// UIConfig configures the chat terminal.
type UIConfig struct {
	Theme string `yaml:"theme"` // auto, dark, light
}

// DefaultDataDir returns ~/.finintel, falling back to ./.finintel.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".finintel"
	}
	return filepath.Join(home, ".finintel")
}

// DefaultConfigPath returns the config file inside the default data dir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Name:    "finintel",
		Version: "3.0.0",

		LLM: LLMConfig{
			Model:            "gemini-3-pro-preview",
			Temperature:      0.5,
			ThinkingBudget:   4000,
			SearchGrounding:  true,
			Timeout:          "45s",
			ConnectivityHost: "generativelanguage.googleapis.com:443",
		},

		Conversation: ConversationConfig{
			HistoryWindow:    8,
			DefaultMode:      "TRADING",
			DefaultExpertise: "INTERMEDIATE",
			DefaultGoal:      "ACCUMULATION",
		},

		Storage: StorageConfig{
			DataDir:      dataDir,
			DatabasePath: filepath.Join(dataDir, "finintel.db"),
		},

		Auth: AuthConfig{
			Required:   false,
			SessionTTL: "12h",
		},

		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},

		UI: UIConfig{Theme: "auto"},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// A .env file in the working directory is read first; it never overrides
// variables already present in the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.BootError("failed to read .env: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. The API key is never written.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.LLM.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key from environment (later entries take priority)
	if key := os.Getenv("API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if model := os.Getenv("FININTEL_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("FININTEL_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if w := os.Getenv("FININTEL_HISTORY_WINDOW"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			c.Conversation.HistoryWindow = n
		}
	}
	if addr := os.Getenv("FININTEL_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
	}
}

// GetLLMTimeout returns the request timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// GetSessionTTL returns the operator session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// LogsDir returns the directory for rotated log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Storage.DataDir, "logs")
}

// UsagePath returns the token usage file.
func (c *Config) UsagePath() string {
	return filepath.Join(c.Storage.DataDir, "usage.json")
}

// LoggingOptions converts the logging section for logging.Initialize.
func (c *Config) LoggingOptions() logging.Config {
	return logging.Config{
		DebugMode:  c.Logging.DebugMode,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.Format == "json",
		Dir:        c.LogsDir(),
		Categories: c.Logging.Categories,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}

// Validate validates the configuration. A missing API key is not an error
// here: the client reports it as an AUTH failure on first use.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must be set")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.ThinkingBudget < 0 {
		return fmt.Errorf("llm.thinking_budget must not be negative")
	}
	if c.Conversation.HistoryWindow < 1 {
		return fmt.Errorf("conversation.history_window must be at least 1, got %d", c.Conversation.HistoryWindow)
	}
	if c.LLM.Timeout != "" {
		if d, err := time.ParseDuration(c.LLM.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("llm.timeout must be a positive duration, got %q", c.LLM.Timeout)
		}
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path must be set")
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("invalid ui.theme: %s (valid: auto, dark, light)", c.UI.Theme)
	}
	return nil
}
