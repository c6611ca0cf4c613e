package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_KEY", "GEMINI_API_KEY", "FININTEL_MODEL", "FININTEL_DB", "FININTEL_HISTORY_WINDOW", "FININTEL_METRICS_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "finintel", cfg.Name)
	assert.Equal(t, "gemini-3-pro-preview", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Conversation.HistoryWindow)
	assert.Equal(t, int32(4000), cfg.LLM.ThinkingBudget)
	assert.True(t, cfg.LLM.SearchGrounding)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM, cfg.LLM)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "gemini-2.5-flash"
	cfg.LLM.APIKey = "must-not-be-written"
	cfg.Conversation.HistoryWindow = 6
	require.NoError(t, cfg.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "must-not-be-written")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", loaded.LLM.Model)
	assert.Equal(t, 6, loaded.Conversation.HistoryWindow)
	assert.Empty(t, loaded.LLM.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "generic-key")
	t.Setenv("FININTEL_MODEL", "gemini-flash-latest")
	t.Setenv("FININTEL_DB", "/tmp/x.db")
	t.Setenv("FININTEL_HISTORY_WINDOW", "10")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-flash-latest", cfg.LLM.Model)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 10, cfg.Conversation.HistoryWindow)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey, "GEMINI_API_KEY takes priority")
}

func TestInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"window", func(c *Config) { c.Conversation.HistoryWindow = 0 }},
		{"model", func(c *Config) { c.LLM.Model = "" }},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"budget", func(c *Config) { c.LLM.ThinkingBudget = -1 }},
		{"timeout", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"database", func(c *Config) { c.Storage.DatabasePath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 45*time.Second, cfg.GetLLMTimeout())
	cfg.LLM.Timeout = "garbage"
	assert.Equal(t, 45*time.Second, cfg.GetLLMTimeout())
	cfg.LLM.Timeout = "30s"
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())

	cfg.Auth.SessionTTL = "-1h"
	assert.Equal(t, 12*time.Hour, cfg.GetSessionTTL())
}

func TestCredentialProviders(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, "", DefaultEnvCredential().APIKey())
	t.Setenv("API_KEY", "k1")
	assert.Equal(t, "k1", DefaultEnvCredential().APIKey())

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "cfg-key"
	assert.Equal(t, "cfg-key", cfg.Credential().APIKey())
}

func TestLoggingOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/data"
	cfg.Logging.Format = "json"
	opts := cfg.LoggingOptions()
	assert.Equal(t, filepath.Join("/data", "logs"), opts.Dir)
	assert.True(t, opts.JSONFormat)
}
