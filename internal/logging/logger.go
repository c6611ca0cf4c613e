// Package logging provides config-driven categorized logging for finintel.
// Entries go to a size-rotated file under the configured log directory.
// Logging is controlled by debug_mode in the config file: when false, nothing is written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot        Category = "boot"        // Boot/initialization
	CategorySession     Category = "session"     // Chat session controller
	CategoryAPI         Category = "api"         // LLM API calls
	CategoryPrompt      Category = "prompt"      // Prompt assembly
	CategoryInterpret   Category = "interpret"   // Response field extraction
	CategoryStore       Category = "store"       // Persisted state (history, searches, users)
	CategoryAuth        Category = "auth"        // Registration, login, sessions
	CategoryAttachments Category = "attachments" // Attachment ingestion and capture
	CategoryUsage       Category = "usage"       // Token usage tracking
	CategoryUI          Category = "ui"          // Terminal UI
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Dir        string
	Categories map[string]bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger is a category-scoped façade over a shared zap core.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	cfg     Config
	base    *zap.Logger
	rotator *lumberjack.Logger
	loggers = make(map[Category]*Logger)
)

// Initialize sets up the rotating log file and the shared core.
// With DebugMode off, every logger stays a no-op.
func Initialize(c Config) error {
	if !c.DebugMode {
		reset(c, nil, nil)
		return nil
	}
	if c.Dir == "" {
		return fmt.Errorf("log directory required")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	rot := &lumberjack.Logger{
		Filename:   filepath.Join(c.Dir, "finintel.log"),
		MaxSize:    orDefault(c.MaxSizeMB, 10),
		MaxBackups: orDefault(c.MaxBackups, 5),
		MaxAge:     orDefault(c.MaxAgeDays, 30),
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.JSONFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(rot), parseLevel(c.Level))
	reset(c, zap.New(core), rot)

	boot := Get(CategoryBoot)
	boot.Info("=== finintel logging initialized ===")
	boot.Info("Logs directory: %s", c.Dir)
	boot.Info("Log level: %s", c.Level)
	if len(c.Categories) == 0 {
		boot.Info("All categories enabled (no category filter)")
	}
	return nil
}

// InitializeWithCore installs an arbitrary zap core with debug mode on.
// Tests use it together with zaptest/observer.
func InitializeWithCore(core zapcore.Core, categories map[string]bool) {
	reset(Config{DebugMode: true, Categories: categories}, zap.New(core), nil)
}

func reset(c Config, l *zap.Logger, rot *lumberjack.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
	if rotator != nil {
		_ = rotator.Close()
	}
	cfg = c
	base = l
	rotator = rot
	loggers = make(map[Category]*Logger)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !cfg.DebugMode || base == nil {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if !categoryEnabledLocked(category) {
		mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if base == nil {
		return &Logger{category: category}
	}
	l := &Logger{
		category: category,
		sugar:    base.With(zap.String("category", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying extra structured fields.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes and closes the log sink (call at shutdown)
func CloseAll() {
	reset(Config{}, nil, nil)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// BootError logs an error to the boot category
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

// Session logs to the session category
func Session(format string, args ...interface{}) { Get(CategorySession).Info(format, args...) }

// SessionDebug logs debug to the session category
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }

// SessionWarn logs a warning to the session category
func SessionWarn(format string, args ...interface{}) { Get(CategorySession).Warn(format, args...) }

// API logs to the api category
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }

// APIDebug logs debug to the api category
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }

// APIWarn logs a warning to the api category
func APIWarn(format string, args ...interface{}) { Get(CategoryAPI).Warn(format, args...) }

// APIError logs an error to the api category
func APIError(format string, args ...interface{}) { Get(CategoryAPI).Error(format, args...) }

// PromptDebug logs debug to the prompt category
func PromptDebug(format string, args ...interface{}) { Get(CategoryPrompt).Debug(format, args...) }

// InterpretDebug logs debug to the interpret category
func InterpretDebug(format string, args ...interface{}) {
	Get(CategoryInterpret).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// StoreError logs an error to the store category
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// Auth logs to the auth category
func Auth(format string, args ...interface{}) { Get(CategoryAuth).Info(format, args...) }

// AuthWarn logs a warning to the auth category
func AuthWarn(format string, args ...interface{}) { Get(CategoryAuth).Warn(format, args...) }

// Attachments logs to the attachments category
func Attachments(format string, args ...interface{}) {
	Get(CategoryAttachments).Info(format, args...)
}

// UsageDebug logs debug to the usage category
func UsageDebug(format string, args ...interface{}) { Get(CategoryUsage).Debug(format, args...) }

// UIDebug logs debug to the ui category
func UIDebug(format string, args ...interface{}) { Get(CategoryUI).Debug(format, args...) }

// =============================================================================
// TIMING
// =============================================================================

// Timer measures one operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
