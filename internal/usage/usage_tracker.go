package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finintel/internal/logging"
)

const dataVersion = "1.0"

// Tracker aggregates usage in memory and persists it as JSON.
type Tracker struct {
	mu        sync.Mutex
	data      UsageData
	filePath  string
	dirty     bool
	saveDelay time.Duration
	timer     *time.Timer
}

// NewTracker creates a tracker persisting to filePath. A save is scheduled
// saveDelay after the first unsaved event; zero disables autosave.
// An unreadable file is logged and replaced on the next save.
func NewTracker(filePath string, saveDelay time.Duration) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}
	t := &Tracker{filePath: filePath, saveDelay: saveDelay}
	t.reset()
	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("usage file unreadable, starting fresh: %v", err)
		t.reset()
	}
	return t, nil
}

func (t *Tracker) reset() {
	t.data = UsageData{Version: dataVersion, Aggregate: emptyStats()}
}

// Load replaces the in-memory aggregate with the file contents. A missing
// file is not an error.
func (t *Tracker) Load() error {
	raw, err := os.ReadFile(t.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var loaded UsageData
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(t.filePath), err)
	}
	if loaded.Version != dataVersion {
		return fmt.Errorf("unsupported usage version %q", loaded.Version)
	}
	loaded.Aggregate.normalize()

	t.mu.Lock()
	t.data = loaded
	t.mu.Unlock()
	return nil
}

func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

// saveLocked writes through a temp file so a crash never leaves half a file.
func (t *Tracker) saveLocked() error {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := t.filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, t.filePath); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Record implements Recorder. An empty outcome counts as ok.
func (t *Tracker) Record(_ context.Context, ev Event) {
	outcome := ev.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Requests++
	if outcome != OutcomeOK {
		agg.Failures++
	}
	agg.ByOutcome[outcome]++
	agg.Total.Add(ev.InputTokens, ev.OutputTokens, ev.ThoughtsTokens)
	bucket(agg.ByModel, ev.Model, ev)
	bucket(agg.ByMode, ev.Mode, ev)
	bucket(agg.ByOperation, ev.Operation, ev)

	logging.UsageDebug("usage recorded: mode=%s op=%s outcome=%s in=%d out=%d thoughts=%d",
		ev.Mode, ev.Operation, outcome, ev.InputTokens, ev.OutputTokens, ev.ThoughtsTokens)

	if t.dirty {
		return
	}
	t.dirty = true
	if t.saveDelay > 0 {
		t.timer = time.AfterFunc(t.saveDelay, t.autosave)
	}
}

func (t *Tracker) autosave() {
	if err := t.Save(); err != nil {
		logging.Get(logging.CategoryUsage).Error("usage autosave failed: %v", err)
	}
}

// Close stops a pending autosave and flushes unsaved data.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if !t.dirty {
		return nil
	}
	return t.saveLocked()
}

// Stats returns a deep copy of the aggregate.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.Aggregate.clone()
}
