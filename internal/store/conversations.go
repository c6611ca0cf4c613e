package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"finintel/internal/logging"
	"finintel/internal/types"
)

const (
	// HistoryKey holds the full conversation log.
	HistoryKey = "finintel_chat_history"
	// HistoryVersion is the current envelope format.
	HistoryVersion = 1
)

type historyEnvelope struct {
	Version  int                 `json:"version"`
	Messages []types.ChatMessage `json:"messages"`
}

// Conversations is the ordered, append-only log of turns across all modes.
// It exclusively owns the message sequence and writes through to the KV
// on every mutation.
type Conversations struct {
	kv       KV
	mu       sync.RWMutex
	messages []types.ChatMessage
}

// OpenConversations loads the log from kv. A missing key yields an empty log.
func OpenConversations(kv KV) (*Conversations, error) {
	c := &Conversations{kv: kv}
	raw, err := kv.Get(HistoryKey)
	if errors.Is(err, ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	msgs, err := decodeHistory(raw)
	if err != nil {
		return nil, err
	}
	c.messages = msgs
	logging.StoreDebug("Loaded %d messages from %s", len(msgs), HistoryKey)
	return c, nil
}

func decodeHistory(raw []byte) ([]types.ChatMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	// Version 0: a bare array written before the envelope existed.
	if trimmed[0] == '[' {
		var msgs []types.ChatMessage
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, fmt.Errorf("failed to parse legacy history: %w", err)
		}
		return msgs, nil
	}
	var env historyEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if env.Version != HistoryVersion {
		return nil, fmt.Errorf("unsupported history version %d (want %d)", env.Version, HistoryVersion)
	}
	return env.Messages, nil
}

// persistLocked writes the current log. Caller holds mu.
func (c *Conversations) persistLocked() error {
	data, err := json.Marshal(historyEnvelope{Version: HistoryVersion, Messages: c.messages})
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return c.kv.Put(HistoryKey, data)
}

// Append adds msg at the end of the log.
func (c *Conversations) Append(msg types.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if err := c.persistLocked(); err != nil {
		c.messages = c.messages[:len(c.messages)-1]
		return err
	}
	logging.StoreDebug("Appended %s turn to %s (total=%d)", msg.Role, msg.Mode, len(c.messages))
	return nil
}

// ForMode returns the visible transcript of mode.
func (c *Conversations) ForMode(mode string) []types.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.FilterByMode(c.messages, mode)
}

// All returns a copy of the full log.
func (c *Conversations) All() []types.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.ChatMessage(nil), c.messages...)
}

// Len returns the number of turns across all modes.
func (c *Conversations) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// ClearMode removes every turn of mode and returns how many were removed.
func (c *Conversations) ClearMode(mode string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]types.ChatMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Mode != mode {
			kept = append(kept, m)
		}
	}
	removed := len(c.messages) - len(kept)
	prev := c.messages
	c.messages = kept
	if err := c.persistLocked(); err != nil {
		c.messages = prev
		return 0, err
	}
	logging.Store("Cleared %d turns of mode %s", removed, mode)
	return removed, nil
}

// ClearAll removes every turn.
func (c *Conversations) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(HistoryKey); err != nil {
		return err
	}
	c.messages = nil
	logging.Store("Cleared all conversation history")
	return nil
}

// Search filters msgs by a case-insensitive substring of their content.
func Search(msgs []types.ChatMessage, term string) []types.ChatMessage {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return msgs
	}
	out := make([]types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m.Content), term) {
			out = append(out, m)
		}
	}
	return out
}
