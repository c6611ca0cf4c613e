package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// SearchesKey holds the recent search terms.
	SearchesKey = "finintel_recent_searches"
	// MaxRecentSearches bounds the remembered terms.
	MaxRecentSearches = 5
)

type searchesEnvelope struct {
	Version int      `json:"version"`
	Terms   []string `json:"terms"`
}

// RecentSearches remembers the most recent distinct search terms, newest first.
type RecentSearches struct {
	kv    KV
	mu    sync.Mutex
	terms []string
}

// OpenRecentSearches loads the remembered terms from kv.
func OpenRecentSearches(kv KV) (*RecentSearches, error) {
	r := &RecentSearches{kv: kv}
	raw, err := kv.Get(SearchesKey)
	if errors.Is(err, ErrNotFound) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	var env searchesEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse recent searches: %w", err)
	}
	if env.Version != HistoryVersion {
		return nil, fmt.Errorf("unsupported recent searches version %d", env.Version)
	}
	r.terms = env.Terms
	return r, nil
}

// Remember moves term to the front, dropping duplicates and the oldest overflow.
func (r *RecentSearches) Remember(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]string, 0, MaxRecentSearches)
	next = append(next, term)
	for _, t := range r.terms {
		if len(next) == MaxRecentSearches {
			break
		}
		if !strings.EqualFold(t, term) {
			next = append(next, t)
		}
	}
	data, err := json.Marshal(searchesEnvelope{Version: HistoryVersion, Terms: next})
	if err != nil {
		return err
	}
	if err := r.kv.Put(SearchesKey, data); err != nil {
		return err
	}
	r.terms = next
	return nil
}

// Terms returns the remembered terms, newest first.
func (r *RecentSearches) Terms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.terms...)
}
