package usage

import (
	"maps"
	"time"
)

// UsageData is the persisted usage file.
type UsageData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// Event describes one model call.
type Event struct {
	Timestamp      time.Time
	Model          string
	Mode           string
	Operation      string // ask, summarize
	Outcome        string // ok, or an AppError category
	InputTokens    int
	OutputTokens   int
	ThoughtsTokens int
	Duration       time.Duration
}

// Operations recorded by the intelligence client.
const (
	OperationAsk       = "ask"
	OperationSummarize = "summarize"
	OutcomeOK          = "ok"
)

// AggregatedStats holds request counters and token sums per dimension.
type AggregatedStats struct {
	Total       TokenCounts            `json:"total"`
	Requests    int64                  `json:"requests"`
	Failures    int64                  `json:"failures"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	ByMode      map[string]TokenCounts `json:"by_mode"`
	ByOperation map[string]TokenCounts `json:"by_operation"` // ask, summarize
	ByOutcome   map[string]int64       `json:"by_outcome"`
}

// TokenCounts holds input, output and reasoning sums.
type TokenCounts struct {
	Input    int64 `json:"input"`
	Output   int64 `json:"output"`
	Thoughts int64 `json:"thoughts"`
	Total    int64 `json:"total"`
}

func (tc *TokenCounts) Add(input, output, thoughts int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Thoughts += int64(thoughts)
	tc.Total += int64(input + output + thoughts)
}

func emptyStats() AggregatedStats {
	var s AggregatedStats
	s.normalize()
	return s
}

// normalize fills maps left nil by a partial or older file.
func (s *AggregatedStats) normalize() {
	for _, m := range []*map[string]TokenCounts{&s.ByModel, &s.ByMode, &s.ByOperation} {
		if *m == nil {
			*m = make(map[string]TokenCounts)
		}
	}
	if s.ByOutcome == nil {
		s.ByOutcome = make(map[string]int64)
	}
}

func (s AggregatedStats) clone() AggregatedStats {
	s.ByModel = maps.Clone(s.ByModel)
	s.ByMode = maps.Clone(s.ByMode)
	s.ByOperation = maps.Clone(s.ByOperation)
	s.ByOutcome = maps.Clone(s.ByOutcome)
	return s
}

func bucket(m map[string]TokenCounts, key string, ev Event) {
	if key == "" {
		key = "unknown"
	}
	c := m[key]
	c.Add(ev.InputTokens, ev.OutputTokens, ev.ThoughtsTokens)
	m[key] = c
}
