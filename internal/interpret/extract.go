// Package interpret performs best-effort extraction of labeled fields from
// free-form model text.
//
// Every function here is a heuristic over the model's phrasing. A miss is
// reported as absence, never as an error, and no result may gate control
// flow. All functions are pure and idempotent.
package interpret

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	patternMu    sync.RWMutex
	metricCache  = make(map[string]*regexp.Regexp)
	levelsCache  = make(map[string]*regexp.Regexp)
	levelSplitRe = regexp.MustCompile(`&|,(?:\s|$)`)
	leadingIntRe = regexp.MustCompile(`^\s*(-?\d+)`)
	// ", Volatility: High" starts the next field on the same line.
	nextLabelRe = regexp.MustCompile(`,\s*\pL[\pL\d\-]*(?:[ \t]+\pL[\pL\d\-]*)*[ \t]*[:*]`)
)

// Label, delimiter run, then a value that never crosses a line break.
const (
	delimiter  = `[:*\t ]+`
	metricBody = `([\w.,/%&$€£+\-: \t]+)`
	levelsBody = `([\d,.&$ \t]+)`
)

func compiled(cache map[string]*regexp.Regexp, label, body string) *regexp.Regexp {
	key := strings.ToLower(label)
	patternMu.RLock()
	re, ok := cache[key]
	patternMu.RUnlock()
	if ok {
		return re
	}
	re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + delimiter + body)
	patternMu.Lock()
	cache[key] = re
	patternMu.Unlock()
	return re
}

// ExtractMetric finds the first "label: value" occurrence and returns the
// trimmed value. ok is false when the label is absent or has no value.
func ExtractMetric(text, label string) (value string, ok bool) {
	if label == "" {
		return "", false
	}
	m := compiled(metricCache, label, metricBody).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := m[1]
	if loc := nextLabelRe.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	v = strings.Trim(v, " \t*:")
	if v == "" {
		return "", false
	}
	return v, true
}

// ExtractLevels is ExtractMetric restricted to numeric runs, split into
// discrete levels on ampersands and list commas. Thousands separators
// ("1,250.50") are kept. Returns an empty, non-nil slice when absent.
func ExtractLevels(text, label string) []string {
	levels := []string{}
	if label == "" {
		return levels
	}
	m := compiled(levelsCache, label, levelsBody).FindStringSubmatch(text)
	if m == nil {
		return levels
	}
	for _, piece := range levelSplitRe.Split(m[1], -1) {
		piece = strings.Trim(piece, " \t,.")
		if piece != "" && strings.ContainsAny(piece, "0123456789") {
			levels = append(levels, piece)
		}
	}
	return levels
}

// firstMetric returns the first label that yields a value.
func firstMetric(text string, labels ...string) (string, bool) {
	for _, l := range labels {
		if v, ok := ExtractMetric(text, l); ok {
			return v, true
		}
	}
	return "", false
}

// leadingInt parses the integer prefix of s.
func leadingInt(s string) (int, bool) {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
