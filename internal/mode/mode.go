// Package mode holds the closed registry of conversation modes and the
// expertise/goal modifier tables applied on top of every persona.
//
// The tables are static. Lookups on an unknown key panic: the enumerations
// are closed and exhaustively populated, so a miss is a programming error.
package mode

import (
	"fmt"
	"strings"
)

// Mode is a persona/task context.
type Mode string

const (
	Trading     Mode = "TRADING"
	Portfolio   Mode = "PORTFOLIO"
	Analyst     Mode = "ANALYST"
	Mentor      Mode = "MENTOR"
	Education   Mode = "EDUCATION"
	Strategy    Mode = "STRATEGY"
	Discipline  Mode = "DISCIPLINE"
	Projection  Mode = "PROJECTION"
	Calibration Mode = "CALIBRATION"
	Sentiment   Mode = "SENTIMENT"
	History     Mode = "HISTORY"
)

// Config is the display and persona record of one mode.
type Config struct {
	Title        string
	Description  string
	SystemPrompt string
}

// QuickAction is the canned first-principles prompt offered on an empty transcript.
const QuickAction = "Perform a first-principles analysis of current high-alpha opportunities in this sector."

var order = []Mode{
	Trading, Portfolio, Analyst, Mentor, Education, Strategy,
	Discipline, Projection, Calibration, Sentiment, History,
}

// All returns every mode in display order.
func All() []Mode {
	return append([]Mode(nil), order...)
}

func (m Mode) String() string { return string(m) }

// Valid reports whether m is a registered mode.
func (m Mode) Valid() bool {
	_, ok := registry[m]
	return ok
}

// Parse resolves user input to a Mode, case-insensitively.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// ConfigFor returns the registry record for m.
func ConfigFor(m Mode) Config {
	cfg, ok := registry[m]
	if !ok {
		panic(fmt.Sprintf("mode: no config registered for %q", string(m)))
	}
	return cfg
}

// Next returns the mode after m in display order, wrapping around.
func Next(m Mode) Mode {
	for i, candidate := range order {
		if candidate == m {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
