package mode

import (
	"fmt"
	"strings"
)

// ExpertiseLevel selects voice and depth, orthogonal to Mode.
type ExpertiseLevel string

const (
	Beginner     ExpertiseLevel = "BEGINNER"
	Intermediate ExpertiseLevel = "INTERMEDIATE"
	Pro          ExpertiseLevel = "PRO"
)

// FinancialGoal selects priorities, orthogonal to Mode and ExpertiseLevel.
type FinancialGoal string

const (
	Accumulation FinancialGoal = "ACCUMULATION"
	Scalping     FinancialGoal = "SCALPING"
	Preservation FinancialGoal = "PRESERVATION"
	Income       FinancialGoal = "INCOME"
)

var (
	expertiseOrder = []ExpertiseLevel{Beginner, Intermediate, Pro}
	goalOrder      = []FinancialGoal{Accumulation, Scalping, Preservation, Income}
)

var expertiseModifiers = map[ExpertiseLevel]string{
	Beginner: `USER EXPERTISE: BEGINNER.
Explain every technical term the first time you use it. Prefer analogies over formulas, keep numbers rounded, and end with one plain-language takeaway.`,
	Intermediate: `USER EXPERTISE: INTERMEDIATE.
Assume familiarity with common indicators, order types and valuation ratios. Define only specialist terms and show the key arithmetic.`,
	Pro: `USER EXPERTISE: PRO.
Use institutional vocabulary without definitions. Be dense and quantitative: exact levels, ratios, Greeks and flows. Skip introductions.`,
}

var goalModifiers = map[FinancialGoal]string{
	Accumulation: `USER GOAL: LONG-TERM ACCUMULATION.
Prioritize multi-year compounding, dollar-cost averaging, valuation margins of safety and tax efficiency over short-term timing.`,
	Scalping: `USER GOAL: SCALPING / SHORT-TERM TRADING.
Prioritize intraday structure, liquidity, spreads, precise entries and tight invalidation. Size every idea by risk per trade.`,
	Preservation: `USER GOAL: CAPITAL PRESERVATION.
Prioritize drawdown control, diversification, hedging and liquidity. Flag any idea whose downside could impair principal.`,
	Income: `USER GOAL: INCOME GENERATION.
Prioritize yield sustainability, dividend coverage, credit quality and cash-flow stability. Call out yield traps explicitly.`,
}

// ExpertiseLevels returns the levels in display order.
func ExpertiseLevels() []ExpertiseLevel {
	return append([]ExpertiseLevel(nil), expertiseOrder...)
}

// Goals returns the goals in display order.
func Goals() []FinancialGoal {
	return append([]FinancialGoal(nil), goalOrder...)
}

// ExpertiseModifier returns the prompt fragment for level.
func ExpertiseModifier(level ExpertiseLevel) string {
	text, ok := expertiseModifiers[level]
	if !ok {
		panic(fmt.Sprintf("mode: no modifier registered for expertise %q", string(level)))
	}
	return text
}

// GoalModifier returns the prompt fragment for goal.
func GoalModifier(goal FinancialGoal) string {
	text, ok := goalModifiers[goal]
	if !ok {
		panic(fmt.Sprintf("mode: no modifier registered for goal %q", string(goal)))
	}
	return text
}

// ParseExpertise resolves user input case-insensitively.
func ParseExpertise(s string) (ExpertiseLevel, error) {
	l := ExpertiseLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := expertiseModifiers[l]; !ok {
		return "", fmt.Errorf("unknown expertise level %q", s)
	}
	return l, nil
}

// ParseGoal resolves user input case-insensitively.
func ParseGoal(s string) (FinancialGoal, error) {
	g := FinancialGoal(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := goalModifiers[g]; !ok {
		return "", fmt.Errorf("unknown financial goal %q", s)
	}
	return g, nil
}

// Next cycles to the following expertise level.
func (l ExpertiseLevel) Next() ExpertiseLevel {
	for i, c := range expertiseOrder {
		if c == l {
			return expertiseOrder[(i+1)%len(expertiseOrder)]
		}
	}
	return expertiseOrder[0]
}

// Next cycles to the following goal.
func (g FinancialGoal) Next() FinancialGoal {
	for i, c := range goalOrder {
		if c == g {
			return goalOrder[(i+1)%len(goalOrder)]
		}
	}
	return goalOrder[0]
}
