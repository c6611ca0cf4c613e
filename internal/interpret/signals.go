package interpret

import "strings"

// Bias is the tri-state directional read of a response.
type Bias string

const (
	Neutral Bias = "NEUTRAL"
	Bullish Bias = "BULLISH"
	Bearish Bias = "BEARISH"
)

// DetectBias looks for the literal words "bullish" and "bearish".
// When both appear, whichever occurs first in the text wins. This is a
// substring heuristic, not a parse of structured sentiment.
func DetectBias(text string) Bias {
	lower := strings.ToLower(text)
	bull := strings.Index(lower, "bullish")
	bear := strings.Index(lower, "bearish")
	switch {
	case bull < 0 && bear < 0:
		return Neutral
	case bear < 0:
		return Bullish
	case bull < 0:
		return Bearish
	case bull < bear:
		return Bullish
	default:
		return Bearish
	}
}

// Mood scores on the 0-100 fear/greed scale.
const (
	MoodExtremeFear  = 10
	MoodFear         = 25
	MoodNeutral      = 50
	MoodGreed        = 75
	MoodExtremeGreed = 90
)

// moodTable is checked in order; the extreme phrases shadow their substrings.
var moodTable = []struct {
	phrase string
	score  int
	label  string
}{
	{"extreme fear", MoodExtremeFear, "Extreme Fear"},
	{"extreme greed", MoodExtremeGreed, "Extreme Greed"},
	{"greed", MoodGreed, "Greed"},
	{"fear", MoodFear, "Fear"},
}

// MoodScore maps fixed phrases to a discrete sentiment score.
func MoodScore(text string) int {
	score, _ := mood(text)
	return score
}

// MoodLabel returns the display label that goes with MoodScore.
func MoodLabel(text string) string {
	_, label := mood(text)
	return label
}

func mood(text string) (int, string) {
	lower := strings.ToLower(text)
	for _, m := range moodTable {
		if strings.Contains(lower, m.phrase) {
			return m.score, m.label
		}
	}
	return MoodNeutral, "Neutral"
}

// DefaultUrgency is used when no urgency grade can be read.
const DefaultUrgency = 5

// Urgency reads the rebalancing urgency grade, clamped to [0, 10].
func Urgency(text string) int {
	v, ok := firstMetric(text, "Urgency", "Rebalancing Urgency")
	if !ok {
		return DefaultUrgency
	}
	n, ok := leadingInt(v)
	if !ok {
		return DefaultUrgency
	}
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

// CautionVocabulary lists the risk-catalyst keywords surfaced as tags.
var CautionVocabulary = []string{
	"volatile",
	"earnings",
	"fomc",
	"liquidity",
	"unstable",
	"overhead supply",
	"breakdown",
	"cpi",
	"interest rate",
}

// Cautions returns the vocabulary words present in text, in vocabulary
// order. An empty result means no caution was detected, not that the idea
// is safe.
func Cautions(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, w := range CautionVocabulary {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	return found
}

// LiveQuote reads a "LIVE QUOTE: <price>" line.
func LiveQuote(text string) (string, bool) {
	return ExtractMetric(text, "LIVE QUOTE")
}
