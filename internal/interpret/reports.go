package interpret

import (
	"slices"
	"strings"

	"finintel/internal/mode"
)

// TechnicalReport is the trading-card view of a response.
type TechnicalReport struct {
	Bias       Bias
	Resistance []string
	Support    []string
	RiskReward string
	Volatility string
	LiveQuote  string
	Cautions   []string
}

// Technical extracts the trading-card fields.
func Technical(text string) TechnicalReport {
	r := TechnicalReport{
		Bias:       DetectBias(text),
		Resistance: ExtractLevels(text, "Resistance"),
		Support:    ExtractLevels(text, "Support"),
		Cautions:   Cautions(text),
	}
	r.RiskReward, _ = firstMetric(text, "Risk-Reward", "RR")
	r.Volatility, _ = ExtractMetric(text, "Volatility")
	r.LiveQuote, _ = LiveQuote(text)
	return r
}

// HasSignal reports whether enough was extracted to be worth rendering.
func (r TechnicalReport) HasSignal() bool {
	return r.Bias != Neutral || len(r.Resistance) > 0 || len(r.Support) > 0 || r.RiskReward != ""
}

// PortfolioReport is the quant-strategy view of a response.
type PortfolioReport struct {
	RiskCategory string
	Urgency      int
}

// Portfolio extracts the risk category and rebalancing urgency.
func Portfolio(text string) PortfolioReport {
	risk, ok := ExtractMetric(text, "Risk Category")
	if !ok {
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "aggressive"):
			risk = "Aggressive"
		case strings.Contains(lower, "conservative"):
			risk = "Conservative"
		default:
			risk = "Balanced"
		}
	}
	return PortfolioReport{RiskCategory: risk, Urgency: Urgency(text)}
}

// AnalystReport is the equity-research view of a response.
type AnalystReport struct {
	Valuation string
	Moat      string
}

// DefaultMoat is shown when no moat grade is stated.
const DefaultMoat = "Institutional"

// Analyst extracts the valuation verdict and moat grade.
func Analyst(text string) AnalystReport {
	lower := strings.ToLower(text)
	valuation := "Fair Value"
	switch {
	case strings.Contains(lower, "undervalued"):
		valuation = "Undervalued"
	case strings.Contains(lower, "overvalued"):
		valuation = "Overvalued"
	}
	moat, ok := firstMetric(text, "Moat Grade", "Moat")
	if !ok {
		moat = DefaultMoat
	}
	return AnalystReport{Valuation: valuation, Moat: moat}
}

// SentimentReport is the fear/greed gauge.
type SentimentReport struct {
	Score int
	Label string
}

// SentimentGauge maps the response onto the mood scale.
func SentimentGauge(text string) SentimentReport {
	score, label := mood(text)
	return SentimentReport{Score: score, Label: label}
}

// MentorReport flags a discovery session request.
type MentorReport struct {
	Discovery bool
}

// MentorDiscovery reports whether the mentor opened a discovery session.
func MentorDiscovery(text string) MentorReport {
	lower := strings.ToLower(text)
	return MentorReport{Discovery: strings.Contains(lower, "discovery") || strings.Contains(lower, "session")}
}

// Analysis bundles the widgets relevant to one mode. Unused widgets are nil.
type Analysis struct {
	Mode      mode.Mode
	Technical *TechnicalReport
	Portfolio *PortfolioReport
	Analyst   *AnalystReport
	Sentiment *SentimentReport
	Mentor    *MentorReport
	Cautions  []string
}

// Clone returns a deep copy that shares no slices or reports with a.
func (a Analysis) Clone() Analysis {
	out := a
	out.Cautions = slices.Clone(a.Cautions)
	if a.Technical != nil {
		t := *a.Technical
		t.Resistance = slices.Clone(t.Resistance)
		t.Support = slices.Clone(t.Support)
		t.Cautions = slices.Clone(t.Cautions)
		out.Technical = &t
	}
	if a.Portfolio != nil {
		p := *a.Portfolio
		out.Portfolio = &p
	}
	if a.Analyst != nil {
		r := *a.Analyst
		out.Analyst = &r
	}
	if a.Sentiment != nil {
		s := *a.Sentiment
		out.Sentiment = &s
	}
	if a.Mentor != nil {
		m := *a.Mentor
		out.Mentor = &m
	}
	return out
}

// Analyze runs the extractors relevant to m.
func Analyze(m mode.Mode, text string) Analysis {
	a := Analysis{Mode: m, Cautions: Cautions(text)}
	switch m {
	case mode.Trading, mode.Strategy, mode.Calibration:
		r := Technical(text)
		a.Technical = &r
	case mode.Portfolio, mode.Projection:
		r := Portfolio(text)
		a.Portfolio = &r
	case mode.Analyst:
		r := Analyst(text)
		a.Analyst = &r
	case mode.Sentiment:
		r := SentimentGauge(text)
		a.Sentiment = &r
	case mode.Mentor, mode.Discipline:
		r := MentorDiscovery(text)
		a.Mentor = &r
	}
	return a
}
