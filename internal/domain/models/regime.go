package models

import "time"

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Sign maps bullish to +1, bearish to -1 and anything else to 0.
func (d Direction) Sign() float64 {
	switch d {
	case Bullish:
		return 1
	case Bearish:
		return -1
	default:
		return 0
	}
}

type Regime string

const (
	RiskOn     Regime = "Risk-On"
	RiskOff    Regime = "Risk-Off"
	Transition Regime = "Transition"
)

type RiskAssessment string

const (
	Aggressive  RiskAssessment = "Aggressive"
	NeutralRisk RiskAssessment = "Neutral"
	Defensive   RiskAssessment = "Defensive"
)

// MarketSignal is one weighted piece of regime evidence.
type MarketSignal struct {
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
	Weight    float64   `json:"weight"`
	Detail    string    `json:"detail"`
}

// SectorPerformance is one sector's return over the ranking window, in percent.
type SectorPerformance struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol,omitempty"`
	Performance float64 `json:"performance"`
}

// MarketInputs is the market-wide data the regime classifier works from.
// Sectors are ranked best to worst. Momentum1M is in percent.
type MarketInputs struct {
	VIX        *float64            `json:"vix,omitempty"`
	IndexPrice *float64            `json:"index_price,omitempty"`
	IndexMA50  *float64            `json:"index_ma_50,omitempty"`
	IndexMA200 *float64            `json:"index_ma_200,omitempty"`
	Momentum1M *float64            `json:"momentum_1m,omitempty"`
	Sectors    []SectorPerformance `json:"sectors,omitempty"`
	AsOf       time.Time           `json:"as_of,omitempty"`
}

type RegimeClassification struct {
	Regime         Regime         `json:"regime"`
	Score          float64        `json:"score"`
	Confidence     float64        `json:"confidence"`
	RiskAssessment RiskAssessment `json:"risk_assessment"`
	Signals        []MarketSignal `json:"signals"`
	Reasoning      []string       `json:"reasoning"`
	SectorRotation string         `json:"sector_rotation,omitempty"`
	// SectorRanking holds sector names best to worst.
	SectorRanking []string  `json:"sector_ranking,omitempty"`
	ClassifiedAt  time.Time `json:"classified_at"`
}
