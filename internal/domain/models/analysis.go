package models

import "time"

// Bar is one daily OHLCV record.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

type PatternResult struct {
	Score    float64         `json:"score"`
	Signal   string          `json:"signal"`
	Detected []string        `json:"detected"`
	Bullish  float64         `json:"bullish"`
	Bearish  float64         `json:"bearish"`
	Backtest *BacktestResult `json:"backtest,omitempty"`
}

// BacktestResult reports how a pattern detected at ReferenceDate played out
// over the following Horizon bars. Moves are percentages.
type BacktestResult struct {
	Evaluated       bool      `json:"evaluated"`
	Direction       string    `json:"direction"`
	Score           float64   `json:"pattern_score"`
	Detected        []string  `json:"detected,omitempty"`
	ExpectedMovePct float64   `json:"expected_move_pct"`
	ActualMovePct   float64   `json:"actual_move_pct"`
	BrokeOut        bool      `json:"broke_out"`
	DaysToBreakout  int       `json:"days_to_breakout"`
	Correct         bool      `json:"prediction_correct"`
	Accuracy        float64   `json:"accuracy"`
	Confidence      string    `json:"confidence"`
	Horizon         int       `json:"horizon"`
	ReferenceDate   time.Time `json:"reference_date,omitempty"`
}

// Analysis is the full result for one symbol.
type Analysis struct {
	Symbol     string                `json:"symbol"`
	Quality    QualityReport         `json:"quality"`
	Categories []CategoryScore       `json:"categories"`
	Composite  CompositeScore        `json:"composite"`
	Pattern    *PatternResult        `json:"pattern,omitempty"`
	Regime     *RegimeClassification `json:"regime,omitempty"`
	Delta      DeltaResult           `json:"delta"`
	Snapshot   *AnalysisSnapshot     `json:"snapshot,omitempty"`
	Metrics    RawMetrics            `json:"metrics"`
	AnalyzedAt time.Time             `json:"analyzed_at"`
}

// CompareEntry is the per-symbol view used for ranking.
type CompareEntry struct {
	Symbol         string         `json:"symbol"`
	Composite      float64        `json:"composite"`
	Recommendation Recommendation `json:"recommendation"`
	Value          *float64       `json:"value,omitempty"`
	Momentum       *float64       `json:"momentum,omitempty"`
	Safety         float64        `json:"safety"`
	Fundamentals   float64        `json:"fundamentals"`
}

type CompareRecommendation struct {
	BuyNow       string   `json:"buy_now"`
	BestValue    string   `json:"best_value,omitempty"`
	BestMomentum string   `json:"best_momentum,omitempty"`
	Safest       string   `json:"safest"`
	Rationale    []string `json:"rationale"`
}

type Comparison struct {
	Entries        []CompareEntry        `json:"entries"`
	Rankings       map[string][]string   `json:"rankings"`
	Recommendation CompareRecommendation `json:"recommendation"`
	Dispersion     float64               `json:"dispersion"`
	Errors         map[string]string     `json:"errors,omitempty"`
}
