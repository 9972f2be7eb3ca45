package config

import (
	"fmt"
	"math"
)

// Scoring is the immutable table set consumed by the scoring engine.
// It is passed by value; engine code never mutates it.
type Scoring struct {
	Thresholds Thresholds      `yaml:"thresholds"`
	Weights    Weights         `yaml:"weights"`
	Bands      Bands           `yaml:"bands"`
	Quality    QualityTuning   `yaml:"quality"`
	Alignment  AlignmentTuning `yaml:"alignment"`
	Regime     RegimeTuning    `yaml:"regime"`
	Delta      DeltaTuning     `yaml:"delta"`
	Pattern    PatternTuning   `yaml:"pattern"`
}

// Thresholds holds the indicator cut-offs used by the category scorers.
type Thresholds struct {
	MarketCapMega     float64 `yaml:"market_cap_mega"`
	MarketCapLarge    float64 `yaml:"market_cap_large"`
	MarketCapMid      float64 `yaml:"market_cap_mid"`
	MarketCapRiskSafe float64 `yaml:"market_cap_risk_safe"`

	PEOptimalMin    float64 `yaml:"pe_optimal_min"`
	PEOptimalMax    float64 `yaml:"pe_optimal_max"`
	PEAcceptableMin float64 `yaml:"pe_acceptable_min"`
	PEAcceptableMax float64 `yaml:"pe_acceptable_max"`

	RSINeutralMin      float64 `yaml:"rsi_neutral_min"`
	RSINeutralMax      float64 `yaml:"rsi_neutral_max"`
	RSIModerateLowMin  float64 `yaml:"rsi_moderate_low_min"`
	RSIModerateHighMax float64 `yaml:"rsi_moderate_high_max"`

	RSISentimentNeutralMin      float64 `yaml:"rsi_sentiment_neutral_min"`
	RSISentimentNeutralMax      float64 `yaml:"rsi_sentiment_neutral_max"`
	RSISentimentModerateLowMin  float64 `yaml:"rsi_sentiment_moderate_low_min"`
	RSISentimentModerateHighMax float64 `yaml:"rsi_sentiment_moderate_high_max"`

	MACDSignalConvergence float64 `yaml:"macd_signal_convergence"`
	VolumeSpikeRatio      float64 `yaml:"volume_spike_ratio"`
	VolumePositiveRatio   float64 `yaml:"volume_positive_ratio"`

	PriceChangeStrong          float64 `yaml:"price_change_strong"`
	PriceChangePositive        float64 `yaml:"price_change_positive"`
	PriceChangeStrongSentiment float64 `yaml:"price_change_strong_sentiment"`

	DebtToEquityIdeal      float64 `yaml:"debt_to_equity_ideal"`
	DebtToEquityAcceptable float64 `yaml:"debt_to_equity_acceptable"`
	RevenueSignificant     float64 `yaml:"revenue_significant"`
	EPSStrong              float64 `yaml:"eps_strong"`
	EPSPositive            float64 `yaml:"eps_positive"`

	FedFundsLow            float64 `yaml:"fed_funds_low"`
	FedFundsModerate       float64 `yaml:"fed_funds_moderate"`
	FedFundsHigh           float64 `yaml:"fed_funds_high"`
	UnemploymentHealthy    float64 `yaml:"unemployment_healthy"`
	UnemploymentAcceptable float64 `yaml:"unemployment_acceptable"`
	SentimentStrong        float64 `yaml:"consumer_sentiment_strong"`
	SentimentModerate      float64 `yaml:"consumer_sentiment_moderate"`

	VolatilityLow      float64 `yaml:"volatility_low"`
	VolatilityModerate float64 `yaml:"volatility_moderate"`
	VolatilityHigh     float64 `yaml:"volatility_high"`
	BetaLow            float64 `yaml:"beta_low"`
	BetaModerate       float64 `yaml:"beta_moderate"`
}

// Weights is the composite weight table, one field per category.
type Weights struct {
	Technical       float64 `yaml:"technical"`
	Fundamental     float64 `yaml:"fundamental"`
	Macro           float64 `yaml:"macro"`
	Risk            float64 `yaml:"risk"`
	Sentiment       float64 `yaml:"sentiment"`
	MarketAlignment float64 `yaml:"market_alignment"`
}

// Sum returns the total configured weight.
func (w Weights) Sum() float64 {
	return w.Technical + w.Fundamental + w.Macro + w.Risk + w.Sentiment + w.MarketAlignment
}

// Bands are the lower bounds of the recommendation labels, strongest first.
type Bands struct {
	StrongBuy    float64 `yaml:"strong_buy"`
	Buy          float64 `yaml:"buy"`
	ModerateBuy  float64 `yaml:"moderate_buy"`
	Hold         float64 `yaml:"hold"`
	ModerateSell float64 `yaml:"moderate_sell"`
	Sell         float64 `yaml:"sell"`
}

type QualityTuning struct {
	GradeA           float64 `yaml:"grade_a"`
	GradeB           float64 `yaml:"grade_b"`
	GradeC           float64 `yaml:"grade_c"`
	ConfidenceHigh   float64 `yaml:"confidence_high"`
	ConfidenceMedHi  float64 `yaml:"confidence_medium_high"`
	ConfidenceMedium float64 `yaml:"confidence_medium"`
}

type AlignmentTuning struct {
	Baseline       float64 `yaml:"baseline"`
	BetaAdjust     float64 `yaml:"beta_adjust"`
	SectorAdjust   float64 `yaml:"sector_adjust"`
	CrossAdjust    float64 `yaml:"cross_adjust"`
	HighBeta       float64 `yaml:"high_beta"`
	LowBeta        float64 `yaml:"low_beta"`
	HighVolatility float64 `yaml:"high_volatility"`
	LowVolatility  float64 `yaml:"low_volatility"`
	LeaderCount    int     `yaml:"leader_count"`
}

// Tier is one rung of a signal ladder. Values at or above Min map to Direction with Weight;
// bearish tiers with a finite Min match strictly above it.
type Tier struct {
	Min       float64 `yaml:"min"`
	Direction string  `yaml:"direction"`
	Weight    float64 `yaml:"weight"`
	Label     string  `yaml:"label"`
}

type RegimeTuning struct {
	Threshold           float64 `yaml:"threshold"`
	AggressiveThreshold float64 `yaml:"aggressive_threshold"`
	NoSignalConfidence  float64 `yaml:"no_signal_confidence"`

	// VIX ladder is ordered from the calmest tier; a level below Max of a tier falls into it.
	VIX []VIXTier `yaml:"vix"`
	// The remaining ladders are ordered from the most bullish tier down.
	MA50     []Tier `yaml:"ma50"`
	MA200    []Tier `yaml:"ma200"`
	Momentum []Tier `yaml:"momentum"`

	Rotation RotationTuning `yaml:"rotation"`
}

type VIXTier struct {
	Max       float64 `yaml:"max"`
	Direction string  `yaml:"direction"`
	Weight    float64 `yaml:"weight"`
	Label     string  `yaml:"label"`
}

type RotationTuning struct {
	MinSectors     int      `yaml:"min_sectors"`
	Window         int      `yaml:"window"`
	Strong         int      `yaml:"strong"`
	Moderate       int      `yaml:"moderate"`
	StrongWeight   float64  `yaml:"strong_weight"`
	ModerateWeight float64  `yaml:"moderate_weight"`
	NeutralWeight  float64  `yaml:"neutral_weight"`
	Growth         []string `yaml:"growth"`
	Defensive      []string `yaml:"defensive"`
	Cyclical       []string `yaml:"cyclical"`
}

type DeltaTuning struct {
	StableBand        float64 `yaml:"stable_band"`
	MajorChange       float64 `yaml:"major_change"`
	PriceTolerancePct float64 `yaml:"price_tolerance_pct"`
	ScoreTolerance    float64 `yaml:"score_tolerance"`
	DaysPerYear       float64 `yaml:"days_per_year"`
}

type PatternTuning struct {
	CrossWeight   float64 `yaml:"cross_weight"`
	TrendWeight   float64 `yaml:"trend_weight"`
	VolumeWeight  float64 `yaml:"volume_weight"`
	MACDWeight    float64 `yaml:"macd_weight"`
	RSIWeight     float64 `yaml:"rsi_weight"`
	SurgeRatio    float64 `yaml:"surge_ratio"`
	DumpRatio     float64 `yaml:"dump_ratio"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	Scale         float64 `yaml:"scale"`

	// Backtest: bars walked forward from the detection point, the boost for
	// cross and volume patterns, the share of the expected move that counts
	// as a breakout, and the band a neutral call must stay within.
	BacktestHorizon  int     `yaml:"backtest_horizon"`
	ConvictionBoost  float64 `yaml:"conviction_boost"`
	BreakoutFraction float64 `yaml:"breakout_fraction"`
	NeutralBand      float64 `yaml:"neutral_band"`
}

// DefaultScoring returns the reference tuning.
func DefaultScoring() Scoring {
	return Scoring{
		Thresholds: Thresholds{
			MarketCapMega:     200e9,
			MarketCapLarge:    10e9,
			MarketCapMid:      2e9,
			MarketCapRiskSafe: 100e9,

			PEOptimalMin:    10,
			PEOptimalMax:    25,
			PEAcceptableMin: 5,
			PEAcceptableMax: 35,

			RSINeutralMin:      40,
			RSINeutralMax:      60,
			RSIModerateLowMin:  30,
			RSIModerateHighMax: 70,

			RSISentimentNeutralMin:      45,
			RSISentimentNeutralMax:      55,
			RSISentimentModerateLowMin:  35,
			RSISentimentModerateHighMax: 65,

			MACDSignalConvergence: 0.9,
			VolumeSpikeRatio:      1.2,
			VolumePositiveRatio:   1.0,

			PriceChangeStrong:          0.05,
			PriceChangePositive:        0,
			PriceChangeStrongSentiment: 0.05,

			DebtToEquityIdeal:      0.5,
			DebtToEquityAcceptable: 1.0,
			RevenueSignificant:     10e9,
			EPSStrong:              5,
			EPSPositive:            0,

			FedFundsLow:            2,
			FedFundsModerate:       4,
			FedFundsHigh:           6,
			UnemploymentHealthy:    4.5,
			UnemploymentAcceptable: 6,
			SentimentStrong:        80,
			SentimentModerate:      60,

			VolatilityLow:      0.02,
			VolatilityModerate: 0.05,
			VolatilityHigh:     0.10,
			BetaLow:            0.8,
			BetaModerate:       1.2,
		},
		Weights: Weights{
			Technical:       0.285,
			Fundamental:     0.33,
			Macro:           0.19,
			Risk:            0.145,
			Sentiment:       0,
			MarketAlignment: 0.05,
		},
		Bands: Bands{
			StrongBuy:    4.0,
			Buy:          3.5,
			ModerateBuy:  3.0,
			Hold:         2.5,
			ModerateSell: 2.0,
			Sell:         1.5,
		},
		Quality: QualityTuning{
			GradeA:           0.90,
			GradeB:           0.75,
			GradeC:           0.60,
			ConfidenceHigh:   0.85,
			ConfidenceMedHi:  0.70,
			ConfidenceMedium: 0.55,
		},
		Alignment: AlignmentTuning{
			Baseline:       2.5,
			BetaAdjust:     0.8,
			SectorAdjust:   0.8,
			CrossAdjust:    0.4,
			HighBeta:       1.2,
			LowBeta:        0.8,
			HighVolatility: 0.05,
			LowVolatility:  0.02,
			LeaderCount:    3,
		},
		Regime: RegimeTuning{
			Threshold:           0.3,
			AggressiveThreshold: 0.6,
			NoSignalConfidence:  0.25,
			VIX: []VIXTier{
				{Max: 12, Direction: "bullish", Weight: 0.25, Label: "very low"},
				{Max: 16, Direction: "bullish", Weight: 0.20, Label: "low"},
				{Max: 20, Direction: "neutral", Weight: 0.15, Label: "normal"},
				{Max: 30, Direction: "bearish", Weight: 0.20, Label: "elevated"},
				{Max: math.Inf(1), Direction: "bearish", Weight: 0.25, Label: "very high"},
			},
			MA50: []Tier{
				{Min: 3, Direction: "bullish", Weight: 0.20, Label: "well above"},
				{Min: 0, Direction: "bullish", Weight: 0.10, Label: "above"},
				{Min: -3, Direction: "bearish", Weight: 0.10, Label: "below"},
				{Min: math.Inf(-1), Direction: "bearish", Weight: 0.20, Label: "well below"},
			},
			MA200: []Tier{
				{Min: 5, Direction: "bullish", Weight: 0.15, Label: "well above"},
				{Min: 0, Direction: "bullish", Weight: 0.10, Label: "above"},
				{Min: -2, Direction: "neutral", Weight: 0.05, Label: "testing"},
				{Min: math.Inf(-1), Direction: "bearish", Weight: 0.15, Label: "below"},
			},
			Momentum: []Tier{
				{Min: 3, Direction: "bullish", Weight: 0.15, Label: "strong"},
				{Min: 0, Direction: "bullish", Weight: 0.05, Label: "positive"},
				{Min: -3, Direction: "bearish", Weight: 0.05, Label: "soft"},
				{Min: math.Inf(-1), Direction: "bearish", Weight: 0.15, Label: "weak"},
			},
			Rotation: RotationTuning{
				MinSectors:     6,
				Window:         3,
				Strong:         4,
				Moderate:       2,
				StrongWeight:   0.25,
				ModerateWeight: 0.15,
				NeutralWeight:  0.10,
				Growth:         []string{"Technology", "Consumer Discretionary", "Communication", "Financials", "Industrials"},
				Defensive:      []string{"Utilities", "Consumer Staples", "Healthcare", "Real Estate"},
				Cyclical:       []string{"Energy", "Financials", "Industrials", "Materials"},
			},
		},
		Delta: DeltaTuning{
			StableBand:        0.2,
			MajorChange:       0.5,
			PriceTolerancePct: 1.0,
			ScoreTolerance:    0.1,
			DaysPerYear:       365,
		},
		Pattern: PatternTuning{
			CrossWeight:   2.5,
			TrendWeight:   1.8,
			VolumeWeight:  1.5,
			MACDWeight:    1.3,
			RSIWeight:     1.0,
			SurgeRatio:    1.8,
			DumpRatio:     0.6,
			RSIOversold:   30,
			RSIOverbought: 70,
			Scale:         0.5,

			BacktestHorizon:  30,
			ConvictionBoost:  1.3,
			BreakoutFraction: 0.5,
			NeutralBand:      0.03,
		},
	}
}

// Validate checks the weight table and the regime ladders.
func (s Scoring) Validate() error {
	sum := s.Weights.Sum()
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("weights must sum to 1.0, got %.3f", sum)
	}
	for name, w := range map[string]float64{
		"technical":        s.Weights.Technical,
		"fundamental":      s.Weights.Fundamental,
		"macro":            s.Weights.Macro,
		"risk":             s.Weights.Risk,
		"sentiment":        s.Weights.Sentiment,
		"market_alignment": s.Weights.MarketAlignment,
	} {
		if w < 0 {
			return fmt.Errorf("weight %s must be >= 0", name)
		}
	}
	if s.Regime.Threshold <= 0 || s.Regime.Threshold >= 1 {
		return fmt.Errorf("regime.threshold must be in (0,1)")
	}
	if len(s.Regime.VIX) == 0 || len(s.Regime.MA50) == 0 || len(s.Regime.MA200) == 0 || len(s.Regime.Momentum) == 0 {
		return fmt.Errorf("regime ladders cannot be empty")
	}
	for _, ladder := range [][]Tier{s.Regime.MA50, s.Regime.MA200, s.Regime.Momentum} {
		for _, t := range ladder {
			if t.Weight <= 0 || t.Weight > 1 {
				return fmt.Errorf("regime tier %q weight must be in (0,1]", t.Label)
			}
		}
	}
	for _, t := range s.Regime.VIX {
		if t.Weight <= 0 || t.Weight > 1 {
			return fmt.Errorf("vix tier %q weight must be in (0,1]", t.Label)
		}
	}
	if s.Delta.StableBand < 0 || s.Delta.DaysPerYear <= 0 {
		return fmt.Errorf("delta tuning is invalid")
	}
	if s.Pattern.BacktestHorizon <= 0 || s.Pattern.BreakoutFraction <= 0 || s.Pattern.NeutralBand <= 0 {
		return fmt.Errorf("pattern backtest tuning is invalid")
	}
	return nil
}
