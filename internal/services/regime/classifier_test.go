package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

func f(v float64) *float64 { return &v }

func sig(d models.Direction, w float64) models.MarketSignal {
	return models.MarketSignal{Label: "test", Direction: d, Weight: w, Detail: "detail"}
}

func newClassifier() *Classifier {
	return NewClassifier(config.DefaultScoring())
}

func TestAggregate_RiskOffScenario(t *testing.T) {
	c := newClassifier()
	got := c.Aggregate([]models.MarketSignal{
		sig(models.Bearish, 0.25),
		sig(models.Bearish, 0.20),
		sig(models.Neutral, 0.10),
		sig(models.Bearish, 0.25),
		sig(models.Bullish, 0.15),
	})

	assert.Equal(t, models.RiskOff, got.Regime)
	assert.InDelta(t, -0.579, got.Score, 0.001)
	assert.InDelta(t, 0.79, got.Confidence, 0.001)
	assert.Equal(t, models.Defensive, got.RiskAssessment)
	assert.Len(t, got.Reasoning, 5)
	assert.Equal(t, "test: detail (bearish)", got.Reasoning[0])
}

func TestAggregate_ThresholdBoundaries(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name       string
		bull, bear float64
		regime     models.Regime
		risk       models.RiskAssessment
		confidence float64
	}{
		{"exactly +0.3", 0.65, 0.35, models.Transition, models.NeutralRisk, 0.5},
		{"exactly -0.3", 0.35, 0.65, models.Transition, models.NeutralRisk, 0.5},
		{"just above", 0.66, 0.34, models.RiskOn, models.NeutralRisk, 0.66},
		{"just below", 0.34, 0.66, models.RiskOff, models.Defensive, 0.66},
		{"balanced", 0.5, 0.5, models.Transition, models.NeutralRisk, 0.65},
		{"aggressive edge", 0.8, 0.2, models.RiskOn, models.Aggressive, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Aggregate([]models.MarketSignal{
				sig(models.Bullish, tt.bull),
				sig(models.Bearish, tt.bear),
			})
			assert.Equal(t, tt.regime, got.Regime)
			assert.Equal(t, tt.risk, got.RiskAssessment)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestAggregate_NoSignals(t *testing.T) {
	got := newClassifier().Aggregate(nil)
	assert.Equal(t, models.Transition, got.Regime)
	assert.Equal(t, 0.25, got.Confidence)
	assert.Equal(t, models.NeutralRisk, got.RiskAssessment)
	assert.Equal(t, 0.0, got.Score)
	assert.NotNil(t, got.Signals)
}

func TestAggregate_ConfidenceAlwaysInRange(t *testing.T) {
	c := newClassifier()
	dirs := []models.Direction{models.Bullish, models.Bearish, models.Neutral}
	for i := 0; i < 27; i++ {
		signals := []models.MarketSignal{
			sig(dirs[i%3], 0.25),
			sig(dirs[(i/3)%3], 0.15),
			sig(dirs[(i/9)%3], 0.05),
		}
		got := c.Aggregate(signals)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
		assert.GreaterOrEqual(t, got.Score, -1.0)
		assert.LessOrEqual(t, got.Score, 1.0)
	}
}

func TestClassify_BullishMarket(t *testing.T) {
	asOf := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	in := models.MarketInputs{
		VIX:        f(14),
		IndexPrice: f(4500),
		IndexMA50:  f(4400),
		IndexMA200: f(4200),
		Momentum1M: f(4),
		Sectors: []models.SectorPerformance{
			{Name: "Energy", Performance: 1},
			{Name: "Technology", Performance: 5},
			{Name: "Consumer Discretionary", Performance: 4},
			{Name: "Communication", Performance: 3},
			{Name: "Materials", Performance: 0.5},
			{Name: "Healthcare", Performance: -1},
			{Name: "Real Estate", Performance: -2},
			{Name: "Utilities", Performance: -3},
		},
		AsOf: asOf,
	}

	got := newClassifier().Classify(in)
	require.Len(t, got.Signals, 5)
	for _, s := range got.Signals {
		assert.Equal(t, models.Bullish, s.Direction, s.Label)
	}
	assert.Equal(t, models.RiskOn, got.Regime)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, models.Aggressive, got.RiskAssessment)
	assert.Equal(t, asOf, got.ClassifiedAt)
	assert.Equal(t, []string{
		"Technology", "Consumer Discretionary", "Communication", "Energy",
		"Materials", "Healthcare", "Real Estate", "Utilities",
	}, got.SectorRanking)
	assert.Equal(t, "Mixed rotation led by Technology (+5.00%)", got.SectorRotation)

	rotation := got.Signals[4]
	assert.Equal(t, SignalRotation, rotation.Label)
	assert.Equal(t, 0.25, rotation.Weight)
}

func TestClassify_MissingInputsOmitSignals(t *testing.T) {
	got := newClassifier().Classify(models.MarketInputs{
		VIX:       f(35),
		IndexMA50: f(100), // no index price
		Sectors:   []models.SectorPerformance{{Name: "Utilities", Performance: 1}},
	})

	require.Len(t, got.Signals, 1)
	assert.Equal(t, SignalVIX, got.Signals[0].Label)
	assert.Equal(t, 0.25, got.Signals[0].Weight)
	assert.Equal(t, models.RiskOff, got.Regime)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "Insufficient sector data", got.SectorRotation)
}

func TestVIXTiers(t *testing.T) {
	c := newClassifier()
	tests := []struct {
		vix    float64
		dir    models.Direction
		weight float64
	}{
		{10, models.Bullish, 0.25},
		{12, models.Bullish, 0.20},
		{15.9, models.Bullish, 0.20},
		{16, models.Neutral, 0.15},
		{20, models.Bearish, 0.20},
		{29.9, models.Bearish, 0.20},
		{30, models.Bearish, 0.25},
		{80, models.Bearish, 0.25},
	}
	for _, tt := range tests {
		got := c.vixSignal(tt.vix)
		assert.Equal(t, tt.dir, got.Direction, "vix %v", tt.vix)
		assert.Equal(t, tt.weight, got.Weight, "vix %v", tt.vix)
	}
}

func TestLadderTiers(t *testing.T) {
	cfg := config.DefaultScoring().Regime
	tests := []struct {
		name   string
		tiers  []config.Tier
		v      float64
		dir    models.Direction
		weight float64
	}{
		{"ma50 strong", cfg.MA50, 3, models.Bullish, 0.20},
		{"ma50 above", cfg.MA50, 0, models.Bullish, 0.10},
		{"ma50 slightly below", cfg.MA50, -2.9, models.Bearish, 0.10},
		{"ma50 at -3", cfg.MA50, -3, models.Bearish, 0.20},
		{"ma200 strong", cfg.MA200, 5, models.Bullish, 0.15},
		{"ma200 above", cfg.MA200, 1, models.Bullish, 0.10},
		{"ma200 testing", cfg.MA200, -2, models.Neutral, 0.05},
		{"ma200 below", cfg.MA200, -2.1, models.Bearish, 0.15},
		{"momentum strong", cfg.Momentum, 3, models.Bullish, 0.15},
		{"momentum positive", cfg.Momentum, 0, models.Bullish, 0.05},
		{"momentum soft", cfg.Momentum, -1, models.Bearish, 0.05},
		{"momentum weak", cfg.Momentum, -3, models.Bearish, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ladderSignal("x", tt.tiers, tt.v, "d")
			assert.Equal(t, tt.dir, got.Direction)
			assert.Equal(t, tt.weight, got.Weight)
		})
	}
}
