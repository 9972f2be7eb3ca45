package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

var ranking = []string{
	"Technology", "Financials", "Industrials", "Energy",
	"Materials", "Healthcare", "Consumer Staples", "Utilities",
}

func TestAlignment_NoRegimeIsNeutral(t *testing.T) {
	s := AlignmentScorer{a: config.DefaultScoring().Alignment}
	got := s.Score(Input{Metrics: &models.RawMetrics{}})
	assert.Equal(t, 3.0, got.Score)
	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"regime"}, got.Missing)
}

func TestAlignment_Adjustments(t *testing.T) {
	s := AlignmentScorer{a: config.DefaultScoring().Alignment}

	tests := []struct {
		name   string
		regime models.Regime
		sector string
		beta   float64
		vol    float64
		want   float64
	}{
		// beta +0.8, leader +0.8, aggressive profile in risk-on +0.4
		{"risk-on high beta leader", models.RiskOn, "Technology", 1.5, 0.06, 4.5},
		// beta -0.8, leader +0.8, aggressive profile in risk-off -0.4
		{"risk-off high beta leader", models.RiskOff, "technology", 1.5, 0.06, 2.1},
		// beta +0.8, laggard -0.8, defensive profile in risk-off +0.4
		{"risk-off low beta laggard", models.RiskOff, "Utilities", 0.6, 0.01, 2.9},
		// beta -0.8, middle sector, defensive profile in risk-on -0.4
		{"risk-on low beta", models.RiskOn, "Materials", 0.6, 0.01, 1.3},
		// transition only applies the idiosyncratic penalty
		{"transition idiosyncratic", models.Transition, "Energy", 0.6, 0.08, 2.1},
		{"transition moderate", models.Transition, "Materials", 1.0, 0.03, 2.5},
		// transition still applies the laggard penalty
		{"transition laggard", models.Transition, "Healthcare", 1.0, 0.03, 1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.RawMetrics{
				Sector:      tt.sector,
				Technical:   models.TechnicalMetrics{Volatility30D: f(tt.vol)},
				Fundamental: models.FundamentalMetrics{Beta: f(tt.beta)},
			}
			regime := &models.RegimeClassification{Regime: tt.regime, SectorRanking: ranking}
			got := s.Score(Input{Metrics: m, Regime: regime})
			assert.InDelta(t, tt.want, got.Score, 1e-9)
			assert.Empty(t, got.Missing)
		})
	}
}

func TestAlignment_ShortRankingDoesNotOverlap(t *testing.T) {
	s := AlignmentScorer{a: config.DefaultScoring().Alignment}
	short := []string{"Energy", "Utilities", "Technology"}

	assert.Equal(t, 0.8, s.sectorAdjust("Technology", short))
	assert.Equal(t, 0.8, s.sectorAdjust("Energy", short))
	assert.Equal(t, 0.0, s.sectorAdjust("Healthcare", short))

	four := append(short, "Healthcare")
	assert.Equal(t, -0.8, s.sectorAdjust("Healthcare", four))
}

func TestAlignment_MissingInputsReported(t *testing.T) {
	s := AlignmentScorer{a: config.DefaultScoring().Alignment}
	regime := &models.RegimeClassification{Regime: models.RiskOn}
	got := s.Score(Input{Metrics: &models.RawMetrics{}, Regime: regime})
	assert.Equal(t, 2.5, got.Score)
	assert.Equal(t, []string{"regime"}, got.Available)
	assert.Equal(t, []string{"beta", "sector", "volatility_30d"}, got.Missing)
}
