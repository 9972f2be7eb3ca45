package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func analysis(symbol string, composite, risk, fundamental float64, pe, ch1m *float64) models.Analysis {
	return models.Analysis{
		Symbol: symbol,
		Categories: []models.CategoryScore{
			{Category: models.CategoryRisk, Score: risk},
			{Category: models.CategoryFundamental, Score: fundamental},
		},
		Composite: models.CompositeScore{Score: composite, Recommendation: models.Buy},
		Metrics: models.RawMetrics{
			Technical:   models.TechnicalMetrics{PriceChange1M: ch1m},
			Fundamental: models.FundamentalMetrics{PERatio: pe},
		},
	}
}

func TestCompare_TooFew(t *testing.T) {
	_, err := Compare([]models.Analysis{analysis("A", 3, 3, 3, nil, nil)})
	assert.ErrorIs(t, err, ErrTooFewSubjects)
}

func TestCompare_Rankings(t *testing.T) {
	nvda := analysis("NVDA", 3.9, 2.5, 3.4, f(60), f(0.12))
	nvda.Pattern = &models.PatternResult{Signal: "Bullish"}

	got, err := Compare([]models.Analysis{
		analysis("MSFT", 3.7, 4.4, 4.0, f(32), f(0.03)),
		nvda,
		analysis("INTC", 2.4, 3.0, 2.6, f(-5), nil),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "MSFT", "INTC"}, got.Rankings[RankOverall])
	// negative P/E is excluded from value
	assert.Equal(t, []string{"MSFT", "NVDA"}, got.Rankings[RankValue])
	// missing momentum ranks as zero
	assert.Equal(t, []string{"NVDA", "MSFT", "INTC"}, got.Rankings[RankMomentum])
	assert.Equal(t, []string{"MSFT", "INTC", "NVDA"}, got.Rankings[RankSafety])
	assert.Equal(t, []string{"MSFT", "NVDA", "INTC"}, got.Rankings[RankFundamentals])

	rec := got.Recommendation
	assert.Equal(t, "NVDA", rec.BuyNow)
	assert.Equal(t, "MSFT", rec.BestValue)
	assert.Equal(t, "NVDA", rec.BestMomentum)
	assert.Equal(t, "MSFT", rec.Safest)
	assert.Equal(t, []string{
		"NVDA ranks #1 overall with composite score 3.90 (Buy).",
		"Strongest momentum (+12.0% this month).",
		"Pattern signal: Bullish.",
	}, rec.Rationale)

	require.Len(t, got.Entries, 3)
	require.NotNil(t, got.Entries[0].Value)
	assert.InDelta(t, 3.125, *got.Entries[0].Value, 1e-9)
	assert.Nil(t, got.Entries[2].Value)
	assert.Greater(t, got.Dispersion, 0.0)
}

func TestCompare_NoValueCandidates(t *testing.T) {
	got, err := Compare([]models.Analysis{
		analysis("A", 3.0, 3.0, 3.0, nil, f(0.01)),
		analysis("B", 3.5, 2.0, 3.0, nil, f(0.02)),
	})
	require.NoError(t, err)
	assert.Empty(t, got.Rankings[RankValue])
	assert.Equal(t, "", got.Recommendation.BestValue)
	assert.Equal(t, "B", got.Recommendation.BuyNow)
}
