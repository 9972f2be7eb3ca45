package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

func f(v float64) *float64 { return &v }

func fullMetrics() models.RawMetrics {
	return models.RawMetrics{
		Technical: models.TechnicalMetrics{
			CurrentPrice: f(110), MA50: f(100), MA200: f(90), RSI: f(50),
			MACD: f(1.5), MACDSignal: f(1.0), Volume: f(1.5e6), AvgVolume20D: f(1e6),
			Volatility30D: f(0.015), PriceChange1D: f(0.01), PriceChange5D: f(0.02), PriceChange1M: f(0.08),
		},
		Fundamental: models.FundamentalMetrics{
			MarketCap: f(2.5e12), PERatio: f(28), EPS: f(6), RevenueTTM: f(380e9),
			DebtToEquity: f(1.5), Beta: f(1.1), Week52High: f(120), Week52Low: f(80),
		},
		Macro: models.MacroMetrics{FedFundsRate: f(5.25), Unemployment: f(3.8), ConsumerSentiment: f(70)},
	}
}

func TestValidate_FullBundle(t *testing.T) {
	v := NewValidator(config.DefaultScoring())
	m := fullMetrics()

	r := v.Validate(&m)
	assert.True(t, r.CanProceed)
	assert.Equal(t, 23, r.Total)
	assert.Equal(t, 23, r.Present)
	assert.Equal(t, 1.0, r.Completeness)
	assert.Equal(t, GradeA, r.Grade)
	assert.Equal(t, ConfidenceHigh, r.Confidence)
	assert.Empty(t, r.MissingOptional)
}

func TestValidate_CriticalGate(t *testing.T) {
	v := NewValidator(config.DefaultScoring())

	tests := []struct {
		name    string
		mutate  func(*models.RawMetrics)
		missing []string
	}{
		{"no price", func(m *models.RawMetrics) { m.Technical.CurrentPrice = nil }, []string{"current_price"}},
		{"no volume", func(m *models.RawMetrics) { m.Technical.Volume = nil }, []string{"volume"}},
		{"nan price", func(m *models.RawMetrics) { m.Technical.CurrentPrice = f(math.NaN()) }, []string{"current_price"}},
		{"both", func(m *models.RawMetrics) {
			m.Technical.CurrentPrice = nil
			m.Technical.Volume = nil
		}, []string{"current_price", "volume"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fullMetrics()
			tt.mutate(&m)
			r := v.Validate(&m)
			assert.False(t, r.CanProceed)
			assert.Equal(t, 0.0, r.Completeness)
			assert.Equal(t, GradeD, r.Grade)
			assert.Equal(t, ConfidenceLow, r.Confidence)
			assert.Equal(t, tt.missing, r.MissingCritical)
		})
	}
}

func TestValidate_Ladders(t *testing.T) {
	v := NewValidator(config.DefaultScoring())

	tests := []struct {
		drop       int
		grade      string
		confidence string
	}{
		{0, GradeA, ConfidenceHigh},        // 23/23
		{2, GradeA, ConfidenceHigh},        // 21/23 = 0.913
		{3, GradeB, ConfidenceHigh},        // 20/23 = 0.870
		{5, GradeB, ConfidenceMediumHigh},  // 18/23 = 0.783
		{6, GradeC, ConfidenceMediumHigh},  // 17/23 = 0.739
		{9, GradeC, ConfidenceMedium},      // 14/23 = 0.609
		{10, GradeD, ConfidenceMedium},     // 13/23 = 0.565
		{21, GradeD, ConfidenceLow},        // 2/23
	}
	for _, tt := range tests {
		m := fullMetrics()
		fields := m.Graded()
		// drop optional fields from the end of the graded list
		dropped := 0
		for i := len(fields) - 1; i >= 0 && dropped < tt.drop; i-- {
			if fields[i].Critical {
				continue
			}
			dropField(&m, fields[i].Name)
			dropped++
		}
		r := v.Validate(&m)
		require.True(t, r.CanProceed)
		assert.Equal(t, 23-tt.drop, r.Present)
		assert.Equal(t, tt.grade, r.Grade, "drop %d", tt.drop)
		assert.Equal(t, tt.confidence, r.Confidence, "drop %d", tt.drop)
		assert.Len(t, r.MissingOptional, tt.drop)
	}
}

func TestValidate_NilBundle(t *testing.T) {
	r := NewValidator(config.DefaultScoring()).Validate(nil)
	assert.False(t, r.CanProceed)
	assert.Len(t, r.MissingCritical, 2)
	assert.Len(t, r.MissingOptional, 21)
}

func dropField(m *models.RawMetrics, name string) {
	t, fu, x := &m.Technical, &m.Fundamental, &m.Macro
	ptrs := map[string]**float64{
		"ma_50": &t.MA50, "ma_200": &t.MA200, "rsi": &t.RSI, "macd": &t.MACD, "macd_signal": &t.MACDSignal,
		"avg_volume_20d": &t.AvgVolume20D, "volatility_30d": &t.Volatility30D,
		"price_change_1d": &t.PriceChange1D, "price_change_5d": &t.PriceChange5D, "price_change_1m": &t.PriceChange1M,
		"market_cap": &fu.MarketCap, "pe_ratio": &fu.PERatio, "eps": &fu.EPS, "revenue_ttm": &fu.RevenueTTM,
		"debt_to_equity": &fu.DebtToEquity, "beta": &fu.Beta, "week52_high": &fu.Week52High, "week52_low": &fu.Week52Low,
		"fed_funds_rate": &x.FedFundsRate, "unemployment": &x.Unemployment, "consumer_sentiment": &x.ConsumerSentiment,
	}
	*ptrs[name] = nil
}
