package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

func f(v float64) *float64 { return &v }

func TestDetect_Empty(t *testing.T) {
	got := NewDetector(config.DefaultScoring()).Detect(&models.TechnicalMetrics{})
	assert.Equal(t, 3.0, got.Score)
	assert.Equal(t, SignalNeutral, got.Signal)
	assert.Equal(t, []string{MixedRange}, got.Detected)
}

func TestDetect_BullishStack(t *testing.T) {
	d := NewDetector(config.DefaultScoring())
	got := d.Detect(&models.TechnicalMetrics{
		CurrentPrice: f(120), MA50: f(110), MA200: f(100),
		PrevMA50: f(99), PrevMA200: f(100),
		MACD: f(1.2), MACDSignal: f(1.0), MACDPrevious: f(0.8),
		RSI: f(55),
		Volume: f(2e6), AvgVolume20D: f(1e6),
	})

	assert.Equal(t, []string{GoldenCross, StrongUptrend, MACDBullishCrossover, BullishVolumeSurge}, got.Detected)
	assert.InDelta(t, 7.1, got.Bullish, 1e-9)
	assert.Equal(t, 0.0, got.Bearish)
	// 3 + tanh(3.55)*2 rounds to the ceiling
	assert.Equal(t, 5.0, got.Score)
	assert.Equal(t, SignalExtremelyBullish, got.Signal)
}

func TestDetect_BearishStack(t *testing.T) {
	d := NewDetector(config.DefaultScoring())
	got := d.Detect(&models.TechnicalMetrics{
		CurrentPrice: f(80), MA50: f(90), MA200: f(100),
		PrevMA50: f(101), PrevMA200: f(100),
		RSI: f(75),
		Volume: f(5e5), AvgVolume20D: f(1e6),
	})

	assert.Equal(t, []string{DeathCross, StrongDowntrend, RSIOverbought, BearishVolumeDump}, got.Detected)
	assert.InDelta(t, 6.8, got.Bearish, 1e-9)
	assert.Less(t, got.Score, 2.0)
	assert.Equal(t, SignalExtremelyBearish, got.Signal)
}

func TestDetect_MACDCrossDown(t *testing.T) {
	d := NewDetector(config.DefaultScoring())
	// previous above signal, current below: crossed down
	got := d.Detect(&models.TechnicalMetrics{MACD: f(0.9), MACDSignal: f(1.0), MACDPrevious: f(1.1)})
	assert.Equal(t, []string{MACDBearishCrossover}, got.Detected)
	// 3 + tanh(-0.65)*2
	assert.Equal(t, 1.86, got.Score)

	// no previous: position only
	got = d.Detect(&models.TechnicalMetrics{MACD: f(1.1), MACDSignal: f(1.0)})
	assert.Equal(t, []string{MACDBullishCrossover}, got.Detected)
}

func TestDetect_RSIOversold(t *testing.T) {
	got := NewDetector(config.DefaultScoring()).Detect(&models.TechnicalMetrics{RSI: f(25)})
	assert.Equal(t, []string{RSIOversold}, got.Detected)
	// 3 + tanh(0.5)*2
	assert.Equal(t, 3.92, got.Score)
	assert.Equal(t, SignalBullish, got.Signal)
}

func TestSignal(t *testing.T) {
	assert.Equal(t, SignalExtremelyBearish, Signal(2.0))
	assert.Equal(t, SignalBearish, Signal(2.5))
	assert.Equal(t, SignalNeutral, Signal(3.5))
	assert.Equal(t, SignalBullish, Signal(4.0))
	assert.Equal(t, SignalExtremelyBullish, Signal(4.01))
}
