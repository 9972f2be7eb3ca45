package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
)

func linear(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func bars(closes []float64) []models.Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := linear(250)

	ma50 := SMA(closes, 50, 0)
	require.NotNil(t, ma50)
	assert.InDelta(t, 225.5, *ma50, 1e-9)

	prev := SMA(closes, 50, 1)
	require.NotNil(t, prev)
	assert.InDelta(t, 224.5, *prev, 1e-9)

	ma200 := SMA(closes, 200, 0)
	require.NotNil(t, ma200)
	assert.InDelta(t, 150.5, *ma200, 1e-9)

	assert.Nil(t, SMA(closes[:199], 200, 0))
	assert.Nil(t, SMA(closes[:200], 200, 1))
}

func TestChange(t *testing.T) {
	closes := linear(30)
	assert.InDelta(t, 1.0/29, *Change(closes, 1), 1e-12)
	assert.InDelta(t, 5.0/25, *Change(closes, 5), 1e-12)
	assert.InDelta(t, 20.0/10, *Change(closes, 20), 1e-12)
	assert.Nil(t, Change(closes[:20], 20))
	assert.InDelta(t, 200.0, *MomentumPct(closes, 20), 1e-9)
}

func TestVolatility(t *testing.T) {
	steady := make([]float64, 40)
	for i := range steady {
		steady[i] = 100 * math.Pow(1.01, float64(i))
	}
	v := Volatility(steady, 30)
	require.NotNil(t, v)
	assert.InDelta(t, 0, *v, 1e-12)

	// alternating +10% / -10%: returns are symmetric around zero
	alt := []float64{100}
	for i := 1; i < 30; i++ {
		if i%2 == 1 {
			alt = append(alt, alt[i-1]*1.1)
		} else {
			alt = append(alt, alt[i-1]*0.9)
		}
	}
	v = Volatility(alt, 30)
	require.NotNil(t, v)
	// 15 returns of +0.1 and 14 of -0.1
	mean := (15*0.1 - 14*0.1) / 29
	want := math.Sqrt((15*math.Pow(0.1-mean, 2) + 14*math.Pow(-0.1-mean, 2)) / 29)
	assert.InDelta(t, want, *v, 1e-9)

	assert.Nil(t, Volatility(alt[:29], 30))
}

func TestRSIAndMACD(t *testing.T) {
	closes := linear(60)

	rsi := RSI(closes, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100, *rsi, 1e-9)
	assert.Nil(t, RSI(closes[:14], 14))

	macd, signal, prev := MACD(closes)
	require.NotNil(t, macd)
	require.NotNil(t, signal)
	require.NotNil(t, prev)
	assert.Greater(t, *macd, 0.0)

	macd, _, prev = MACD(closes[:34])
	assert.NotNil(t, macd)
	assert.Nil(t, prev)

	macd, _, _ = MACD(closes[:33])
	assert.Nil(t, macd)
}

func TestAvgVolume(t *testing.T) {
	vols := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 40}
	got := AvgVolume(vols, 20)
	require.NotNil(t, got)
	// last 20: nine 10s, ten 20s, one 40
	assert.InDelta(t, 16.5, *got, 1e-9)
	assert.Nil(t, AvgVolume(vols[:19], 20))
}

func TestDerive_FillsOnlyAbsent(t *testing.T) {
	supplied := 42.0
	m := models.RawMetrics{Technical: models.TechnicalMetrics{RSI: &supplied}}

	got := Derive(m, FromBars(bars(linear(250))))
	tech := got.Technical

	assert.Equal(t, 42.0, *tech.RSI)
	require.NotNil(t, tech.CurrentPrice)
	assert.Equal(t, 250.0, *tech.CurrentPrice)
	assert.Equal(t, 1000.0, *tech.Volume)
	assert.Equal(t, 1000.0, *tech.AvgVolume20D)
	assert.InDelta(t, 225.5, *tech.MA50, 1e-9)
	assert.InDelta(t, 150.5, *tech.MA200, 1e-9)
	assert.NotNil(t, tech.PrevMA50)
	assert.NotNil(t, tech.PrevMA200)
	assert.NotNil(t, tech.MACD)
	assert.NotNil(t, tech.MACDPrevious)
	assert.NotNil(t, tech.Volatility30D)
	assert.NotNil(t, tech.PriceChange1M)
	assert.Equal(t, 251.0, *got.Fundamental.Week52High)
	assert.Equal(t, 0.5, *got.Fundamental.Week52Low)

	// the input is untouched
	assert.Nil(t, m.Technical.CurrentPrice)
}

func TestDerive_EmptySeries(t *testing.T) {
	m := models.RawMetrics{}
	got := Derive(m, Series{})
	assert.Nil(t, got.Technical.CurrentPrice)
}
