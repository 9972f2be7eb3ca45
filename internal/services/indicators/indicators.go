package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"FinScore/internal/domain/models"
)

const (
	avgVolumeWindow  = 20
	volatilityCloses = 30
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignal       = 9
	yearBars         = 252
	monthBars        = 20
	weekBars         = 5
)

// Series is a column view of ascending daily bars.
type Series struct {
	Closes  []float64
	Highs   []float64
	Lows    []float64
	Volumes []float64
}

func FromBars(bars []models.Bar) Series {
	s := Series{
		Closes:  make([]float64, len(bars)),
		Highs:   make([]float64, len(bars)),
		Lows:    make([]float64, len(bars)),
		Volumes: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Closes[i] = b.Close
		s.Highs[i] = b.High
		s.Lows[i] = b.Low
		s.Volumes[i] = b.Volume
	}
	return s
}

// Derive returns a copy of m with every absent technical indicator that the
// series can support filled in. Supplied values are never overwritten.
func Derive(m models.RawMetrics, s Series) models.RawMetrics {
	out := m.Clone()
	t := &out.Technical
	closes := s.Closes
	n := len(closes)
	if n == 0 {
		return out
	}

	fill(&t.CurrentPrice, ptr(closes[n-1]))
	if len(s.Volumes) == n {
		fill(&t.Volume, ptr(s.Volumes[n-1]))
		fill(&t.AvgVolume20D, AvgVolume(s.Volumes, avgVolumeWindow))
	}

	fill(&t.PriceChange1D, Change(closes, 1))
	fill(&t.PriceChange5D, Change(closes, weekBars))
	fill(&t.PriceChange1M, Change(closes, monthBars))
	fill(&t.Volatility30D, Volatility(closes, volatilityCloses))

	fill(&t.MA50, SMA(closes, 50, 0))
	fill(&t.MA200, SMA(closes, 200, 0))
	fill(&t.PrevMA50, SMA(closes, 50, 1))
	fill(&t.PrevMA200, SMA(closes, 200, 1))
	fill(&t.RSI, RSI(closes, rsiPeriod))

	if macd, signal, prev := MACD(closes); macd != nil {
		fill(&t.MACD, macd)
		fill(&t.MACDSignal, signal)
		fill(&t.MACDPrevious, prev)
	}

	if len(s.Highs) == n && len(s.Lows) == n {
		start := max(0, n-yearBars)
		fill(&out.Fundamental.Week52High, ptr(maxOf(s.Highs[start:])))
		fill(&out.Fundamental.Week52Low, ptr(minOf(s.Lows[start:])))
	}
	return out
}

// AvgVolume is the mean of the last window volumes.
func AvgVolume(volumes []float64, window int) *float64 {
	if len(volumes) < window || window <= 0 {
		return nil
	}
	return ptr(stat.Mean(volumes[len(volumes)-window:], nil))
}

// Change is the fractional price change over the last `back` bars.
func Change(closes []float64, back int) *float64 {
	n := len(closes)
	if n <= back || closes[n-1-back] <= 0 {
		return nil
	}
	base := closes[n-1-back]
	return ptr((closes[n-1] - base) / base)
}

// Volatility is the population standard deviation of daily returns over the
// last `window` closes.
func Volatility(closes []float64, window int) *float64 {
	if len(closes) < window || window < 2 {
		return nil
	}
	tail := closes[len(closes)-window:]
	returns := make([]float64, 0, window-1)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] <= 0 {
			return nil
		}
		returns = append(returns, tail[i]/tail[i-1]-1)
	}
	return ptr(stat.PopStdDev(returns, nil))
}

// SMA returns the simple moving average ending `offset` bars before the last.
func SMA(closes []float64, period, offset int) *float64 {
	if len(closes) < period+offset {
		return nil
	}
	sma := talib.Sma(closes, period)
	return ptr(sma[len(sma)-1-offset])
}

func RSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	rsi := talib.Rsi(closes, period)
	return ptr(rsi[len(rsi)-1])
}

// MACD returns the 12/26/9 MACD line, its signal line and the previous MACD value.
func MACD(closes []float64) (macd, signal, previous *float64) {
	lookback := macdSlow + macdSignal - 2
	if len(closes) <= lookback {
		return nil, nil, nil
	}
	line, sig, _ := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	n := len(line)
	macd, signal = ptr(line[n-1]), ptr(sig[n-1])
	if len(closes) > lookback+1 {
		previous = ptr(line[n-2])
	}
	return macd, signal, previous
}

// MomentumPct is the percent change over `back` bars, as the regime inputs expect.
func MomentumPct(closes []float64, back int) *float64 {
	c := Change(closes, back)
	if c == nil {
		return nil
	}
	return ptr(*c * 100)
}

func fill(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
	}
}

func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}
