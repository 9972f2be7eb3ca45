package pattern

import (
	"math"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

const (
	GoldenCross          = "Golden Cross"
	DeathCross           = "Death Cross"
	StrongUptrend        = "Strong Uptrend"
	StrongDowntrend      = "Strong Downtrend"
	RSIOversold          = "RSI Oversold"
	RSIOverbought        = "RSI Overbought"
	MACDBullishCrossover = "MACD Bullish Crossover"
	MACDBearishCrossover = "MACD Bearish Crossover"
	BullishVolumeSurge   = "Bullish Volume Surge"
	BearishVolumeDump    = "Bearish Volume Dump"
	MixedRange           = "Mixed/Range"
)

const (
	SignalExtremelyBearish = "Extremely Bearish"
	SignalBearish          = "Bearish"
	SignalNeutral          = "Neutral"
	SignalBullish          = "Bullish"
	SignalExtremelyBullish = "Extremely Bullish"
)

// Detector scores chart patterns from technical metrics. The result is
// reported alongside an analysis and is not part of the composite.
type Detector struct {
	cfg config.PatternTuning
}

func NewDetector(cfg config.Scoring) *Detector {
	return &Detector{cfg: cfg.Pattern}
}

func (d *Detector) Detect(m *models.TechnicalMetrics) models.PatternResult {
	if m == nil {
		m = &models.TechnicalMetrics{}
	}
	var bull, bear float64
	var detected []string
	hit := func(name string, w float64, bullish bool) {
		if bullish {
			bull += w
		} else {
			bear += w
		}
		detected = append(detected, name)
	}

	if up, down := crossed(m.PrevMA50, m.PrevMA200, m.MA50, m.MA200); up {
		hit(GoldenCross, d.cfg.CrossWeight, true)
	} else if down {
		hit(DeathCross, d.cfg.CrossWeight, false)
	}

	if all(m.CurrentPrice, m.MA50, m.MA200) {
		price, ma50, ma200 := *m.CurrentPrice, *m.MA50, *m.MA200
		switch {
		case price > ma50 && ma50 > ma200:
			hit(StrongUptrend, d.cfg.TrendWeight, true)
		case price < ma50 && ma50 < ma200:
			hit(StrongDowntrend, d.cfg.TrendWeight, false)
		}
	}

	if util.Finite(m.RSI) {
		switch {
		case *m.RSI < d.cfg.RSIOversold:
			hit(RSIOversold, d.cfg.RSIWeight, true)
		case *m.RSI > d.cfg.RSIOverbought:
			hit(RSIOverbought, d.cfg.RSIWeight, false)
		}
	}

	if all(m.MACD, m.MACDSignal) {
		macd, signal := *m.MACD, *m.MACDSignal
		bullish, bearish := macd > signal, macd < signal
		if util.Finite(m.MACDPrevious) {
			wasAbove, isAbove := *m.MACDPrevious > signal, macd > signal
			switch {
			case !wasAbove && isAbove:
				bullish, bearish = true, false
			case wasAbove && !isAbove:
				bullish, bearish = false, true
			}
		}
		if bullish {
			hit(MACDBullishCrossover, d.cfg.MACDWeight, true)
		} else if bearish {
			hit(MACDBearishCrossover, d.cfg.MACDWeight, false)
		}
	}

	if all(m.Volume, m.AvgVolume20D) && *m.AvgVolume20D > 0 {
		switch ratio := *m.Volume / *m.AvgVolume20D; {
		case ratio >= d.cfg.SurgeRatio:
			hit(BullishVolumeSurge, d.cfg.VolumeWeight, true)
		case ratio <= d.cfg.DumpRatio:
			hit(BearishVolumeDump, d.cfg.VolumeWeight, false)
		}
	}

	net := bull - bear
	score := util.Clamp(util.Round2(3+math.Tanh(net*d.cfg.Scale)*2), 1, 5)
	if len(detected) == 0 {
		detected = []string{MixedRange}
	}

	return models.PatternResult{
		Score:    score,
		Signal:   Signal(score),
		Detected: detected,
		Bullish:  bull,
		Bearish:  bear,
	}
}

// Signal labels a pattern score.
func Signal(score float64) string {
	switch {
	case score <= 2.0:
		return SignalExtremelyBearish
	case score <= 2.5:
		return SignalBearish
	case score <= 3.5:
		return SignalNeutral
	case score <= 4.0:
		return SignalBullish
	default:
		return SignalExtremelyBullish
	}
}

func crossed(prevA, prevB, curA, curB *float64) (up, down bool) {
	if !all(prevA, prevB, curA, curB) {
		return false, false
	}
	wasAbove, isAbove := *prevA > *prevB, *curA > *curB
	return !wasAbove && isAbove, wasAbove && !isAbove
}

func all(vals ...*float64) bool {
	for _, v := range vals {
		if !util.Finite(v) {
			return false
		}
	}
	return true
}
