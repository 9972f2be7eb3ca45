package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

// TechnicalScorer rates trend, oscillator and volume evidence.
type TechnicalScorer struct {
	t config.Thresholds
}

func (TechnicalScorer) Category() models.CategoryID { return models.CategoryTechnical }

func (s TechnicalScorer) Score(in Input) models.CategoryScore {
	m := &metrics(in).Technical
	var t tally

	if t.need("ma_alignment", 3, m.CurrentPrice, m.MA50, m.MA200) {
		price, ma50, ma200 := *m.CurrentPrice, *m.MA50, *m.MA200
		switch {
		case price > ma50 && ma50 > ma200:
			t.award(3)
		case price > ma50:
			t.award(2)
		case price > ma200:
			t.award(1)
		}
	}

	if t.need("rsi", 2, m.RSI) {
		rsi := *m.RSI
		switch {
		case rsi >= s.t.RSINeutralMin && rsi <= s.t.RSINeutralMax:
			t.award(2)
		case (rsi >= s.t.RSIModerateLowMin && rsi < s.t.RSINeutralMin) ||
			(rsi > s.t.RSINeutralMax && rsi <= s.t.RSIModerateHighMax):
			t.award(1)
		}
	}

	if t.need("macd", 2, m.MACD, m.MACDSignal) {
		macd, signal := *m.MACD, *m.MACDSignal
		switch {
		case macd > signal:
			t.award(2)
		case macd > signal*s.t.MACDSignalConvergence:
			t.award(1)
		}
	}

	if t.need("volume", 1, m.Volume, m.AvgVolume20D) {
		if *m.Volume > *m.AvgVolume20D*s.t.VolumeSpikeRatio {
			t.award(1)
		}
	}

	if t.need("momentum_1m", 2, m.PriceChange1M) {
		ch := *m.PriceChange1M
		switch {
		case ch > s.t.PriceChangeStrong:
			t.award(2)
		case ch > s.t.PriceChangePositive:
			t.award(1)
		}
	}

	return t.result(models.CategoryTechnical)
}
