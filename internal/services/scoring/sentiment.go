package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

// SentimentScorer is reported for reference; its default composite weight is zero.
type SentimentScorer struct {
	t config.Thresholds
}

func (SentimentScorer) Category() models.CategoryID { return models.CategorySentiment }

func (s SentimentScorer) Score(in Input) models.CategoryScore {
	m := &metrics(in).Technical
	var t tally

	if t.need("rsi", 2, m.RSI) {
		rsi := *m.RSI
		switch {
		case rsi >= s.t.RSISentimentNeutralMin && rsi <= s.t.RSISentimentNeutralMax:
			t.award(2)
		case (rsi >= s.t.RSISentimentModerateLowMin && rsi < s.t.RSISentimentNeutralMin) ||
			(rsi > s.t.RSISentimentNeutralMax && rsi <= s.t.RSISentimentModerateHighMax):
			t.award(1)
		}
	}

	if t.need("volume", 1, m.Volume, m.AvgVolume20D) {
		if *m.Volume > *m.AvgVolume20D*s.t.VolumePositiveRatio {
			t.award(1)
		}
	}

	if t.need("momentum_1m", 2, m.PriceChange1M) {
		switch ch := *m.PriceChange1M; {
		case ch > s.t.PriceChangeStrongSentiment:
			t.award(2)
		case ch > s.t.PriceChangePositive:
			t.award(1)
		}
	}

	return t.result(models.CategorySentiment)
}
