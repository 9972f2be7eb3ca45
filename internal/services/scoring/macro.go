package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

type MacroScorer struct {
	t config.Thresholds
}

func (MacroScorer) Category() models.CategoryID { return models.CategoryMacro }

func (s MacroScorer) Score(in Input) models.CategoryScore {
	m := &metrics(in).Macro
	var t tally

	if t.need("fed_funds_rate", 3, m.FedFundsRate) {
		switch r := *m.FedFundsRate; {
		case r < s.t.FedFundsLow:
			t.award(3)
		case r < s.t.FedFundsModerate:
			t.award(2)
		case r < s.t.FedFundsHigh:
			t.award(1)
		}
	}

	if t.need("unemployment", 2, m.Unemployment) {
		switch u := *m.Unemployment; {
		case u < s.t.UnemploymentHealthy:
			t.award(2)
		case u < s.t.UnemploymentAcceptable:
			t.award(1)
		}
	}

	if t.need("consumer_sentiment", 2, m.ConsumerSentiment) {
		switch cs := *m.ConsumerSentiment; {
		case cs > s.t.SentimentStrong:
			t.award(2)
		case cs > s.t.SentimentModerate:
			t.award(1)
		}
	}

	return t.result(models.CategoryMacro)
}
