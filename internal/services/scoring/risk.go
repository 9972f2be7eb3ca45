package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

// RiskScorer rewards low volatility, size and low beta. Higher is safer.
type RiskScorer struct {
	t config.Thresholds
}

func (RiskScorer) Category() models.CategoryID { return models.CategoryRisk }

func (s RiskScorer) Score(in Input) models.CategoryScore {
	m := metrics(in)
	var t tally

	if t.need("volatility_30d", 3, m.Technical.Volatility30D) {
		switch v := *m.Technical.Volatility30D; {
		case v < s.t.VolatilityLow:
			t.award(3)
		case v < s.t.VolatilityModerate:
			t.award(2)
		case v < s.t.VolatilityHigh:
			t.award(1)
		}
	}

	if t.need("market_cap", 2, m.Fundamental.MarketCap) {
		switch mc := *m.Fundamental.MarketCap; {
		case mc > s.t.MarketCapRiskSafe:
			t.award(2)
		case mc > s.t.MarketCapLarge:
			t.award(1)
		}
	}

	if t.need("beta", 2, m.Fundamental.Beta) {
		switch b := *m.Fundamental.Beta; {
		case b < s.t.BetaLow:
			t.award(2)
		case b < s.t.BetaModerate:
			t.award(1)
		}
	}

	return t.result(models.CategoryRisk)
}
