package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

type FundamentalScorer struct {
	t config.Thresholds
}

func (FundamentalScorer) Category() models.CategoryID { return models.CategoryFundamental }

func (s FundamentalScorer) Score(in Input) models.CategoryScore {
	m := &metrics(in).Fundamental
	var t tally

	if t.need("market_cap", 3, m.MarketCap) {
		switch mc := *m.MarketCap; {
		case mc > s.t.MarketCapMega:
			t.award(3)
		case mc > s.t.MarketCapLarge:
			t.award(2)
		case mc > s.t.MarketCapMid:
			t.award(1)
		}
	}

	if t.need("pe_ratio", 2, m.PERatio) {
		switch pe := *m.PERatio; {
		case pe >= s.t.PEOptimalMin && pe <= s.t.PEOptimalMax:
			t.award(2)
		case (pe >= s.t.PEAcceptableMin && pe < s.t.PEOptimalMin) ||
			(pe > s.t.PEOptimalMax && pe <= s.t.PEAcceptableMax):
			t.award(1)
		}
	}

	if t.need("debt_to_equity", 2, m.DebtToEquity) {
		switch de := *m.DebtToEquity; {
		case de < s.t.DebtToEquityIdeal:
			t.award(2)
		case de < s.t.DebtToEquityAcceptable:
			t.award(1)
		}
	}

	if t.need("revenue_ttm", 1, m.RevenueTTM) {
		if *m.RevenueTTM > s.t.RevenueSignificant {
			t.award(1)
		}
	}

	if t.need("eps", 2, m.EPS) {
		switch eps := *m.EPS; {
		case eps > s.t.EPSStrong:
			t.award(2)
		case eps > s.t.EPSPositive:
			t.award(1)
		}
	}

	return t.result(models.CategoryFundamental)
}
