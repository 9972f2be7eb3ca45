package scoring

import (
	"strings"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

// AlignmentScorer rates how well an instrument's profile fits the current regime.
// Without regime context it is neutral.
type AlignmentScorer struct {
	a config.AlignmentTuning
}

func (AlignmentScorer) Category() models.CategoryID { return models.CategoryMarketAlignment }

func (s AlignmentScorer) Score(in Input) models.CategoryScore {
	m := metrics(in)
	cat := models.CategoryMarketAlignment

	if in.Regime == nil {
		return finalize(cat, NeutralScore, nil, []string{"regime"})
	}

	available := []string{"regime"}
	var missing []string
	regime := in.Regime.Regime
	beta, vol := m.Fundamental.Beta, m.Technical.Volatility30D
	score := s.a.Baseline

	if util.Finite(beta) {
		available = append(available, "beta")
		score += s.betaAdjust(regime, *beta)
	} else {
		missing = append(missing, "beta")
	}

	if m.Sector != "" && len(in.Regime.SectorRanking) > 0 {
		available = append(available, "sector")
		score += s.sectorAdjust(m.Sector, in.Regime.SectorRanking)
	} else {
		missing = append(missing, "sector")
	}

	if util.Finite(beta) && util.Finite(vol) {
		available = append(available, "volatility_30d")
		score += s.crossAdjust(regime, *beta, *vol)
	} else {
		missing = append(missing, "volatility_30d")
	}

	return finalize(cat, util.Round2(util.Clamp(score, MinScore, MaxScore)), available, missing)
}

func (s AlignmentScorer) betaAdjust(regime models.Regime, beta float64) float64 {
	high, low := beta >= s.a.HighBeta, beta <= s.a.LowBeta
	switch regime {
	case models.RiskOn:
		if high {
			return s.a.BetaAdjust
		}
		if low {
			return -s.a.BetaAdjust
		}
	case models.RiskOff:
		if low {
			return s.a.BetaAdjust
		}
		if high {
			return -s.a.BetaAdjust
		}
	}
	return 0
}

// sectorAdjust rewards sectors among the leaders and penalizes the laggards.
// With a short ranking the two groups never overlap.
func (s AlignmentScorer) sectorAdjust(sector string, ranking []string) float64 {
	n := s.a.LeaderCount
	if n <= 0 {
		return 0
	}
	leaders := ranking[:min(n, len(ranking))]
	laggardsFrom := max(len(ranking)-n, len(leaders))

	for _, name := range leaders {
		if strings.EqualFold(name, sector) {
			return s.a.SectorAdjust
		}
	}
	for _, name := range ranking[laggardsFrom:] {
		if strings.EqualFold(name, sector) {
			return -s.a.SectorAdjust
		}
	}
	return 0
}

func (s AlignmentScorer) crossAdjust(regime models.Regime, beta, vol float64) float64 {
	highBeta, lowBeta := beta >= s.a.HighBeta, beta <= s.a.LowBeta
	highVol, lowVol := vol >= s.a.HighVolatility, vol <= s.a.LowVolatility

	switch {
	case highVol && lowBeta:
		// idiosyncratic risk the market does not explain
		return -s.a.CrossAdjust
	case highVol && highBeta:
		switch regime {
		case models.RiskOn:
			return s.a.CrossAdjust
		case models.RiskOff:
			return -s.a.CrossAdjust
		}
	case lowVol && lowBeta:
		switch regime {
		case models.RiskOff:
			return s.a.CrossAdjust
		case models.RiskOn:
			return -s.a.CrossAdjust
		}
	}
	return 0
}
