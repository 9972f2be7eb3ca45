package delta

import (
	"math"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

// Engine compares an analysis with the prior snapshot of the same symbol.
type Engine struct {
	cfg config.DeltaTuning
}

func NewEngine(cfg config.Scoring) *Engine {
	return &Engine{cfg: cfg.Delta}
}

// Compute returns FirstAnalysis when there is no prior snapshot. prev is
// assumed to be the most recent snapshot for cur.Symbol; that is not verified.
func (e *Engine) Compute(prev, cur *models.AnalysisSnapshot) models.DeltaResult {
	if prev == nil || cur == nil {
		return models.DeltaResult{State: models.FirstAnalysis}
	}

	d := &models.Delta{
		ScoreChange:     util.Round2(cur.Composite - prev.Composite),
		CategoryChanges: make(map[models.CategoryID]float64),
		Elapsed:         cur.Timestamp.Sub(prev.Timestamp),
		PreviousRegime:  prev.Regime,
		CurrentRegime:   cur.Regime,
	}
	days := util.DaysBetween(prev.Timestamp, cur.Timestamp)
	d.ElapsedDays = util.Round2(days)

	for cat, now := range cur.Categories {
		if before, ok := prev.Categories[cat]; ok {
			d.CategoryChanges[cat] = util.Round2(now - before)
		}
	}

	if pct, ok := pctChange(prev.Price, cur.Price); ok {
		d.PriceChangePct = &pct
		if days > 0 {
			ann := (math.Pow(1+pct/100, e.cfg.DaysPerYear/days) - 1) * 100
			if util.IsFinite(ann) {
				ann = util.Round2(ann)
				d.AnnualizedReturnPct = &ann
			}
		}
	}
	if pct, ok := pctChange(prev.Volume, cur.Volume); ok {
		d.VolumeChangePct = &pct
	}

	d.Trend = e.trend(d.ScoreChange)
	d.Significance = e.significance(d.ScoreChange)
	d.RegimeTransition = prev.Regime != "" && cur.Regime != "" && prev.Regime != cur.Regime
	d.Divergence = e.divergence(d.PriceChangePct, d.ScoreChange)
	d.Narrative = narrative(cur.Regime, d.Trend)

	return models.DeltaResult{State: models.DeltaComputed, Previous: prev, Delta: d}
}

func (e *Engine) trend(change float64) models.Trend {
	switch {
	case change >= e.cfg.StableBand:
		return models.Improving
	case change <= -e.cfg.StableBand:
		return models.Declining
	default:
		return models.Stable
	}
}

func (e *Engine) significance(change float64) models.Significance {
	switch abs := math.Abs(change); {
	case abs >= e.cfg.MajorChange:
		return models.Major
	case abs >= e.cfg.StableBand:
		return models.Notable
	default:
		return models.Minor
	}
}

func (e *Engine) divergence(pricePct *float64, scoreChange float64) models.Divergence {
	if pricePct == nil {
		return models.NoDivergence
	}
	switch {
	case *pricePct > e.cfg.PriceTolerancePct && scoreChange < -e.cfg.ScoreTolerance:
		return models.PriceUpScoreDown
	case *pricePct < -e.cfg.PriceTolerancePct && scoreChange > e.cfg.ScoreTolerance:
		return models.PriceDownScoreUp
	default:
		return models.NoDivergence
	}
}

func narrative(regime models.Regime, trend models.Trend) string {
	switch {
	case regime == models.RiskOn && trend == models.Improving:
		return models.NarrativeTailwindConfirmed
	case regime == models.RiskOn && trend == models.Declining:
		return models.NarrativeWarningDespiteTailwind
	case regime == models.RiskOff && trend == models.Improving:
		return models.NarrativeContrarianStrength
	case regime == models.RiskOff && trend == models.Declining:
		return models.NarrativeExpectedRotation
	default:
		return ""
	}
}

func pctChange(before, after float64) (float64, bool) {
	if before <= 0 || !util.IsFinite(before) || !util.IsFinite(after) {
		return 0, false
	}
	return util.Round2((after - before) / before * 100), true
}
