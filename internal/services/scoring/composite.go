package scoring

import (
	"math"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

// WeightTable converts the configured weights into the typed lookup used by the aggregator.
func WeightTable(w config.Weights) map[models.CategoryID]float64 {
	return map[models.CategoryID]float64{
		models.CategoryTechnical:       w.Technical,
		models.CategoryFundamental:     w.Fundamental,
		models.CategoryMacro:           w.Macro,
		models.CategoryRisk:            w.Risk,
		models.CategorySentiment:       w.Sentiment,
		models.CategoryMarketAlignment: w.MarketAlignment,
	}
}

// Aggregator blends category scores into the composite.
type Aggregator struct {
	weights map[models.CategoryID]float64
	bands   config.Bands
}

func NewAggregator(cfg config.Scoring) *Aggregator {
	return &Aggregator{weights: WeightTable(cfg.Weights), bands: cfg.Bands}
}

// Aggregate computes the weighted composite. Categories that are missing or
// not finite drop out with their weight and the remainder is renormalized.
func (a *Aggregator) Aggregate(scores map[models.CategoryID]float64) models.CompositeScore {
	used := make(map[models.CategoryID]float64, len(a.weights))
	var excluded []models.CategoryID
	var total, weightSum float64

	for _, cat := range models.Categories {
		w := a.weights[cat]
		if w <= 0 {
			continue
		}
		s, ok := scores[cat]
		if !ok || !util.IsFinite(s) {
			excluded = append(excluded, cat)
			continue
		}
		total += util.Clamp(s, MinScore, MaxScore) * w
		weightSum += w
		used[cat] = w
	}

	composite := NeutralScore
	if weightSum > 0 {
		composite = total
		if weightSum < 1 {
			composite = total / weightSum
			for cat, w := range used {
				used[cat] = w / weightSum
			}
		}
	}
	if !util.IsFinite(composite) {
		composite = NeutralScore
	}
	composite = util.Round2(util.Clamp(composite, MinScore, MaxScore))

	return models.CompositeScore{
		Score:          composite,
		Recommendation: Recommend(composite, a.bands),
		Weights:        used,
		Excluded:       excluded,
	}
}

// Recommend maps a composite score onto the recommendation bands.
func Recommend(score float64, b config.Bands) models.Recommendation {
	switch {
	case math.IsNaN(score):
		return models.Hold
	case score >= b.StrongBuy:
		return models.StrongBuy
	case score >= b.Buy:
		return models.Buy
	case score >= b.ModerateBuy:
		return models.ModerateBuy
	case score >= b.Hold:
		return models.Hold
	case score >= b.ModerateSell:
		return models.ModerateSell
	case score >= b.Sell:
		return models.Sell
	default:
		return models.StrongSell
	}
}
