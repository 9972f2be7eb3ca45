package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

// Engine runs every category scorer and the composite aggregator.
type Engine struct {
	scorers    []Scorer
	aggregator *Aggregator
}

func NewEngine(cfg config.Scoring) *Engine {
	return &Engine{
		scorers:    Scorers(cfg),
		aggregator: NewAggregator(cfg),
	}
}

// Score evaluates all categories. regime may be nil.
func (e *Engine) Score(m *models.RawMetrics, regime *models.RegimeClassification) models.ScoreCard {
	in := Input{Metrics: m, Regime: regime}
	card := models.ScoreCard{Categories: make([]models.CategoryScore, 0, len(e.scorers))}

	for _, s := range e.scorers {
		card.Categories = append(card.Categories, s.Score(in))
	}
	card.Composite = e.aggregator.Aggregate(card.ScoreMap())
	return card
}

// ScoreCategory runs a single scorer.
func (e *Engine) ScoreCategory(cat models.CategoryID, m *models.RawMetrics, regime *models.RegimeClassification) (models.CategoryScore, bool) {
	for _, s := range e.scorers {
		if s.Category() == cat {
			return s.Score(Input{Metrics: m, Regime: regime}), true
		}
	}
	return models.CategoryScore{}, false
}

func (e *Engine) Aggregator() *Aggregator { return e.aggregator }
