package scoring

import (
	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

const (
	MinScore     = 1.0
	MaxScore     = 5.0
	NeutralScore = 3.0
)

// Input is everything a category scorer may look at.
type Input struct {
	Metrics *models.RawMetrics
	Regime  *models.RegimeClassification
}

// Scorer evaluates one category. Implementations are pure and safe for concurrent use.
type Scorer interface {
	Category() models.CategoryID
	Score(in Input) models.CategoryScore
}

// Scorers returns one scorer per category, in evaluation order.
func Scorers(cfg config.Scoring) []Scorer {
	return []Scorer{
		TechnicalScorer{t: cfg.Thresholds},
		FundamentalScorer{t: cfg.Thresholds},
		MacroScorer{t: cfg.Thresholds},
		RiskScorer{t: cfg.Thresholds},
		SentimentScorer{t: cfg.Thresholds},
		AlignmentScorer{a: cfg.Alignment},
	}
}

// tally accumulates points for rules whose inputs are present.
type tally struct {
	points    float64
	basis     float64
	available []string
	missing   []string
}

// need registers a rule worth maxPoints. It returns false, and records the
// rule as missing, when any input is absent or not finite.
func (t *tally) need(name string, maxPoints float64, inputs ...*float64) bool {
	for _, in := range inputs {
		if !util.Finite(in) {
			t.missing = append(t.missing, name)
			return false
		}
	}
	t.available = append(t.available, name)
	t.basis += maxPoints
	return true
}

func (t *tally) award(p float64) {
	t.points += p
}

// result maps points onto [1,5]; an empty basis is neutral.
func (t *tally) result(cat models.CategoryID) models.CategoryScore {
	raw := NeutralScore
	if t.basis > 0 {
		raw = MinScore + t.points/t.basis*(MaxScore-MinScore)
	}
	return finalize(cat, util.Round2(raw), t.available, t.missing)
}

// finalize substitutes the neutral score for anything that is not a valid score.
func finalize(cat models.CategoryID, score float64, available, missing []string) models.CategoryScore {
	cs := models.CategoryScore{
		Category:  cat,
		Score:     score,
		Available: nonNil(available),
		Missing:   nonNil(missing),
	}
	if !util.IsFinite(score) || score < MinScore || score > MaxScore {
		cs.Score = NeutralScore
		cs.Fallback = true
	}
	return cs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func metrics(in Input) *models.RawMetrics {
	if in.Metrics == nil {
		return &models.RawMetrics{}
	}
	return in.Metrics
}
