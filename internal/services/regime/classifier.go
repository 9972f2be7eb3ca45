package regime

import (
	"fmt"
	"math"
	"sort"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

const (
	SignalVIX      = "VIX"
	SignalMA50     = "Price vs MA50"
	SignalMA200    = "Price vs MA200"
	SignalMomentum = "1M Momentum"
	SignalRotation = "Sector Rotation"
)

// Classifier turns market-wide inputs into a regime classification.
// It holds only immutable tuning and is safe for concurrent use.
type Classifier struct {
	cfg config.RegimeTuning
}

func NewClassifier(cfg config.Scoring) *Classifier {
	return &Classifier{cfg: cfg.Regime}
}

// Classify evaluates every signal whose inputs are present and aggregates them.
func (c *Classifier) Classify(in models.MarketInputs) models.RegimeClassification {
	sectors := rankSectors(in.Sectors)

	out := c.Aggregate(c.Signals(in))
	out.ClassifiedAt = in.AsOf
	if len(sectors) > 0 {
		out.SectorRotation = c.InterpretRotation(sectors)
		out.SectorRanking = make([]string, len(sectors))
		for i, s := range sectors {
			out.SectorRanking[i] = s.Name
		}
	}
	return out
}

// Signals builds the weighted evidence list. Missing inputs omit their signal.
func (c *Classifier) Signals(in models.MarketInputs) []models.MarketSignal {
	var signals []models.MarketSignal

	if util.Finite(in.VIX) {
		signals = append(signals, c.vixSignal(*in.VIX))
	}
	if pct, ok := pctFrom(in.IndexPrice, in.IndexMA50); ok {
		signals = append(signals, ladderSignal(SignalMA50, c.cfg.MA50, pct,
			fmt.Sprintf("index %+.2f%% vs 50-day average", pct)))
	}
	if pct, ok := pctFrom(in.IndexPrice, in.IndexMA200); ok {
		signals = append(signals, ladderSignal(SignalMA200, c.cfg.MA200, pct,
			fmt.Sprintf("index %+.2f%% vs 200-day average", pct)))
	}
	if util.Finite(in.Momentum1M) {
		m := *in.Momentum1M
		signals = append(signals, ladderSignal(SignalMomentum, c.cfg.Momentum, m,
			fmt.Sprintf("index %+.2f%% over one month", m)))
	}
	if sig, ok := c.rotationSignal(rankSectors(in.Sectors)); ok {
		signals = append(signals, sig)
	}
	return signals
}

// Aggregate combines signals into a regime. Score = sum(direction*weight)/sum(weight),
// rounded to 4 decimals before the strict threshold comparison.
func (c *Classifier) Aggregate(signals []models.MarketSignal) models.RegimeClassification {
	out := models.RegimeClassification{
		Signals:   signals,
		Reasoning: make([]string, 0, len(signals)),
	}
	if out.Signals == nil {
		out.Signals = []models.MarketSignal{}
	}

	var weighted, total float64
	for _, s := range signals {
		if s.Weight <= 0 || !util.IsFinite(s.Weight) {
			continue
		}
		weighted += s.Direction.Sign() * s.Weight
		total += s.Weight
		out.Reasoning = append(out.Reasoning, fmt.Sprintf("%s: %s (%s)", s.Label, s.Detail, s.Direction))
	}

	if total == 0 {
		out.Regime = models.Transition
		out.Confidence = c.cfg.NoSignalConfidence
		out.RiskAssessment = models.NeutralRisk
		out.Reasoning = append(out.Reasoning, "insufficient signal data")
		return out
	}

	score := round4(weighted / total)
	out.Score = score
	threshold := c.cfg.Threshold

	switch {
	case score > threshold:
		out.Regime = models.RiskOn
		out.Confidence = math.Min(0.5+math.Abs(score)*0.5, 1)
		out.RiskAssessment = models.NeutralRisk
		if score >= c.cfg.AggressiveThreshold {
			out.RiskAssessment = models.Aggressive
		}
	case score < -threshold:
		out.Regime = models.RiskOff
		out.Confidence = math.Min(0.5+math.Abs(score)*0.5, 1)
		out.RiskAssessment = models.Defensive
	default:
		out.Regime = models.Transition
		out.Confidence = 0.65 - math.Abs(score)/threshold*0.15
		out.RiskAssessment = models.NeutralRisk
	}
	out.Confidence = round4(util.Clamp(out.Confidence, 0, 1))
	return out
}

func (c *Classifier) vixSignal(vix float64) models.MarketSignal {
	tiers := c.cfg.VIX
	t := tiers[len(tiers)-1]
	for _, tier := range tiers {
		if vix < tier.Max {
			t = tier
			break
		}
	}
	return models.MarketSignal{
		Label:     SignalVIX,
		Direction: models.Direction(t.Direction),
		Weight:    t.Weight,
		Detail:    fmt.Sprintf("%.2f (%s volatility)", vix, t.Label),
	}
}

// ladderSignal picks the first matching tier; the last tier is the floor.
func ladderSignal(label string, tiers []config.Tier, v float64, detail string) models.MarketSignal {
	t := tiers[len(tiers)-1]
	for _, tier := range tiers {
		if matches(tier, v) {
			t = tier
			break
		}
	}
	return models.MarketSignal{
		Label:     label,
		Direction: models.Direction(t.Direction),
		Weight:    t.Weight,
		Detail:    fmt.Sprintf("%s, %s", detail, t.Label),
	}
}

func matches(t config.Tier, v float64) bool {
	if math.IsInf(t.Min, -1) {
		return true
	}
	if models.Direction(t.Direction) == models.Bearish {
		return v > t.Min
	}
	return v >= t.Min
}

func pctFrom(price, base *float64) (float64, bool) {
	if !util.Finite(price) || !util.Finite(base) || *base <= 0 {
		return 0, false
	}
	return (*price - *base) / *base * 100, true
}

// rankSectors returns a copy sorted best to worst. Stable, so an already
// ranked list keeps its order on ties.
func rankSectors(in []models.SectorPerformance) []models.SectorPerformance {
	out := make([]models.SectorPerformance, 0, len(in))
	for _, s := range in {
		if s.Name != "" && util.IsFinite(s.Performance) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Performance > out[j].Performance })
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
