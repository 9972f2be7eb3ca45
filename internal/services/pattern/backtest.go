package pattern

import (
	"math"
	"slices"

	"FinScore/internal/domain/models"
	"FinScore/internal/services/indicators"
	"FinScore/pkg/config"
	"FinScore/pkg/util"
)

const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
	DirectionNeutral = "neutral"
	DirectionUnknown = "unknown"
)

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// minHistory is the number of bars up to the detection point needed for a
// meaningful pattern read.
const minHistory = 30

var highConviction = []string{GoldenCross, DeathCross, BullishVolumeSurge, BearishVolumeDump}

// Backtester replays pattern detection at a past bar and checks the call
// against the bars that followed.
type Backtester struct {
	cfg      config.PatternTuning
	detector *Detector
}

func NewBacktester(cfg config.Scoring) *Backtester {
	return &Backtester{cfg: cfg.Pattern, detector: NewDetector(cfg)}
}

// Horizon is the number of bars walked forward from the detection point.
func (b *Backtester) Horizon() int { return b.cfg.BacktestHorizon }

// Run detects the pattern Horizon bars before the end of bars (ascending)
// and evaluates it over the remaining bars.
func (b *Backtester) Run(bars []models.Bar) models.BacktestResult {
	ref := len(bars) - 1 - b.cfg.BacktestHorizon
	if ref+1 < minHistory {
		return b.unevaluated()
	}
	m := indicators.Derive(models.RawMetrics{}, indicators.FromBars(bars[:ref+1]))
	p := b.detector.Detect(&m.Technical)
	return b.Evaluate(p, bars[ref:])
}

// Evaluate checks p, detected at path[0], against the closes that follow.
func (b *Backtester) Evaluate(p models.PatternResult, path []models.Bar) models.BacktestResult {
	h := b.cfg.BacktestHorizon
	if len(path) < h+1 || !(path[0].Close > 0) {
		return b.unevaluated()
	}
	path = path[:h+1]
	ref := path[0].Close

	dir := Direction(p.Score)
	expected := b.ExpectedMove(p)
	threshold := math.Abs(expected) * b.cfg.BreakoutFraction

	day, actual := 0, 0.0
	for i := 1; i <= h; i++ {
		move, ok := moveFrom(ref, path[i].Close)
		if !ok {
			continue
		}
		if (dir == DirectionBullish && move >= threshold) ||
			(dir == DirectionBearish && move <= -threshold) ||
			(dir == DirectionNeutral && math.Abs(move) <= b.cfg.NeutralBand) {
			day, actual = i, move
			break
		}
	}
	if day == 0 {
		actual, _ = moveFrom(ref, path[h].Close)
	}

	correct := b.correct(dir, actual)
	acc := math.Round(accuracy(correct, actual, expected)*10) / 10

	res := models.BacktestResult{
		Evaluated:       true,
		Direction:       dir,
		Score:           p.Score,
		Detected:        p.Detected,
		ExpectedMovePct: util.Round2(expected * 100),
		ActualMovePct:   util.Round2(actual * 100),
		BrokeOut:        day > 0,
		DaysToBreakout:  h,
		Correct:         correct,
		Accuracy:        acc,
		Confidence:      confidence(acc, day, h),
		Horizon:         h,
		ReferenceDate:   path[0].Date,
	}
	if day > 0 {
		res.DaysToBreakout = day
	}
	return res
}

// Direction reads a pattern score as a directional call.
func Direction(score float64) string {
	switch {
	case score >= 3.5:
		return DirectionBullish
	case score <= 2.5:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// ExpectedMove is the fractional move the pattern implies, signed by
// direction. Cross and volume patterns carry a conviction boost.
func (b *Backtester) ExpectedMove(p models.PatternResult) float64 {
	var move float64
	switch s := p.Score; {
	case s >= 4.5:
		move = 0.10
	case s >= 4.0:
		move = 0.07
	case s >= 3.5:
		move = 0.05
	case s <= 2.0:
		move = -0.10
	case s <= 2.5:
		move = -0.07
	default:
		move = 0.02
	}
	for _, name := range highConviction {
		if slices.Contains(p.Detected, name) {
			return move * b.cfg.ConvictionBoost
		}
	}
	return move
}

func (b *Backtester) correct(dir string, actual float64) bool {
	switch dir {
	case DirectionBullish:
		return actual > 0
	case DirectionBearish:
		return actual < 0
	default:
		return math.Abs(actual) <= b.cfg.NeutralBand
	}
}

func (b *Backtester) unevaluated() models.BacktestResult {
	return models.BacktestResult{
		Direction:  DirectionUnknown,
		Confidence: ConfidenceLow,
		Horizon:    b.cfg.BacktestHorizon,
	}
}

// accuracy is 0..25 for a wrong call and 50..100 for a right one, scaled by
// how close the actual move came to the expected one.
func accuracy(correct bool, actual, expected float64) float64 {
	if expected == 0 {
		return 0
	}
	miss := math.Abs(actual-expected) / math.Abs(expected)
	if !correct {
		return math.Max(0, 25-25*miss)
	}
	return 50 + 50*(1-math.Min(1, miss))
}

func confidence(acc float64, day, horizon int) string {
	quick := func(frac float64) bool { return day > 0 && float64(day) <= frac*float64(horizon) }
	switch {
	case acc >= 80 && quick(0.3):
		return ConfidenceHigh
	case acc >= 60 || quick(0.5):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func moveFrom(ref, px float64) (float64, bool) {
	if !(px > 0) || math.IsInf(px, 0) {
		return 0, false
	}
	return (px - ref) / ref, true
}
