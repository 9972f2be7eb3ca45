package compare

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"FinScore/internal/domain/models"
	"FinScore/pkg/util"
)

// ErrTooFewSubjects is returned when fewer than two analyses are available to rank.
var ErrTooFewSubjects = errors.New("at least two analyzed symbols are required")

const (
	RankOverall      = "overall"
	RankValue        = "value"
	RankMomentum     = "momentum"
	RankSafety       = "safety"
	RankFundamentals = "fundamentals"
)

type ranked struct {
	symbol string
	value  float64
}

// Compare ranks analyses side by side and picks a buy recommendation.
func Compare(analyses []models.Analysis) (models.Comparison, error) {
	if len(analyses) < 2 {
		return models.Comparison{}, ErrTooFewSubjects
	}

	entries := make([]models.CompareEntry, len(analyses))
	bySymbol := make(map[string]models.Analysis, len(analyses))
	composites := make([]float64, len(analyses))
	for i, a := range analyses {
		entries[i] = entry(a)
		bySymbol[a.Symbol] = a
		composites[i] = a.Composite.Score
	}

	rankings := map[string][]string{
		RankOverall:      rank(entries, func(e models.CompareEntry) (float64, bool) { return e.Composite, true }),
		RankValue:        rank(entries, func(e models.CompareEntry) (float64, bool) { return deref(e.Value) }),
		RankMomentum:     rank(entries, func(e models.CompareEntry) (float64, bool) { return momentum(e), true }),
		RankSafety:       rank(entries, func(e models.CompareEntry) (float64, bool) { return e.Safety, true }),
		RankFundamentals: rank(entries, func(e models.CompareEntry) (float64, bool) { return e.Fundamentals, true }),
	}

	return models.Comparison{
		Entries:        entries,
		Rankings:       rankings,
		Recommendation: recommend(bySymbol, entries, rankings),
		Dispersion:     util.Round2(stat.StdDev(composites, nil)),
	}, nil
}

func entry(a models.Analysis) models.CompareEntry {
	e := models.CompareEntry{
		Symbol:         a.Symbol,
		Composite:      a.Composite.Score,
		Recommendation: a.Composite.Recommendation,
		Momentum:       a.Metrics.Technical.PriceChange1M,
	}
	if pe := a.Metrics.Fundamental.PERatio; util.Finite(pe) && *pe > 0 {
		v := 100 / *pe
		e.Value = &v
	}
	for _, c := range a.Categories {
		switch c.Category {
		case models.CategoryRisk:
			e.Safety = c.Score
		case models.CategoryFundamental:
			e.Fundamentals = c.Score
		}
	}
	return e
}

// rank orders symbols by key, best first. Ties keep input order.
func rank(entries []models.CompareEntry, key func(models.CompareEntry) (float64, bool)) []string {
	var rs []ranked
	for _, e := range entries {
		if v, ok := key(e); ok {
			rs = append(rs, ranked{symbol: e.Symbol, value: v})
		}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].value > rs[j].value })

	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.symbol
	}
	return out
}

func recommend(bySymbol map[string]models.Analysis, entries []models.CompareEntry, rankings map[string][]string) models.CompareRecommendation {
	rec := models.CompareRecommendation{
		BuyNow:       first(rankings[RankOverall]),
		BestValue:    first(rankings[RankValue]),
		BestMomentum: first(rankings[RankMomentum]),
		Safest:       first(rankings[RankSafety]),
	}

	var top models.CompareEntry
	for _, e := range entries {
		if e.Symbol == rec.BuyNow {
			top = e
			break
		}
	}

	rec.Rationale = append(rec.Rationale, fmt.Sprintf("%s ranks #1 overall with composite score %.2f (%s).",
		top.Symbol, top.Composite, top.Recommendation))
	if rec.BuyNow == rec.BestValue {
		rec.Rationale = append(rec.Rationale, "Also the best value (lowest P/E ratio).")
	}
	if rec.BuyNow == rec.BestMomentum {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Strongest momentum (%+.1f%% this month).", momentum(top)*100))
	}
	if rec.BuyNow == rec.Safest {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Also the safest option (risk score %.2f).", top.Safety))
	}
	if p := bySymbol[rec.BuyNow].Pattern; p != nil && p.Signal != "" {
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Pattern signal: %s.", p.Signal))
	}
	return rec
}

func momentum(e models.CompareEntry) float64 {
	if v, ok := deref(e.Momentum); ok {
		return v
	}
	return 0
}

func deref(p *float64) (float64, bool) {
	if !util.Finite(p) {
		return 0, false
	}
	return *p, true
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
