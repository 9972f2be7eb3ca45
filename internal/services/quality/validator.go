package quality

import (
	"math"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"

	ConfidenceHigh       = "High"
	ConfidenceMediumHigh = "Medium-High"
	ConfidenceMedium     = "Medium"
	ConfidenceLow        = "Low"
)

// Validator grades how complete a metrics bundle is and gates analyses
// on the critical fields.
type Validator struct {
	cfg config.QualityTuning
}

func NewValidator(cfg config.Scoring) *Validator {
	return &Validator{cfg: cfg.Quality}
}

// Validate never fails; an unusable bundle is reported with CanProceed=false.
// Non-finite values count as absent.
func (v *Validator) Validate(m *models.RawMetrics) models.QualityReport {
	if m == nil {
		m = &models.RawMetrics{}
	}
	fields := m.Graded()
	report := models.QualityReport{Total: len(fields)}

	for _, f := range fields {
		if present(f.Value) {
			report.Present++
			continue
		}
		if f.Critical {
			report.MissingCritical = append(report.MissingCritical, f.Name)
		} else {
			report.MissingOptional = append(report.MissingOptional, f.Name)
		}
	}

	if len(report.MissingCritical) > 0 {
		report.Completeness = 0
		report.Grade = GradeD
		report.Confidence = ConfidenceLow
		return report
	}

	report.CanProceed = true
	report.Completeness = math.Round(float64(report.Present)/float64(report.Total)*10000) / 10000
	report.Grade = v.grade(report.Completeness)
	report.Confidence = v.confidence(report.Completeness)
	return report
}

func (v *Validator) grade(c float64) string {
	switch {
	case c >= v.cfg.GradeA:
		return GradeA
	case c >= v.cfg.GradeB:
		return GradeB
	case c >= v.cfg.GradeC:
		return GradeC
	default:
		return GradeD
	}
}

func (v *Validator) confidence(c float64) string {
	switch {
	case c >= v.cfg.ConfidenceHigh:
		return ConfidenceHigh
	case c >= v.cfg.ConfidenceMedHi:
		return ConfidenceMediumHigh
	case c >= v.cfg.ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func present(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}
