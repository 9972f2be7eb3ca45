package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinScore/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses        *prometheus.CounterVec
	compositeScore  *prometheus.GaugeVec
	fallbacks       *prometheus.CounterVec
	regimeScore     *prometheus.GaugeVec
	regimeConf      prometheus.Gauge
	snapshotsStored *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_analyses_total",
				Help: "Total number of completed analyses by recommendation",
			},
			[]string{"recommendation"},
		),
		compositeScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finscore_composite_score",
				Help: "Last composite score for a symbol",
			},
			[]string{"symbol"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_category_fallbacks_total",
				Help: "Category scores replaced by the neutral fallback",
			},
			[]string{"category"},
		),
		regimeScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finscore_regime_score",
				Help: "Last market regime score, labelled by regime",
			},
			[]string{"regime"},
		),
		regimeConf: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "finscore_regime_confidence",
				Help: "Confidence of the last regime classification",
			},
		),
		snapshotsStored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_snapshots_stored_total",
				Help: "Total number of analysis snapshots persisted",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscore_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records a finished analysis.
func (r *Recorder) RecordAnalysis(symbol string, rec models.Recommendation, composite float64) {
	r.analyses.WithLabelValues(string(rec)).Inc()
	r.compositeScore.WithLabelValues(symbol).Set(composite)
}

// RecordFallback records a category that fell back to the neutral score.
func (r *Recorder) RecordFallback(category models.CategoryID) {
	r.fallbacks.WithLabelValues(string(category)).Inc()
}

// RecordRegime records the latest classification. Only the current regime keeps a score.
func (r *Recorder) RecordRegime(regime models.Regime, score, confidence float64) {
	r.regimeScore.Reset()
	r.regimeScore.WithLabelValues(string(regime)).Set(score)
	r.regimeConf.Set(confidence)
}

// RecordSnapshotStored records n snapshots written to a backend.
func (r *Recorder) RecordSnapshotStored(backend string, n int) {
	if n <= 0 {
		return
	}
	r.snapshotsStored.WithLabelValues(backend).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
