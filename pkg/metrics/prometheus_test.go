package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinScore/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordAnalysis("AAPL", models.Buy, 3.9)
	r.RecordAnalysis("MSFT", models.Buy, 3.8)
	r.RecordFallback(models.CategoryMacro)
	r.RecordSnapshotStored("clickhouse", 3)
	r.RecordSnapshotStored("clickhouse", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyses.WithLabelValues(string(models.Buy))))
	assert.Equal(t, 3.9, testutil.ToFloat64(r.compositeScore.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues(string(models.CategoryMacro))))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.snapshotsStored.WithLabelValues("clickhouse")))
}

func TestRecorderRegimeKeepsOnlyCurrent(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordRegime(models.RiskOn, 0.45, 0.8)
	r.RecordRegime(models.RiskOff, -0.4, 0.7)

	assert.Equal(t, 1, testutil.CollectAndCount(r.regimeScore))
	assert.Equal(t, -0.4, testutil.ToFloat64(r.regimeScore.WithLabelValues(string(models.RiskOff))))
	assert.Equal(t, 0.7, testutil.ToFloat64(r.regimeConf))
}
