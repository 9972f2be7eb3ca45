package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
	pkgkafka "FinScore/pkg/kafka"
)

type errAnalyzer struct{ err error }

func (e errAnalyzer) Analyze(context.Context, models.AnalyzeRequest) (*models.Analysis, error) {
	return nil, e.err
}

func newRequestHandler(a Analyzer, pub *fakePublisher) (*AnalysisRequestHandler, *fakeMetrics) {
	m := &fakeMetrics{}
	return NewAnalysisRequestHandler("analysis.requests", "analysis.results", a, pub, m, nil), m
}

func TestRequestHandlerPublishesResult(t *testing.T) {
	pub := &fakePublisher{}
	h, _ := newRequestHandler(NewAnalysisService(config.DefaultScoring(), &fakeMetrics{}), pub)
	assert.Equal(t, "analysis.requests", h.Topic())

	body, err := json.Marshal(models.AnalyzeRequest{Symbol: "aapl", Metrics: minimalMetrics(180, 1e6)})
	require.NoError(t, err)

	ctx := pkgkafka.WithTraceID(context.Background(), "trace-1")
	require.NoError(t, h.Handle(ctx, body))

	require.Len(t, pub.messages["analysis.results"], 1)
	res := pub.messages["analysis.results"][0].(AnalysisResult)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, "trace-1", res.TraceID)
	assert.Equal(t, ResultOK, res.Status)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Analysis)
	assert.Equal(t, 3.0, res.Analysis.Composite.Score)
}

func TestRequestHandlerAnswersInsufficientData(t *testing.T) {
	pub := &fakePublisher{}
	h, _ := newRequestHandler(NewAnalysisService(config.DefaultScoring(), &fakeMetrics{}), pub)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL","metrics":{"technical":{"current_price":10}}}`)))

	require.Len(t, pub.messages["analysis.results"], 1)
	res := pub.messages["analysis.results"][0].(AnalysisResult)
	assert.Equal(t, ResultInsufficientData, res.Status)
	assert.Contains(t, res.Error, "missing critical data")
	require.NotNil(t, res.Analysis)
	assert.False(t, res.Analysis.Quality.CanProceed)
}

func TestRequestHandlerDropsMalformed(t *testing.T) {
	pub := &fakePublisher{}
	h, m := newRequestHandler(errAnalyzer{}, pub)

	assert.NoError(t, h.Handle(context.Background(), []byte(`{not json`)))
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"  "}`)))
	assert.Empty(t, pub.messages)
	assert.True(t, m.hasError("consumer_unmarshal"))
}

func TestRequestHandlerRetriesOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	h, _ := newRequestHandler(errAnalyzer{err: errors.New("store down")}, pub)

	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")

	pub.err = errors.New("broker down")
	h2, _ := newRequestHandler(NewAnalysisService(config.DefaultScoring(), &fakeMetrics{}), pub)
	body, _ := json.Marshal(models.AnalyzeRequest{Symbol: "AAPL", Metrics: minimalMetrics(1, 1)})
	assert.Error(t, h2.Handle(context.Background(), body))
}
