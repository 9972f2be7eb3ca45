package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	pkgkafka "FinScore/pkg/kafka"
	"FinScore/pkg/logger"
)

// AnalysisRequestHandler consumes metrics bundles from Kafka, analyzes them and
// publishes the result.
type AnalysisRequestHandler struct {
	topic       string
	resultTopic string
	analyzer    Analyzer
	pub         domrepo.Publisher
	metrics     domrepo.Metrics
	logger      *logger.Logger
}

// Result statuses.
const (
	ResultOK               = "ok"
	ResultInsufficientData = "insufficient_data"
)

// AnalysisResult is the message written to the result topic.
type AnalysisResult struct {
	Symbol   string           `json:"symbol"`
	Status   string           `json:"status"`
	Analysis *models.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
	TraceID  string           `json:"trace_id,omitempty"`
}

func NewAnalysisRequestHandler(
	topic, resultTopic string,
	analyzer Analyzer,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *AnalysisRequestHandler {
	return &AnalysisRequestHandler{
		topic:       topic,
		resultTopic: resultTopic,
		analyzer:    analyzer,
		pub:         pub,
		metrics:     metrics,
		logger:      l,
	}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// Handle returns an error only for failures worth retrying. Malformed
// requests are dropped; insufficient data is answered on the result topic.
func (h *AnalysisRequestHandler) Handle(ctx context.Context, b []byte) error {
	start := time.Now()

	var req models.AnalyzeRequest
	if err := json.Unmarshal(b, &req); err != nil || normalizeSymbol(req.Symbol) == "" {
		if err == nil {
			err = errors.New("symbol is required")
		}
		h.metrics.RecordError("consumer_unmarshal")
		if h.logger != nil {
			h.logger.Warn("drop malformed analysis request", logger.String("trace_id", pkgkafka.TraceID(ctx)), logger.Error(err))
		}
		return nil
	}

	res := AnalysisResult{Symbol: normalizeSymbol(req.Symbol), TraceID: pkgkafka.TraceID(ctx)}
	a, err := h.analyzer.Analyze(ctx, req)
	switch {
	case err == nil:
		res.Status = ResultOK
		res.Analysis = a
	case errors.Is(err, ErrMissingCriticalData):
		res.Status = ResultInsufficientData
		res.Analysis = a
		res.Error = err.Error()
	default:
		h.metrics.RecordError("consumer_analyze")
		return fmt.Errorf("analyze %s: %w", res.Symbol, err)
	}

	if h.pub != nil && h.resultTopic != "" {
		if err := h.pub.PublishMessage(ctx, h.resultTopic, res); err != nil {
			h.metrics.RecordError("consumer_publish")
			return fmt.Errorf("publish result: %w", err)
		}
	}
	h.metrics.RecordLatency("consumer_analyze", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)
