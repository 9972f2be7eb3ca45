package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"FinScore/internal/domain/models"
	drepo "FinScore/internal/domain/repository"
	dsvc "FinScore/internal/domain/service"
	"FinScore/internal/services/delta"
	"FinScore/internal/services/indicators"
	"FinScore/internal/services/pattern"
	"FinScore/internal/services/quality"
	"FinScore/internal/services/scoring"
	"FinScore/pkg/config"
	"FinScore/pkg/logger"
)

// ErrMissingCriticalData is returned when the validator gate rejects a bundle.
var ErrMissingCriticalData = errors.New("missing critical data")

// ErrNoBarStore is returned by operations that need stored bars when none is configured.
var ErrNoBarStore = errors.New("bar store not configured")

// RegimeSource supplies the current market regime.
type RegimeSource interface {
	Current(ctx context.Context) (*models.RegimeClassification, error)
}

// SnapshotSubmitter accepts snapshots for asynchronous recording.
type SnapshotSubmitter interface {
	Submit(s *models.AnalysisSnapshot) error
}

// AnalysisService runs the full per-symbol pipeline: validation, scoring,
// pattern detection and delta against the last recorded snapshot.
type AnalysisService struct {
	validator   *quality.Validator
	engine      *scoring.Engine
	detector    *pattern.Detector
	backtester  *pattern.Backtester
	deltas      *delta.Engine
	regime      RegimeSource
	store       drepo.SnapshotStore
	bars        drepo.BarStore
	submitter   SnapshotSubmitter
	notifier    dsvc.Notifier
	broadcaster dsvc.Broadcaster
	metrics     drepo.Metrics
	lookback    int
	logger      *logger.Logger
	now         func() time.Time
}

type AnalysisOption func(*AnalysisService)

func WithRegimeSource(r RegimeSource) AnalysisOption {
	return func(s *AnalysisService) { s.regime = r }
}

func WithSnapshotStore(store drepo.SnapshotStore) AnalysisOption {
	return func(s *AnalysisService) { s.store = store }
}

// WithBarStore enables indicator derivation from the last n daily bars.
func WithBarStore(bars drepo.BarStore, n int) AnalysisOption {
	return func(s *AnalysisService) {
		s.bars = bars
		if n > 0 {
			s.lookback = n
		}
	}
}

func WithSubmitter(sub SnapshotSubmitter) AnalysisOption {
	return func(s *AnalysisService) { s.submitter = sub }
}

func WithNotifier(n dsvc.Notifier) AnalysisOption {
	return func(s *AnalysisService) { s.notifier = n }
}

func WithBroadcaster(b dsvc.Broadcaster) AnalysisOption {
	return func(s *AnalysisService) { s.broadcaster = b }
}

func WithAnalysisLogger(l *logger.Logger) AnalysisOption {
	return func(s *AnalysisService) { s.logger = l }
}

func NewAnalysisService(cfg config.Scoring, metrics drepo.Metrics, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		validator: quality.NewValidator(cfg),
		engine:    scoring.NewEngine(cfg),
		detector:   pattern.NewDetector(cfg),
		backtester: pattern.NewBacktester(cfg),
		deltas:    delta.NewEngine(cfg),
		metrics:   metrics,
		lookback:  260,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze scores one symbol. When the quality gate fails the returned Analysis
// carries the quality report and the error wraps ErrMissingCriticalData.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.Analysis, error) {
	start := time.Now()
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	m := req.Metrics
	var bars []models.Bar
	if req.Derive {
		bars = s.loadBars(ctx, symbol)
		m = indicators.Derive(m, indicators.FromBars(bars))
	}

	out := &models.Analysis{Symbol: symbol, Metrics: m, AnalyzedAt: s.now().UTC()}
	out.Quality = s.validator.Validate(&m)
	if !out.Quality.CanProceed {
		s.metrics.RecordError("insufficient_data")
		if s.logger != nil {
			s.logger.Info("analysis rejected",
				logger.String("symbol", symbol),
				logger.Strings("missing", out.Quality.MissingCritical),
			)
		}
		return out, fmt.Errorf("%w: %s", ErrMissingCriticalData, strings.Join(out.Quality.MissingCritical, ", "))
	}

	out.Regime = s.currentRegime(ctx)
	card := s.engine.Score(&m, out.Regime)
	out.Categories = card.Categories
	out.Composite = card.Composite
	s.reportFallbacks(symbol, card)

	p := s.detector.Detect(&m.Technical)
	if len(bars) > 0 {
		p.Backtest = s.backtest(symbol, bars)
	}
	out.Pattern = &p

	snap := &models.AnalysisSnapshot{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Composite:      card.Composite.Score,
		Recommendation: card.Composite.Recommendation,
		Categories:     card.ScoreMap(),
		Price:          value(m.Technical.CurrentPrice),
		Volume:         value(m.Technical.Volume),
		Timestamp:      out.AnalyzedAt,
	}
	if out.Regime != nil {
		snap.Regime = out.Regime.Regime
	}
	out.Snapshot = snap
	out.Delta = s.deltas.Compute(s.previous(ctx, symbol), snap)

	if !req.SkipHistory && s.submitter != nil {
		if err := s.submitter.Submit(snap); err != nil && s.logger != nil {
			s.logger.Warn("snapshot not recorded", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	s.announce(ctx, out)

	s.metrics.RecordAnalysis(symbol, card.Composite.Recommendation, card.Composite.Score)
	s.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	if s.logger != nil {
		s.logger.Debug("analysis complete",
			logger.String("symbol", symbol),
			logger.Float64("composite", card.Composite.Score),
			logger.String("recommendation", string(card.Composite.Recommendation)),
			logger.String("grade", out.Quality.Grade),
			logger.String("delta", string(out.Delta.State)),
			logger.Bool("regime_transition", out.Delta.Delta != nil && out.Delta.Delta.RegimeTransition),
		)
	}
	return out, nil
}

// Score runs the category scorers and the aggregator only. Market alignment
// sees the cached regime when requested and neutral 3.0 otherwise.
func (s *AnalysisService) Score(ctx context.Context, req models.ScoreRequest) models.ScoreCard {
	var rc *models.RegimeClassification
	if req.WithRegime {
		rc = s.currentRegime(ctx)
	}
	card := s.engine.Score(&req.Metrics, rc)
	s.reportFallbacks(normalizeSymbol(req.Symbol), card)
	return card
}

func (s *AnalysisService) Quality(req models.QualityRequest) models.QualityReport {
	return s.validator.Validate(&req.Metrics)
}

// Pattern scores the supplied technicals. With a symbol and stored bars the
// result also carries a backtest of the detector over recent history.
func (s *AnalysisService) Pattern(ctx context.Context, req models.PatternRequest) models.PatternResult {
	p := s.detector.Detect(&req.Metrics.Technical)
	if symbol := normalizeSymbol(req.Symbol); symbol != "" {
		if bars := s.loadBars(ctx, symbol); len(bars) > 0 {
			p.Backtest = s.backtest(symbol, bars)
		}
	}
	return p
}

// Backtest replays pattern detection over the stored bars of symbol.
func (s *AnalysisService) Backtest(ctx context.Context, symbol string) (models.BacktestResult, error) {
	symbol = normalizeSymbol(symbol)
	if s.bars == nil {
		return models.BacktestResult{}, ErrNoBarStore
	}
	bars, err := s.bars.GetLatestNBars(ctx, symbol, s.lookback, drepo.TF1d)
	if err != nil {
		s.metrics.RecordError("bars_fetch")
		return models.BacktestResult{}, fmt.Errorf("load bars: %w", err)
	}
	return *s.backtest(symbol, bars), nil
}

// Delta compares the two most recent recorded snapshots of symbol.
func (s *AnalysisService) Delta(ctx context.Context, symbol string) (models.DeltaResult, error) {
	if s.store == nil {
		return models.DeltaResult{}, drepo.ErrSnapshotNotFound
	}
	snaps, err := s.store.List(ctx, normalizeSymbol(symbol), time.Time{}, 2)
	if err != nil {
		return models.DeltaResult{}, fmt.Errorf("list snapshots: %w", err)
	}
	switch len(snaps) {
	case 0:
		return models.DeltaResult{}, drepo.ErrSnapshotNotFound
	case 1:
		return s.deltas.Compute(nil, snaps[0]), nil
	default:
		return s.deltas.Compute(snaps[1], snaps[0]), nil
	}
}

// Snapshots lists recorded history for symbol, newest first. A zero since
// lists from the beginning.
func (s *AnalysisService) Snapshots(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.AnalysisSnapshot, error) {
	if s.store == nil {
		return []*models.AnalysisSnapshot{}, nil
	}
	return s.store.List(ctx, normalizeSymbol(symbol), since, limit)
}

// loadBars returns the latest daily bars of symbol, or nil when no bar store
// is configured or the read fails.
func (s *AnalysisService) loadBars(ctx context.Context, symbol string) []models.Bar {
	if s.bars == nil {
		return nil
	}
	bars, err := s.bars.GetLatestNBars(ctx, symbol, s.lookback, drepo.TF1d)
	if err != nil {
		s.metrics.RecordError("bars_fetch")
		if s.logger != nil {
			s.logger.Warn("load bars failed", logger.String("symbol", symbol), logger.Error(err))
		}
		return nil
	}
	return bars
}

func (s *AnalysisService) backtest(symbol string, bars []models.Bar) *models.BacktestResult {
	bt := s.backtester.Run(bars)
	if s.logger != nil {
		s.logger.Debug("pattern backtest",
			logger.String("symbol", symbol),
			logger.Bool("evaluated", bt.Evaluated),
			logger.String("direction", bt.Direction),
			logger.Float64("accuracy", bt.Accuracy),
		)
	}
	return &bt
}

func (s *AnalysisService) currentRegime(ctx context.Context) *models.RegimeClassification {
	if s.regime == nil {
		return nil
	}
	rc, err := s.regime.Current(ctx)
	if err != nil {
		if s.logger != nil && !errors.Is(err, ErrRegimeUnavailable) {
			s.logger.Warn("regime lookup failed", logger.Error(err))
		}
		return nil
	}
	return rc
}

// previous returns the latest recorded snapshot, or nil when there is none
// or the store cannot be read.
func (s *AnalysisService) previous(ctx context.Context, symbol string) *models.AnalysisSnapshot {
	if s.store == nil {
		return nil
	}
	prev, err := s.store.Latest(ctx, symbol)
	if err != nil {
		if !errors.Is(err, drepo.ErrSnapshotNotFound) {
			s.metrics.RecordError("history_read")
			if s.logger != nil {
				s.logger.Warn("load previous snapshot failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}
		return nil
	}
	return prev
}

func (s *AnalysisService) reportFallbacks(symbol string, card models.ScoreCard) {
	for _, c := range card.Categories {
		if !c.Fallback {
			continue
		}
		s.metrics.RecordFallback(c.Category)
		if s.logger != nil {
			s.logger.Warn("category score fell back to neutral",
				logger.String("symbol", symbol),
				logger.String("category", string(c.Category)),
			)
		}
	}
}

func (s *AnalysisService) announce(ctx context.Context, a *models.Analysis) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast("analysis", a.Snapshot)
	}
	d := a.Delta.Delta
	if s.notifier == nil || d == nil || d.Significance != models.Major {
		return
	}
	if err := s.notifier.NotifyDelta(ctx, a.Symbol, d); err != nil {
		s.metrics.RecordError("notify_delta")
		if s.logger != nil {
			s.logger.Warn("notify delta failed", logger.String("symbol", a.Symbol), logger.Error(err))
		}
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
