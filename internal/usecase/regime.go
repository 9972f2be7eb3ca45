package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinScore/internal/domain/models"
	drepo "FinScore/internal/domain/repository"
	dsvc "FinScore/internal/domain/service"
	"FinScore/internal/services/regime"
	"FinScore/pkg/cache"
	"FinScore/pkg/logger"
)

const (
	regimeCacheKey = "regime:current"
	regimeLockKey  = "regime:refresh"
)

// ErrRegimeUnavailable is returned when no classification is cached and none
// can be built.
var ErrRegimeUnavailable = errors.New("market regime unavailable")

// MarketInputsProvider assembles the market-wide inputs for classification.
type MarketInputsProvider interface {
	MarketInputs(ctx context.Context) (models.MarketInputs, error)
}

// RegimeService classifies the market regime and keeps the latest result in cache.
type RegimeService struct {
	classifier  *regime.Classifier
	cache       cache.Service
	inputs      MarketInputsProvider
	metrics     drepo.Metrics
	notifier    dsvc.Notifier
	broadcaster dsvc.Broadcaster
	ttl         time.Duration
	lockTTL     time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

type RegimeOption func(*RegimeService)

func WithInputsProvider(p MarketInputsProvider) RegimeOption {
	return func(s *RegimeService) { s.inputs = p }
}

func WithRegimeNotifier(n dsvc.Notifier) RegimeOption {
	return func(s *RegimeService) { s.notifier = n }
}

func WithRegimeBroadcaster(b dsvc.Broadcaster) RegimeOption {
	return func(s *RegimeService) { s.broadcaster = b }
}

func WithRegimeTTL(ttl, lockTTL time.Duration) RegimeOption {
	return func(s *RegimeService) {
		if ttl > 0 {
			s.ttl = ttl
		}
		if lockTTL > 0 {
			s.lockTTL = lockTTL
		}
	}
}

func WithRegimeLogger(l *logger.Logger) RegimeOption {
	return func(s *RegimeService) { s.logger = l }
}

func NewRegimeService(classifier *regime.Classifier, c cache.Service, metrics drepo.Metrics, opts ...RegimeOption) *RegimeService {
	s := &RegimeService{
		classifier: classifier,
		cache:      c,
		metrics:    metrics,
		ttl:        30 * time.Minute,
		lockTTL:    time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the cached classification, refreshing it on a miss when an
// inputs provider is configured.
func (s *RegimeService) Current(ctx context.Context) (*models.RegimeClassification, error) {
	rc, err := s.cached(ctx)
	if err == nil {
		return rc, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, err
	}
	if s.inputs == nil {
		return nil, ErrRegimeUnavailable
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds inputs and reclassifies. Concurrent refreshes are
// collapsed by a cache lock; a caller that loses the lock gets the cached value.
func (s *RegimeService) Refresh(ctx context.Context) (*models.RegimeClassification, error) {
	if s.inputs == nil {
		return nil, ErrRegimeUnavailable
	}

	var out *models.RegimeClassification
	acquired, err := cache.WithLock(ctx, s.cache, regimeLockKey, s.lockTTL, func() error {
		in, err := s.inputs.MarketInputs(ctx)
		if err != nil {
			return fmt.Errorf("market inputs: %w", err)
		}
		out, err = s.Classify(ctx, in)
		return err
	})
	if err != nil {
		s.metrics.RecordError("regime_refresh")
		return nil, err
	}
	if !acquired {
		rc, err := s.cached(ctx)
		if err != nil {
			return nil, ErrRegimeUnavailable
		}
		return rc, nil
	}
	return out, nil
}

// Classify runs the classifier on in, caches the result and announces a regime change.
func (s *RegimeService) Classify(ctx context.Context, in models.MarketInputs) (*models.RegimeClassification, error) {
	start := time.Now()
	if in.AsOf.IsZero() {
		in.AsOf = s.now()
	}

	rc := s.classifier.Classify(in)
	rc.ClassifiedAt = s.now().UTC()

	prev, err := s.cached(ctx)
	if err != nil {
		prev = nil
	}

	if err := s.cache.Set(ctx, regimeCacheKey, rc, s.ttl); err != nil {
		s.metrics.RecordError("regime_cache")
		if s.logger != nil {
			s.logger.Warn("cache regime failed", logger.Error(err))
		}
	}

	s.metrics.RecordRegime(rc.Regime, rc.Score, rc.Confidence)
	s.metrics.RecordLatency("regime_classify", time.Since(start).Seconds())

	if s.logger != nil {
		s.logger.Info("market regime classified",
			logger.String("regime", string(rc.Regime)),
			logger.Float64("score", rc.Score),
			logger.Float64("confidence", rc.Confidence),
			logger.Int("signals", len(rc.Signals)),
			logger.Strings("leaders", leaders(rc.SectorRanking)),
			logger.Time("classified_at", rc.ClassifiedAt),
		)
	}

	if prev != nil && prev.Regime != rc.Regime {
		s.announce(ctx, prev, &rc)
	}
	return &rc, nil
}

func (s *RegimeService) announce(ctx context.Context, prev, cur *models.RegimeClassification) {
	if s.logger != nil {
		s.logger.Info("market regime changed",
			logger.String("from", string(prev.Regime)),
			logger.String("to", string(cur.Regime)),
		)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast("regime_change", cur)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRegimeChange(ctx, prev, cur); err != nil {
			s.metrics.RecordError("notify_regime")
			if s.logger != nil {
				s.logger.Warn("notify regime change failed", logger.Error(err))
			}
		}
	}
}

func (s *RegimeService) cached(ctx context.Context) (*models.RegimeClassification, error) {
	rc, err := cache.GetTyped[models.RegimeClassification](ctx, s.cache, regimeCacheKey)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func leaders(ranking []string) []string {
	return ranking[:min(3, len(ranking))]
}
