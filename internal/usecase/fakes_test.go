package usecase

import (
	"context"
	"sync"
	"time"

	"FinScore/internal/domain/models"
	drepo "FinScore/internal/domain/repository"
)

type fakeMetrics struct {
	mu        sync.Mutex
	analyses  int
	fallbacks int
	regimes   []models.Regime
	stored    int
	errors    []string
}

func (m *fakeMetrics) RecordAnalysis(string, models.Recommendation, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses++
}

func (m *fakeMetrics) RecordFallback(models.CategoryID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *fakeMetrics) RecordRegime(r models.Regime, _, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regimes = append(m.regimes, r)
}

func (m *fakeMetrics) RecordSnapshotStored(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored += n
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) hasError(kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == kind {
			return true
		}
	}
	return false
}

type fakeStore struct {
	mu      sync.Mutex
	history map[string][]*models.AnalysisSnapshot // newest first
	saved   []*models.AnalysisSnapshot
	saveErr error
	readErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{history: map[string][]*models.AnalysisSnapshot{}}
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Save(ctx context.Context, snap *models.AnalysisSnapshot) error {
	return s.SaveBatch(ctx, []*models.AnalysisSnapshot{snap})
}

func (s *fakeStore) SaveBatch(_ context.Context, snaps []*models.AnalysisSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snaps...)
	return nil
}

func (s *fakeStore) Latest(_ context.Context, symbol string) (*models.AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	h := s.history[symbol]
	if len(h) == 0 {
		return nil, drepo.ErrSnapshotNotFound
	}
	return h[0], nil
}

func (s *fakeStore) List(_ context.Context, symbol string, since time.Time, limit int) ([]*models.AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var h []*models.AnalysisSnapshot
	for _, snap := range s.history[symbol] {
		if !snap.Timestamp.Before(since) {
			h = append(h, snap)
		}
	}
	if len(h) > limit {
		h = h[:limit]
	}
	return h, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	mu       sync.Mutex
	snaps    int
	messages map[string][]interface{}
	err      error
}

func (p *fakePublisher) PublishSnapshot(ctx context.Context, s *models.AnalysisSnapshot) error {
	return p.PublishSnapshots(ctx, []*models.AnalysisSnapshot{s})
}

func (p *fakePublisher) PublishSnapshots(_ context.Context, snaps []*models.AnalysisSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.snaps += len(snaps)
	return nil
}

func (p *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = map[string][]interface{}{}
	}
	p.messages[topic] = append(p.messages[topic], payload)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSubmitter struct {
	mu    sync.Mutex
	snaps []*models.AnalysisSnapshot
}

func (f *fakeSubmitter) Submit(s *models.AnalysisSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, s)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	deltas  []string
	regimes []models.Regime
}

func (n *fakeNotifier) NotifyDelta(_ context.Context, symbol string, _ *models.Delta) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deltas = append(n.deltas, symbol)
	return nil
}

func (n *fakeNotifier) NotifyRegimeChange(_ context.Context, _, cur *models.RegimeClassification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.regimes = append(n.regimes, cur.Regime)
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *fakeBroadcaster) Broadcast(event string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

type fakeRegime struct {
	rc  *models.RegimeClassification
	err error
}

func (f fakeRegime) Current(context.Context) (*models.RegimeClassification, error) {
	return f.rc, f.err
}

type fakeBars struct {
	bars map[string][]models.Bar
	err  error
}

func (f *fakeBars) GetBars(_ context.Context, symbol string, from, to time.Time, _ drepo.Timeframe) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Bar
	for _, b := range f.bars[symbol] {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBars) GetLatestNBars(_ context.Context, symbol string, n int, _ drepo.Timeframe) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	b := f.bars[symbol]
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return b, nil
}

// linearBars returns n ascending daily bars starting at start and moving by step per bar.
func linearBars(symbol string, n int, start, step float64) []models.Bar {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		c := start + float64(i)*step
		out[i] = models.Bar{
			Symbol: symbol,
			Date:   t0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}
	return out
}

func f64(v float64) *float64 { return &v }

func minimalMetrics(price, volume float64) models.RawMetrics {
	return models.RawMetrics{Technical: models.TechnicalMetrics{CurrentPrice: f64(price), Volume: f64(volume)}}
}
