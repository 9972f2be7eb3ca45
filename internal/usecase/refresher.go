package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FinScore/internal/domain/models"
	drepo "FinScore/internal/domain/repository"
	"FinScore/internal/services/indicators"
	"FinScore/pkg/config"
	"FinScore/pkg/logger"
)

const (
	sectorWindow   = 20
	momentumWindow = 20
)

// MarketInputsBuilder reads index, volatility and sector ETF bars from the
// bar store and turns them into classifier inputs.
type MarketInputsBuilder struct {
	bars       drepo.BarStore
	index      string
	volatility string
	sectors    []config.SectorSymbol
	lookback   int
	logger     *logger.Logger
}

func NewMarketInputsBuilder(bars drepo.BarStore, index, volatility string, sectors []config.SectorSymbol, lookback int, l *logger.Logger) *MarketInputsBuilder {
	if lookback < 200 {
		lookback = 260
	}
	return &MarketInputsBuilder{
		bars:       bars,
		index:      index,
		volatility: volatility,
		sectors:    sectors,
		lookback:   lookback,
		logger:     l,
	}
}

// MarketInputs fails only when the index has no bars. Missing volatility or
// sector data leaves the corresponding inputs empty.
func (b *MarketInputsBuilder) MarketInputs(ctx context.Context) (models.MarketInputs, error) {
	bars, err := b.bars.GetLatestNBars(ctx, b.index, b.lookback, drepo.TF1d)
	if err != nil {
		return models.MarketInputs{}, fmt.Errorf("index bars %s: %w", b.index, err)
	}
	if len(bars) == 0 {
		return models.MarketInputs{}, fmt.Errorf("no bars for index %s", b.index)
	}

	closes := indicators.FromBars(bars).Closes
	last := closes[len(closes)-1]
	in := models.MarketInputs{
		IndexPrice: &last,
		IndexMA50:  indicators.SMA(closes, 50, 0),
		IndexMA200: indicators.SMA(closes, 200, 0),
		Momentum1M: indicators.MomentumPct(closes, momentumWindow),
		AsOf:       bars[len(bars)-1].Date,
	}

	if b.volatility != "" {
		vb, err := b.bars.GetLatestNBars(ctx, b.volatility, 1, drepo.TF1d)
		switch {
		case err != nil:
			b.warn("volatility bars unavailable", b.volatility, err)
		case len(vb) > 0:
			vix := vb[len(vb)-1].Close
			in.VIX = &vix
		}
	}

	in.Sectors = b.sectorPerformance(ctx)
	return in, nil
}

// sectorPerformance returns sectors ranked best to worst by one-month return.
func (b *MarketInputsBuilder) sectorPerformance(ctx context.Context) []models.SectorPerformance {
	out := make([]models.SectorPerformance, 0, len(b.sectors))
	for _, s := range b.sectors {
		bars, err := b.bars.GetLatestNBars(ctx, s.Symbol, sectorWindow+1, drepo.TF1d)
		if err != nil {
			b.warn("sector bars unavailable", s.Symbol, err)
			continue
		}
		perf := indicators.MomentumPct(indicators.FromBars(bars).Closes, sectorWindow)
		if perf == nil {
			continue
		}
		out = append(out, models.SectorPerformance{Name: s.Name, Symbol: s.Symbol, Performance: *perf})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Performance > out[j].Performance })
	return out
}

func (b *MarketInputsBuilder) warn(msg, symbol string, err error) {
	if b.logger != nil {
		b.logger.Warn(msg, logger.String("symbol", symbol), logger.Error(err))
	}
}

// Refresher is the subset of RegimeService the refresh loop drives.
type Refresher interface {
	Refresh(ctx context.Context) (*models.RegimeClassification, error)
}

// RegimeRefresher reclassifies the market on a fixed interval.
type RegimeRefresher struct {
	svc      Refresher
	interval time.Duration
	logger   *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewRegimeRefresher(svc Refresher, interval time.Duration, l *logger.Logger) *RegimeRefresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RegimeRefresher{svc: svc, interval: interval, logger: l, stopCh: make(chan struct{})}
}

// Start refreshes once immediately and then on every tick until Stop or ctx ends.
func (r *RegimeRefresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.refresh(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()
}

func (r *RegimeRefresher) Stop() {
	r.once.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *RegimeRefresher) refresh(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()
	if _, err := r.svc.Refresh(rctx); err != nil && r.logger != nil {
		r.logger.Error("regime refresh failed", logger.Error(err))
	}
}
