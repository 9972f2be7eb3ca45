package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	"FinScore/pkg/config"
)

func TestMarketInputsFromBars(t *testing.T) {
	bars := &fakeBars{bars: map[string][]models.Bar{
		"SPY": linearBars("SPY", 260, 300, 1),
		"VIX": linearBars("VIX", 5, 14, 0),
		"XLK": linearBars("XLK", 30, 100, 2),
		"XLU": linearBars("XLU", 30, 100, -1),
		"XLE": linearBars("XLE", 30, 100, 0.5),
	}}
	sectors := []config.SectorSymbol{
		{Symbol: "XLU", Name: "Utilities"},
		{Symbol: "XLK", Name: "Technology"},
		{Symbol: "XLE", Name: "Energy"},
		{Symbol: "XLF", Name: "Financials"},
	}
	b := NewMarketInputsBuilder(bars, "SPY", "VIX", sectors, 260, nil)

	in, err := b.MarketInputs(context.Background())
	require.NoError(t, err)

	require.NotNil(t, in.IndexPrice)
	assert.Equal(t, 559.0, *in.IndexPrice)
	require.NotNil(t, in.IndexMA50)
	assert.InDelta(t, 534.5, *in.IndexMA50, 1e-9)
	require.NotNil(t, in.IndexMA200)
	assert.InDelta(t, 459.5, *in.IndexMA200, 1e-9)
	require.NotNil(t, in.Momentum1M)
	assert.InDelta(t, 20.0/539.0*100, *in.Momentum1M, 1e-9)
	require.NotNil(t, in.VIX)
	assert.Equal(t, 14.0, *in.VIX)

	require.Len(t, in.Sectors, 3)
	assert.Equal(t, "Technology", in.Sectors[0].Name)
	assert.Equal(t, "Energy", in.Sectors[1].Name)
	assert.Equal(t, "Utilities", in.Sectors[2].Name)
	assert.Greater(t, in.Sectors[0].Performance, 0.0)
	assert.Less(t, in.Sectors[2].Performance, 0.0)
}

func TestMarketInputsRequiresIndex(t *testing.T) {
	b := NewMarketInputsBuilder(&fakeBars{}, "SPY", "", nil, 260, nil)
	_, err := b.MarketInputs(context.Background())
	assert.Error(t, err)

	b = NewMarketInputsBuilder(&fakeBars{err: errors.New("down")}, "SPY", "", nil, 260, nil)
	_, err = b.MarketInputs(context.Background())
	assert.Error(t, err)
}

type countingRefresher struct{ n atomic.Int32 }

func (c *countingRefresher) Refresh(context.Context) (*models.RegimeClassification, error) {
	c.n.Add(1)
	return &models.RegimeClassification{Regime: models.Transition}, nil
}

func TestRegimeRefresherLoop(t *testing.T) {
	c := &countingRefresher{}
	r := NewRegimeRefresher(c, 10*time.Millisecond, nil)
	r.Start(context.Background())

	assert.Eventually(t, func() bool { return c.n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()

	n := c.n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, c.n.Load())
}
