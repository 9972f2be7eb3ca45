package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	mid "FinScore/internal/middleware"
	"FinScore/pkg/config"
	pkgmetrics "FinScore/pkg/metrics"
)

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (s *countingSink) RecordBatch(_ context.Context, snaps []*models.AnalysisSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n += len(snaps)
	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func TestAppShutdownDrainsPipeline(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeout = 2 * time.Second

	sink := &countingSink{}
	pipe := mid.NewSnapshotPipeline(sink, pkgmetrics.NewWithRegistry(prometheus.NewRegistry()),
		mid.WithFlushInterval(time.Hour),
		mid.WithBatchSize(50),
	)

	var closed []string
	app := New(cfg, Components{
		Pipeline: pipe,
		Closers: []Closer{
			{Name: "cache", Close: func() error { closed = append(closed, "cache"); return nil }},
			{Name: "clickhouse", Close: func() error { closed = append(closed, "clickhouse"); return errors.New("already closed") }},
			{Name: "postgres", Close: func() error { closed = append(closed, "postgres"); return nil }},
		},
	})

	require.NoError(t, app.Start(context.Background()))
	for i := 0; i < 3; i++ {
		require.NoError(t, pipe.Submit(&models.AnalysisSnapshot{Symbol: "AAPL", Composite: 3.2, Timestamp: time.Now()}))
	}

	err := app.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")
	assert.Equal(t, 3, sink.count())
	assert.Equal(t, []string{"cache", "clickhouse", "postgres"}, closed)
}

func TestAppWithoutComponents(t *testing.T) {
	app := New(&config.Config{}, Components{})
	require.NoError(t, app.Start(context.Background()))
	assert.NoError(t, app.Shutdown(context.Background()))
}
