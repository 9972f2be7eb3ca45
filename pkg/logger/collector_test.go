package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, batch)
	return nil
}

func (p *capturePublisher) snapshot() ([]string, [][]AggregatedLogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...), append([][]AggregatedLogEntry(nil), p.batches...)
}

func TestLogCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "finscore.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"symbol": "AAPL"}
	c.AddLog("error", "store failed", fields, "x.go:1")
	c.AddLog("error", "store failed", fields, "x.go:1")
	c.AddLog("error", "other", nil, "x.go:2")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	topics, batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"finscore.logs"}, topics)
	require.Len(t, batches[0], 2)

	counts := map[string]int{}
	for _, e := range batches[0] {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 2, counts["store failed"])
	assert.Equal(t, 1, counts["other"])
}

func TestLogCollector_ThresholdTriggersFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "logs",
		Publisher:      pub,
	})

	c.AddLog("error", "a", nil, "")
	c.AddLog("error", "b", nil, "")
	assert.Equal(t, 0, c.Pending())

	c.Close()
	_, batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}

func TestLogger_CollectsErrorsOnly(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	l.Info("ignored")
	l.Warn("ignored too")
	l.Error("kept", String("symbol", "MSFT"))
	l.RemoveCollector()

	_, batches := pub.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "kept", batches[0][0].Message)
	assert.Equal(t, "MSFT", batches[0][0].Fields["symbol"])
}
