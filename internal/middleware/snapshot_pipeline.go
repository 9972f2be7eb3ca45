package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	"FinScore/pkg/logger"
)

// Sink is the downstream the pipeline flushes batches into.
type Sink interface {
	RecordBatch(ctx context.Context, snaps []*models.AnalysisSnapshot) error
}

// SnapshotPipeline decouples analysis requests from history writes.
// Snapshots are buffered and flushed in batches; failed batches are retried
// with exponential backoff and requeued while the buffer has room.
type SnapshotPipeline struct {
	sink          Sink
	metrics       domrepo.Metrics
	logger        *logger.Logger
	bufSize       int
	batchSize     int
	flushInterval time.Duration
	maxBackoff    time.Duration
	bufCh         chan *models.AnalysisSnapshot
	stopCh        chan struct{}
	doneCh        chan struct{}
	started       bool
	stopped       bool
	mu            sync.Mutex
}

type PipelineOption func(*SnapshotPipeline)

// WithBufferSize sets the number of snapshots held while downstream is busy or unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithBatchSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// WithMaxBackoff caps the wait between failed flushes.
func WithMaxBackoff(d time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if d > 0 {
			p.maxBackoff = d
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *SnapshotPipeline) { p.logger = l }
}

func NewSnapshotPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		sink:          sink,
		metrics:       metrics,
		bufSize:       1000,
		batchSize:     100,
		flushInterval: time.Second,
		maxBackoff:    2 * time.Second,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AnalysisSnapshot, p.bufSize)
	return p
}

// Start launches the background flusher. A pipeline runs at most once; Start
// after Stop is a no-op.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop stops accepting work, flushes what is buffered and waits for the flusher
// or for ctx to expire.
func (p *SnapshotPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	running := p.started
	p.mu.Unlock()
	close(p.stopCh)
	if !running {
		return nil
	}

	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pipeline stop: %w", ctx.Err())
	}
}

// Submit validates s and queues it without blocking.
func (p *SnapshotPipeline) Submit(s *models.AnalysisSnapshot) error {
	if err := validateSnapshot(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- s:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("pipeline buffer full")
	}
}

// Depth is the number of buffered snapshots.
func (p *SnapshotPipeline) Depth() int { return len(p.bufCh) }

func (p *SnapshotPipeline) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]*models.AnalysisSnapshot, 0, p.batchSize)
	backoff := 50 * time.Millisecond

	flush := func(final bool) {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		fctx := ctx
		if final {
			fctx = context.WithoutCancel(ctx)
		}
		if err := p.sink.RecordBatch(fctx, batch); err != nil {
			p.metrics.RecordError("pipeline_flush")
			if p.logger != nil {
				p.logger.Warn("snapshot flush failed",
					logger.Int("batch", len(batch)),
					logger.Duration("backoff", backoff),
					logger.Error(err),
				)
			}
			if final {
				batch = batch[:0]
				return
			}
			select {
			case <-time.After(backoff):
			case <-p.stopCh:
			}
			if backoff < p.maxBackoff {
				backoff *= 2
			}
			p.requeue(batch)
			batch = batch[:0]
			return
		}
		backoff = 50 * time.Millisecond
		p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
		batch = batch[:0]
	}

	for {
		select {
		case <-p.stopCh:
			for {
				select {
				case s := <-p.bufCh:
					batch = append(batch, s)
					if len(batch) >= p.batchSize {
						flush(true)
					}
				default:
					flush(true)
					return
				}
			}
		case <-ctx.Done():
			flush(true)
			return
		case s := <-p.bufCh:
			batch = append(batch, s)
			if len(batch) >= p.batchSize {
				flush(false)
			}
		case <-ticker.C:
			flush(false)
		}
	}
}

// requeue puts a failed batch back while there is room; the rest is dropped.
func (p *SnapshotPipeline) requeue(batch []*models.AnalysisSnapshot) {
	for i, s := range batch {
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_drop")
			if p.logger != nil {
				p.logger.Error("snapshot buffer full, dropping", logger.Int("dropped", len(batch)-i))
			}
			return
		}
	}
}

func validateSnapshot(s *models.AnalysisSnapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot nil")
	}
	if s.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	if s.Composite < 1 || s.Composite > 5 {
		return fmt.Errorf("composite out of range: %v", s.Composite)
	}
	if s.Price < 0 || s.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}
