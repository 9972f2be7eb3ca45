package usecase

import (
	"context"
	"fmt"
	"time"

	"FinScore/internal/domain/models"
	drepo "FinScore/internal/domain/repository"
	"FinScore/pkg/logger"
)

// SnapshotRecorder writes analysis snapshots to the history backend and
// fans them out to the publisher.
type SnapshotRecorder struct {
	store   drepo.SnapshotStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	backend string
	logger  *logger.Logger
}

// NewSnapshotRecorder creates a new SnapshotRecorder instance. pub may be nil.
func NewSnapshotRecorder(
	store drepo.SnapshotStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	backend string,
	l *logger.Logger,
) *SnapshotRecorder {
	return &SnapshotRecorder{
		store:   store,
		pub:     pub,
		metrics: metrics,
		backend: backend,
		logger:  l,
	}
}

// Record stores a single snapshot.
func (r *SnapshotRecorder) Record(ctx context.Context, s *models.AnalysisSnapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	return r.RecordBatch(ctx, []*models.AnalysisSnapshot{s})
}

// RecordBatch stores snaps and then publishes them. Only a store failure is
// returned; the store is the source of truth for deltas.
func (r *SnapshotRecorder) RecordBatch(ctx context.Context, snaps []*models.AnalysisSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	start := time.Now()
	if err := r.store.SaveBatch(ctx, snaps); err != nil {
		r.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}
	r.metrics.RecordSnapshotStored(r.backend, len(snaps))

	if r.pub != nil {
		if err := r.pub.PublishSnapshots(ctx, snaps); err != nil {
			r.metrics.RecordError("publish_batch")
			if r.logger != nil {
				r.logger.Warn("publish snapshots failed",
					logger.Int("count", len(snaps)),
					logger.Error(err),
				)
			}
		}
	}

	r.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (r *SnapshotRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
