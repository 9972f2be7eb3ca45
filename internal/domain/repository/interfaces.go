package repository

import (
	"context"
	"errors"
	"time"

	"FinScore/internal/domain/models"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Latest when a symbol has no history.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore is the analysis history provider.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables
	Save(ctx context.Context, s *models.AnalysisSnapshot) error
	SaveBatch(ctx context.Context, snaps []*models.AnalysisSnapshot) error
	// Latest returns the most recent snapshot for symbol or ErrSnapshotNotFound.
	Latest(ctx context.Context, symbol string) (*models.AnalysisSnapshot, error)
	// List returns up to limit snapshots at or after since, newest first.
	// A zero since means no lower bound.
	List(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.AnalysisSnapshot, error)
	Health(ctx context.Context) error
	Close() error
}

// BarStore provides read-only access to stored OHLCV bars, ascending by date.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
}

type Publisher interface {
	PublishSnapshot(ctx context.Context, s *models.AnalysisSnapshot) error
	PublishSnapshots(ctx context.Context, snaps []*models.AnalysisSnapshot) error
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(symbol string, rec models.Recommendation, composite float64)
	RecordFallback(category models.CategoryID)
	RecordRegime(regime models.Regime, score, confidence float64)
	RecordSnapshotStored(backend string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
