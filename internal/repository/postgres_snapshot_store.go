package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	"FinScore/pkg/postgres"
)

// snapshotRecord is the GORM row for an analysis snapshot.
type snapshotRecord struct {
	ID             string                        `gorm:"primaryKey;size:36"`
	Symbol         string                        `gorm:"size:16;not null;index:idx_snapshots_symbol_ts,priority:1"`
	Ts             time.Time                     `gorm:"not null;index:idx_snapshots_symbol_ts,priority:2"`
	Composite      float64                       `gorm:"not null"`
	Recommendation string                        `gorm:"size:16;not null"`
	Categories     map[models.CategoryID]float64 `gorm:"serializer:json;type:jsonb"`
	Price          float64
	Volume         float64
	Regime         string `gorm:"size:16"`
}

func (snapshotRecord) TableName() string {
	return "analysis_snapshots"
}

func toRecord(s *models.AnalysisSnapshot) snapshotRecord {
	return snapshotRecord{
		ID:             s.ID,
		Symbol:         s.Symbol,
		Ts:             s.Timestamp.UTC(),
		Composite:      s.Composite,
		Recommendation: string(s.Recommendation),
		Categories:     s.Categories,
		Price:          s.Price,
		Volume:         s.Volume,
		Regime:         string(s.Regime),
	}
}

func (r snapshotRecord) toModel() *models.AnalysisSnapshot {
	return &models.AnalysisSnapshot{
		ID:             r.ID,
		Symbol:         r.Symbol,
		Composite:      r.Composite,
		Recommendation: models.Recommendation(r.Recommendation),
		Categories:     r.Categories,
		Price:          r.Price,
		Volume:         r.Volume,
		Regime:         models.Regime(r.Regime),
		Timestamp:      r.Ts.UTC(),
	}
}

// PGSnapshotStore implements SnapshotStore on PostgreSQL through GORM.
type PGSnapshotStore struct {
	pg *postgres.Database
	db *gorm.DB
}

func NewPGSnapshotStore(pg *postgres.Database) *PGSnapshotStore {
	return &PGSnapshotStore{pg: pg, db: pg.DB()}
}

func (s *PGSnapshotStore) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&snapshotRecord{}); err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

func (s *PGSnapshotStore) Save(ctx context.Context, snap *models.AnalysisSnapshot) error {
	return s.SaveBatch(ctx, []*models.AnalysisSnapshot{snap})
}

func (s *PGSnapshotStore) SaveBatch(ctx context.Context, snaps []*models.AnalysisSnapshot) error {
	recs := make([]snapshotRecord, 0, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.Symbol == "" {
			continue
		}
		recs = append(recs, toRecord(snap))
	}
	if len(recs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(recs, 500).Error; err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	return nil
}

func (s *PGSnapshotStore) Latest(ctx context.Context, symbol string) (*models.AnalysisSnapshot, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("ts DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domrepo.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return rec.toModel(), nil
}

func (s *PGSnapshotStore) List(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.AnalysisSnapshot, error) {
	var recs []snapshotRecord
	q := s.db.WithContext(ctx).Where("symbol = ?", symbol)
	if !since.IsZero() {
		q = q.Where("ts >= ?", since)
	}
	err := q.
		Order("ts DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]*models.AnalysisSnapshot, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

func (s *PGSnapshotStore) Health(ctx context.Context) error {
	return s.pg.Health(ctx)
}

func (s *PGSnapshotStore) Close() error {
	return nil // connection owned by the app
}

var _ domrepo.SnapshotStore = (*PGSnapshotStore)(nil)
