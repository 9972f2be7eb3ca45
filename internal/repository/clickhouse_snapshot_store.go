package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	pkgch "FinScore/pkg/clickhouse"
	applogger "FinScore/pkg/logger"
)

const snapshotColumns = "id, symbol, ts, composite, recommendation, categories, price, volume, regime"

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{
		ch:    ch,
		db:    ch.DB(),
		table: ch.Database() + ".analysis_snapshots",
	}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.ch.Database()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id String,
            symbol LowCardinality(String),
            ts DateTime64(3, 'UTC'),
            composite Float64,
            recommendation LowCardinality(String),
            categories String,
            price Float64,
            volume Float64,
            regime LowCardinality(String)
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)`, s.table),
	})
}

func (s *CHSnapshotStore) Save(ctx context.Context, snap *models.AnalysisSnapshot) error {
	return s.SaveBatch(ctx, []*models.AnalysisSnapshot{snap})
}

// SaveBatch inserts snapshots with multi-row VALUES, in chunks.
func (s *CHSnapshotStore) SaveBatch(ctx context.Context, snaps []*models.AnalysisSnapshot) error {
	const chunkSize = 1000
	for start := 0; start < len(snaps); start += chunkSize {
		end := start + chunkSize
		if end > len(snaps) {
			end = len(snaps)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, snap := range snaps[start:end] {
			if snap == nil || snap.Symbol == "" {
				continue
			}
			cats, err := json.Marshal(snap.Categories)
			if err != nil {
				return fmt.Errorf("encode categories: %w", err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				snap.ID,
				snap.Symbol,
				snap.Timestamp.UTC(),
				snap.Composite,
				string(snap.Recommendation),
				string(cats),
				snap.Price,
				snap.Volume,
				string(snap.Regime),
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, snapshotColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse save_snapshots error",
					applogger.String("table", s.table),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert snapshots: %w", err)
		}
	}
	return nil
}

func (s *CHSnapshotStore) Latest(ctx context.Context, symbol string) (*models.AnalysisSnapshot, error) {
	snaps, err := s.List(ctx, symbol, time.Time{}, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, domrepo.ErrSnapshotNotFound
	}
	return snaps[0], nil
}

func (s *CHSnapshotStore) List(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.AnalysisSnapshot, error) {
	start := time.Now()
	where := "symbol = ?"
	args := []any{symbol}
	if !since.IsZero() {
		where += " AND ts >= ?"
		args = append(args, since)
	}
	args = append(args, limit)
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE %s
        ORDER BY ts DESC
        LIMIT ?
    `, snapshotColumns, s.table, where)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_snapshots query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AnalysisSnapshot, 0, limit)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse list_snapshots ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return nil // client owned by the app
}

func scanSnapshot(rows *sql.Rows) (*models.AnalysisSnapshot, error) {
	var (
		snap       models.AnalysisSnapshot
		rec        string
		cats       string
		regime     string
		categories map[models.CategoryID]float64
	)
	if err := rows.Scan(&snap.ID, &snap.Symbol, &snap.Timestamp, &snap.Composite, &rec, &cats, &snap.Price, &snap.Volume, &regime); err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	if cats != "" {
		if err := json.Unmarshal([]byte(cats), &categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
	}
	snap.Recommendation = models.Recommendation(rec)
	snap.Regime = models.Regime(regime)
	snap.Categories = categories
	snap.Timestamp = snap.Timestamp.UTC()
	return &snap, nil
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
