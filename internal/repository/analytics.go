package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berean-labs/berean/internal/domain"
)

// PGAnalyticsStore persists event batches keyed by flush timestamp. Pending
// rows are batches carried over a restart that have not been flushed yet.
type PGAnalyticsStore struct {
	db *pgxpool.Pool
}

func NewPGAnalyticsStore(db *pgxpool.Pool) *PGAnalyticsStore {
	return &PGAnalyticsStore{db: db}
}

func (s *PGAnalyticsStore) SaveBatch(ctx context.Context, batch domain.AnalyticsBatch, pending bool) error {
	events, err := json.Marshal(batch.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO analytics_batches (key, events, flushed_at, pending)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`,
		batch.Key, events, batch.FlushedAt, pending)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

func (s *PGAnalyticsStore) LoadPending(ctx context.Context) ([]domain.AnalyticsBatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT key, events, flushed_at FROM analytics_batches
		WHERE pending ORDER BY flushed_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.AnalyticsBatch
	for rows.Next() {
		var b domain.AnalyticsBatch
		var events []byte
		if err := rows.Scan(&b.Key, &events, &b.FlushedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if err := json.Unmarshal(events, &b.Events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *PGAnalyticsStore) DeletePending(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM analytics_batches WHERE key = $1 AND pending`, key); err != nil {
		return fmt.Errorf("delete pending batch: %w", err)
	}
	return nil
}
