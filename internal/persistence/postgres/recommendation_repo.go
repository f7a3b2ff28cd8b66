// Package postgres implements the persistence interfaces on PostgreSQL
// via sqlx. Recommendations are stored with flat query columns plus the
// full JSON document for exact round-tripping.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/signalmesh/advisor/internal/engine"
	"github.com/signalmesh/advisor/internal/persistence"
)

type recommendationRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRecommendationRepo creates a PostgreSQL recommendation repository
// with a per-query timeout.
func NewRecommendationRepo(db *sqlx.DB, timeout time.Duration) persistence.RecommendationRepo {
	return &recommendationRepo{db: db, timeout: timeout}
}

func (r *recommendationRepo) Insert(ctx context.Context, rec *persistence.RecommendationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal recommendation payload: %w", err)
	}

	query := `
		INSERT INTO recommendations
		(ts, market, asset, direction, score, confidence, regime, blocked_reason, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err = r.db.QueryRowxContext(ctx, query,
		rec.Timestamp, rec.Market, rec.Asset, rec.Direction, rec.Score,
		rec.Confidence, rec.Regime, rec.BlockedReason, payload).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepo) Latest(ctx context.Context, asset string) (*persistence.RecommendationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, market, asset, direction, score, confidence, regime,
		       blocked_reason, payload, created_at
		FROM recommendations
		WHERE asset = $1
		ORDER BY ts DESC
		LIMIT 1`

	rec, err := scanRecord(r.db.QueryRowxContext(ctx, query, asset))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest recommendation for %s: %w", asset, err)
	}
	return rec, nil
}

func (r *recommendationRepo) List(ctx context.Context, asset string, window persistence.TimeRange, limit int) ([]persistence.RecommendationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, market, asset, direction, score, confidence, regime,
		       blocked_reason, payload, created_at
		FROM recommendations
		WHERE asset = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts DESC
		LIMIT $4`

	rows, err := r.db.QueryxContext(ctx, query, asset, window.From, window.To, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations for %s: %w", asset, err)
	}
	defer rows.Close()

	var out []persistence.RecommendationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// rowScanner covers both Row and Rows from sqlx.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*persistence.RecommendationRecord, error) {
	var rec persistence.RecommendationRecord
	var payload []byte

	err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Market, &rec.Asset,
		&rec.Direction, &rec.Score, &rec.Confidence, &rec.Regime,
		&rec.BlockedReason, &payload, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	var payloadRec engine.Recommendation
	if err := json.Unmarshal(payload, &payloadRec); err != nil {
		return nil, fmt.Errorf("unmarshal recommendation payload: %w", err)
	}
	rec.Payload = payloadRec
	return &rec, nil
}
