package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id             BIGSERIAL PRIMARY KEY,
	ts             TIMESTAMPTZ NOT NULL,
	market         TEXT NOT NULL,
	asset          TEXT NOT NULL,
	direction      TEXT NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	regime         TEXT NOT NULL DEFAULT '',
	blocked_reason TEXT,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_recommendations_asset_ts ON recommendations (asset, ts DESC);
`

// EnsureSchema creates the recommendation table and indexes if absent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure recommendations schema: %w", err)
	}
	return nil
}
