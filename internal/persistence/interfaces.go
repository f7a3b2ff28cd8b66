// Package persistence defines the storage interfaces and records for
// recommendation history. Implementations live in subpackages.
package persistence

import (
	"context"
	"time"

	"github.com/signalmesh/advisor/internal/engine"
)

// TimeRange is a query window, inclusive on both ends.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// RecommendationRecord is one persisted analysis run. The full
// recommendation is stored as a JSON document so the audit trail
// round-trips exactly; the flat columns exist for querying.
type RecommendationRecord struct {
	ID            int64                 `json:"id" db:"id"`
	Timestamp     time.Time             `json:"ts" db:"ts"`
	Market        string                `json:"market" db:"market"`
	Asset         string                `json:"asset" db:"asset"`
	Direction     string                `json:"direction" db:"direction"`
	Score         float64               `json:"score" db:"score"`
	Confidence    float64               `json:"confidence" db:"confidence"`
	Regime        string                `json:"regime" db:"regime"`
	BlockedReason *string               `json:"blockedReason,omitempty" db:"blocked_reason"`
	Payload       engine.Recommendation `json:"payload" db:"payload"`
	CreatedAt     time.Time             `json:"createdAt" db:"created_at"`
}

// RecommendationRepo stores and queries recommendation history.
type RecommendationRepo interface {
	// Insert persists one run and fills in the generated ID and CreatedAt.
	Insert(ctx context.Context, rec *RecommendationRecord) error
	// Latest returns the most recent record for an asset, or nil.
	Latest(ctx context.Context, asset string) (*RecommendationRecord, error)
	// List returns records for an asset inside the range, newest first,
	// capped at limit.
	List(ctx context.Context, asset string, window TimeRange, limit int) ([]RecommendationRecord, error)
}
