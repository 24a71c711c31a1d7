package availability

import (
	"context"
	"time"
)

// Repository upserts availability keyed by (match, player).
type Repository interface {
	ListByMatch(ctx context.Context, matchID int64) ([]Availability, error)
	UpsertStatus(ctx context.Context, matchID, playerID int64, status string) error
	UpsertProviderStatus(ctx context.Context, matchID, playerID int64, status, providerStatus string, at time.Time) error
}
