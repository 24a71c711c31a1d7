package usecase

import (
	"context"
	"time"
)

// SpreadsheetGateway is the authenticated spreadsheet client. Every call names
// the spreadsheet document explicitly. Cell values are plain strings and absent
// cells read as "".
type SpreadsheetGateway interface {
	IsAuthenticated(ctx context.Context) bool
	ListWorksheets(ctx context.Context, spreadsheetID string) ([]string, error)
	GetCellValue(ctx context.Context, spreadsheetID, worksheet, cell string) (string, error)
	GetGrid(ctx context.Context, spreadsheetID, worksheet, rangeAddr string) (Grid, error)
	// BatchGetGrids returns one grid per range, aligned with the request order.
	BatchGetGrids(ctx context.Context, spreadsheetID string, ranges []string) ([]Grid, error)
}

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx passed to fn join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProviderEvent partitions member ids of one availability-provider event.
type ProviderEvent struct {
	ID            string
	Heading       string
	AcceptedIDs   []string
	DeclinedIDs   []string
	WaitingIDs    []string
	UnansweredIDs []string
	FetchedAt     time.Time
}

// AvailabilityProvider reads event responses from the external availability service.
type AvailabilityProvider interface {
	FetchEvent(ctx context.Context, eventID string) (ProviderEvent, error)
}

// SyncEvent is published after a context finishes syncing.
type SyncEvent struct {
	RunID        string    `json:"run_id"`
	Kind         string    `json:"kind"`
	TeamSeasonID int64     `json:"team_season_id"`
	MatchID      int64     `json:"match_id,omitempty"`
	Status       string    `json:"status"`
	Matches      int       `json:"matches"`
	Selections   int       `json:"selections"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type SyncEventPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, SyncEvent) error { return nil }

// NoopSyncEventPublisher discards events.
func NoopSyncEventPublisher() SyncEventPublisher {
	return noopPublisher{}
}
