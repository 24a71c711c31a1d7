package selection

import "context"

// Repository stores lineups. ReplaceForMatch deletes every selection of the
// match and inserts items as one atomic step.
type Repository interface {
	ListByMatch(ctx context.Context, matchID int64) ([]Selection, error)
	CountByMatch(ctx context.Context, matchID int64) (int, error)
	ReplaceForMatch(ctx context.Context, matchID int64, items []Selection) error
}
