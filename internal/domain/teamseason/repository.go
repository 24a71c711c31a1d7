package teamseason

import "context"

// Repository exposes team season reads.
type Repository interface {
	List(ctx context.Context) ([]TeamSeason, error)
	GetByID(ctx context.Context, id int64) (TeamSeason, bool, error)
}
