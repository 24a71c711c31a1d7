package match

import "context"

// Repository exposes match persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	GetByNaturalKey(ctx context.Context, teamSeasonID int64, name string) (Match, bool, error)
	ListByTeamSeason(ctx context.Context, teamSeasonID int64) ([]Match, error)
	// UpsertImported writes the sheet-owned columns keyed by (team_season, name).
	UpsertImported(ctx context.Context, item Match) (Match, error)
	UpdateSheetDetails(ctx context.Context, matchID int64, details SheetDetails) error
}
