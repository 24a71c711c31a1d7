package player

import "context"

// Repository exposes player and alias persistence. Lookups by name are exact.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Player, bool, error)
	GetByName(ctx context.Context, name string) (Player, bool, error)
	GetAlias(ctx context.Context, name string) (Alias, bool, error)
	ListByIDs(ctx context.Context, ids []int64) ([]Player, error)
	ListWithSpondID(ctx context.Context) ([]Player, error)
	// Create returns the existing active player when name is already taken.
	Create(ctx context.Context, name string) (Player, error)
	UpdateSheetRow(ctx context.Context, playerID int64, row int) error
	// Merge aliases source's name to target, moves every reference and deletes source.
	Merge(ctx context.Context, sourceID, targetID int64) error
}
