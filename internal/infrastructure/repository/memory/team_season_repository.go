package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
)

type TeamSeasonRepository struct {
	store *Store
}

func NewTeamSeasonRepository(store *Store) *TeamSeasonRepository {
	return &TeamSeasonRepository{store: store}
}

func (r *TeamSeasonRepository) List(_ context.Context) ([]teamseason.TeamSeason, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]teamseason.TeamSeason, 0, len(r.store.data.teamSeasons))
	for _, item := range r.store.data.teamSeasons {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamSeasonRepository) GetByID(_ context.Context, id int64) (teamseason.TeamSeason, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.data.teamSeasons[id]
	return item, ok, nil
}
