package memory

import (
	"context"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
)

type MatchFormatRepository struct {
	store *Store
}

func NewMatchFormatRepository(store *Store) *MatchFormatRepository {
	return &MatchFormatRepository{store: store}
}

func (r *MatchFormatRepository) List(_ context.Context) ([]matchformat.Format, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]matchformat.Format(nil), r.store.data.formats...), nil
}

func (r *MatchFormatRepository) GetByID(_ context.Context, id int64) (matchformat.Format, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.data.formats {
		if item.ID == id {
			return item, true, nil
		}
	}
	return matchformat.Format{}, false, nil
}
