package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
)

type SelectionRepository struct {
	store *Store
}

func NewSelectionRepository(store *Store) *SelectionRepository {
	return &SelectionRepository{store: store}
}

func (r *SelectionRepository) ListByMatch(_ context.Context, matchID int64) ([]selection.Selection, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := append([]selection.Selection(nil), r.store.data.selections[matchID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Position < out[j].Position
	})
	if out == nil {
		out = []selection.Selection{}
	}
	return out, nil
}

func (r *SelectionRepository) CountByMatch(_ context.Context, matchID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.store.data.selections[matchID]), nil
}

func (r *SelectionRepository) ReplaceForMatch(_ context.Context, matchID int64, items []selection.Selection) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	seen := make(map[[2]int]struct{}, len(items))
	next := make([]selection.Selection, 0, len(items))
	for _, item := range items {
		key := [2]int{item.Period, item.Position}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate selection match_id=%d period=%d position=%d", matchID, item.Period, item.Position)
		}
		seen[key] = struct{}{}
		item.MatchID = matchID
		next = append(next, item)
	}

	if len(next) == 0 {
		delete(r.store.data.selections, matchID)
		return nil
	}
	r.store.data.selections[matchID] = next
	return nil
}
