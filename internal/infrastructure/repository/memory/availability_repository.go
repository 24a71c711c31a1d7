package memory

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
)

type AvailabilityRepository struct {
	store *Store
	now   func() time.Time
}

func NewAvailabilityRepository(store *Store) *AvailabilityRepository {
	return &AvailabilityRepository{store: store, now: time.Now}
}

func (r *AvailabilityRepository) ListByMatch(_ context.Context, matchID int64) ([]availability.Availability, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]availability.Availability, 0)
	for key, item := range r.store.data.availability {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *AvailabilityRepository) UpsertStatus(_ context.Context, matchID, playerID int64, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := availabilityKey{matchID: matchID, playerID: playerID}
	item := r.store.data.availability[key]
	item.MatchID = matchID
	item.PlayerID = playerID
	item.Status = status
	item.UpdatedAt = r.now().UTC()
	r.store.data.availability[key] = item
	return nil
}

func (r *AvailabilityRepository) UpsertProviderStatus(_ context.Context, matchID, playerID int64, status, providerStatus string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := availabilityKey{matchID: matchID, playerID: playerID}
	item := r.store.data.availability[key]
	item.MatchID = matchID
	item.PlayerID = playerID
	item.Status = status
	item.ProviderStatus = providerStatus
	providerAt := at.UTC()
	item.ProviderUpdatedAt = &providerAt
	item.UpdatedAt = r.now().UTC()
	r.store.data.availability[key] = item
	return nil
}
