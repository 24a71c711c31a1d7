package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
)

type MatchRepository struct {
	store *Store
}

func NewMatchRepository(store *Store) *MatchRepository {
	return &MatchRepository{store: store}
}

func (r *MatchRepository) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.data.matches[id]
	return item, ok, nil
}

func (r *MatchRepository) GetByNaturalKey(_ context.Context, teamSeasonID int64, name string) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.findLocked(teamSeasonID, name)
	return item, ok, nil
}

func (r *MatchRepository) findLocked(teamSeasonID int64, name string) (match.Match, bool) {
	for _, item := range r.store.data.matches {
		if item.TeamSeasonID == teamSeasonID && item.Name == name {
			return item, true
		}
	}
	return match.Match{}, false
}

func (r *MatchRepository) ListByTeamSeason(_ context.Context, teamSeasonID int64) ([]match.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.store.data.matches {
		if item.TeamSeasonID == teamSeasonID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) UpsertImported(_ context.Context, item match.Match) (match.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.findLocked(item.TeamSeasonID, item.Name)
	if !ok {
		r.store.data.nextMatchID++
		item.ID = r.store.data.nextMatchID
		r.store.data.matches[item.ID] = item
		return item, nil
	}

	existing.OpponentName = item.OpponentName
	existing.Date = item.Date
	existing.HomeAway = item.HomeAway
	existing.IsCancelled = item.IsCancelled
	existing.SheetCol = item.SheetCol
	existing.Source = item.Source
	if strings.TrimSpace(existing.Location) == "" {
		existing.Location = item.Location
	}
	r.store.data.matches[existing.ID] = existing
	return existing, nil
}

func (r *MatchRepository) UpdateSheetDetails(_ context.Context, matchID int64, details match.SheetDetails) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.data.matches[matchID]
	if !ok {
		return fmt.Errorf("match id=%d not found", matchID)
	}
	if details.FormatID != nil {
		id := *details.FormatID
		item.FormatID = &id
	}
	if details.KickoffTime != "" {
		item.KickoffTime = details.KickoffTime
	}
	if details.MeetTime != "" {
		item.MeetTime = details.MeetTime
	}
	if details.Location != "" {
		item.Location = details.Location
	}
	if details.TeamSheetTitle != "" {
		item.TeamSheetTitle = details.TeamSheetTitle
	}
	r.store.data.matches[matchID] = item
	return nil
}
