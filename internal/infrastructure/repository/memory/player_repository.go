package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
)

type PlayerRepository struct {
	store *Store
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{store: store}
}

func (r *PlayerRepository) GetByID(_ context.Context, id int64) (player.Player, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.data.players[id]
	return item, ok, nil
}

func (r *PlayerRepository) GetByName(_ context.Context, name string) (player.Player, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range sortedPlayers(r.store.data.players) {
		if item.Name == name {
			return item, true, nil
		}
	}
	return player.Player{}, false, nil
}

func (r *PlayerRepository) GetAlias(_ context.Context, name string) (player.Alias, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.data.aliases {
		if item.Name == name {
			return item, true, nil
		}
	}
	return player.Alias{}, false, nil
}

func (r *PlayerRepository) ListByIDs(_ context.Context, ids []int64) ([]player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.store.data.players[id]; ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) ListWithSpondID(_ context.Context) ([]player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, item := range sortedPlayers(r.store.data.players) {
		if strings.TrimSpace(item.SpondID) != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *PlayerRepository) Create(_ context.Context, name string) (player.Player, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range r.store.data.players {
		if item.Name == name {
			return item, nil
		}
	}
	r.store.data.nextPlayerID++
	item := player.Player{ID: r.store.data.nextPlayerID, Name: name}
	r.store.data.players[item.ID] = item
	return item, nil
}

func (r *PlayerRepository) UpdateSheetRow(_ context.Context, playerID int64, row int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.data.players[playerID]
	if !ok {
		return fmt.Errorf("player id=%d not found", playerID)
	}
	item.SheetRow = &row
	r.store.data.players[playerID] = item
	return nil
}

func (r *PlayerRepository) Merge(_ context.Context, sourceID, targetID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	data := &r.store.data
	source, ok := data.players[sourceID]
	if !ok {
		return fmt.Errorf("player id=%d not found", sourceID)
	}
	if _, ok := data.players[targetID]; !ok {
		return fmt.Errorf("player id=%d not found", targetID)
	}

	for id, alias := range data.aliases {
		if alias.PlayerID == sourceID {
			alias.PlayerID = targetID
			data.aliases[id] = alias
		}
	}
	aliased := false
	for _, alias := range data.aliases {
		if alias.Name == source.Name {
			aliased = true
			break
		}
	}
	if !aliased {
		data.nextAliasID++
		data.aliases[data.nextAliasID] = player.Alias{ID: data.nextAliasID, Name: source.Name, PlayerID: targetID}
	}

	for key, item := range data.availability {
		if key.playerID != sourceID {
			continue
		}
		delete(data.availability, key)
		moved := availabilityKey{matchID: key.matchID, playerID: targetID}
		if _, exists := data.availability[moved]; exists {
			continue
		}
		item.PlayerID = targetID
		data.availability[moved] = item
	}

	for matchID, items := range data.selections {
		next := make([]selection.Selection, 0, len(items))
		for _, sel := range items {
			if sel.PlayerID == sourceID {
				sel.PlayerID = targetID
			}
			next = append(next, sel)
		}
		data.selections[matchID] = next
	}

	delete(data.players, sourceID)
	return nil
}

func sortedPlayers(items map[int64]player.Player) []player.Player {
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
