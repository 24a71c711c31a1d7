package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
)

// PlayerResolver maps a sheet name to a player: exact name, then alias, then a
// newly created player. One resolver serves one transaction; its cache must not
// outlive a rollback.
type PlayerResolver struct {
	repo    player.Repository
	byName  map[string]player.Player
	created int
}

func NewPlayerResolver(repo player.Repository) *PlayerResolver {
	return &PlayerResolver{
		repo:   repo,
		byName: make(map[string]player.Player),
	}
}

func (r *PlayerResolver) Resolve(ctx context.Context, rawName string) (player.Player, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return player.Player{}, fmt.Errorf("%w: player name is empty", ErrInvalidInput)
	}
	if cached, ok := r.byName[name]; ok {
		return cached, nil
	}

	item, found, err := r.repo.GetByName(ctx, name)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player by name %q: %w", name, err)
	}
	if !found {
		item, found, err = r.resolveAlias(ctx, name)
		if err != nil {
			return player.Player{}, err
		}
	}
	if !found {
		item, err = r.repo.Create(ctx, name)
		if err != nil {
			return player.Player{}, fmt.Errorf("create player %q: %w", name, err)
		}
		r.created++
	}

	r.byName[name] = item
	return item, nil
}

// Created reports how many players this resolver inserted.
func (r *PlayerResolver) Created() int {
	return r.created
}

func (r *PlayerResolver) resolveAlias(ctx context.Context, name string) (player.Player, bool, error) {
	alias, found, err := r.repo.GetAlias(ctx, name)
	if err != nil {
		return player.Player{}, false, fmt.Errorf("get player alias %q: %w", name, err)
	}
	if !found {
		return player.Player{}, false, nil
	}

	target, found, err := r.repo.GetByID(ctx, alias.PlayerID)
	if err != nil {
		return player.Player{}, false, fmt.Errorf("get alias target player_id=%d: %w", alias.PlayerID, err)
	}
	return target, found, nil
}
