package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

func TestPlayerMerge_SyncResolvesAliasAfterMerge(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	env.gateway.put("Selection", selectionGrid(
		[]fixtureHeader{{name: "01: Leek (A)", homeAway: "Away"}},
		[]string{"Jon Smith", "John Smith"},
		[][]string{{"Y"}, {""}},
	))
	mustSyncMasterData(t, env)
	ctx := context.Background()

	source, _, _ := env.players.GetByName(ctx, "Jon Smith")
	target, _, _ := env.players.GetByName(ctx, "John Smith")

	service := NewPlayerMergeService(env.players, env.tx, logging.NewNop())
	result, err := service.MergePlayers(ctx, source.ID, target.ID)
	if err != nil {
		t.Fatalf("merge players: %v", err)
	}
	if result.AliasName != "Jon Smith" || result.TargetName != "John Smith" {
		t.Fatalf("unexpected result: %+v", result)
	}

	leek, _, _ := env.matches.GetByNaturalKey(ctx, 1, "01: Leek (A)")
	rows, _ := env.availability.ListByMatch(ctx, leek.ID)
	if len(rows) != 1 || rows[0].PlayerID != target.ID {
		t.Fatalf("expected availability on target, got %+v", rows)
	}

	sync, err := env.master.Run(ctx, 1)
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if sync.PlayersCreated != 0 {
		t.Fatalf("expected merged spelling to resolve through alias, created %d", sync.PlayersCreated)
	}
	if _, found, _ := env.players.GetByName(ctx, "Jon Smith"); found {
		t.Fatalf("merged spelling must not be recreated")
	}
}

func TestPlayerMerge_Errors(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	ctx := context.Background()
	existing, _ := env.players.Create(ctx, "John Smith")
	service := NewPlayerMergeService(env.players, env.tx, logging.NewNop())

	if _, err := service.MergePlayers(ctx, 0, existing.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.MergePlayers(ctx, existing.ID, existing.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self merge, got %v", err)
	}
	if _, err := service.MergePlayers(ctx, 404, existing.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, found, _ := env.players.GetByID(ctx, existing.ID); !found {
		t.Fatalf("failed merge must leave target in place")
	}
}
