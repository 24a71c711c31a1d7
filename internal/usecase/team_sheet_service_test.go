package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

type countingSyncer struct {
	inner SingleMatchSyncer
	calls atomic.Int32
}

func (c *countingSyncer) SyncSingleMatch(ctx context.Context, matchID int64) bool {
	c.calls.Add(1)
	return c.inner.SyncSingleMatch(ctx, matchID)
}

func newTeamSheetService(env *syncEnv, syncer SingleMatchSyncer) *TeamSheetService {
	return NewTeamSheetService(env.matches, env.formats, env.selections, env.players, env.gateway, syncer, logging.NewNop())
}

func TestTeamSheetService_LazySyncRunsOnceWhenEmpty(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	item := seedMatch(t, env, "01: Leek (A)")
	env.gateway.put("Leek", lineupGrid("Single Match - Thirds", map[string][]string{
		"AB": {"John Smith"},
		"AE": {"", "Tom Jones"},
	}))
	syncer := &countingSyncer{inner: env.lineups}
	service := newTeamSheetService(env, syncer)
	ctx := context.Background()

	sheet, err := service.GetTeamSheet(ctx, item.ID)
	if err != nil {
		t.Fatalf("get team sheet: %v", err)
	}
	if syncer.calls.Load() != 1 || !sheet.LazySynced {
		t.Fatalf("expected one lazy sync, calls=%d lazy=%v", syncer.calls.Load(), sheet.LazySynced)
	}
	if sheet.TemplateType != "Thirds" || sheet.Format == nil || sheet.Format.Periods != 3 {
		t.Fatalf("unexpected format: %q %+v", sheet.TemplateType, sheet.Format)
	}
	if len(sheet.Periods) != 3 {
		t.Fatalf("expected three periods, got %d", len(sheet.Periods))
	}
	if p := sheet.Periods[1].Starters[0]; p == nil || p.Name != "John Smith" || p.Role != string(selection.RoleStarter) {
		t.Fatalf("unexpected period 1 starter: %+v", p)
	}
	if p := sheet.Periods[2].Starters[1]; p == nil || p.Name != "Tom Jones" || p.Position != 2 {
		t.Fatalf("unexpected period 2 starter: %+v", p)
	}
	if sheet.Starters[0] == nil || sheet.Starters[0].Name != "John Smith" {
		t.Fatalf("expected root starters to mirror period 1")
	}

	again, err := service.GetTeamSheet(ctx, item.ID)
	if err != nil {
		t.Fatalf("get team sheet again: %v", err)
	}
	if syncer.calls.Load() != 1 || again.LazySynced {
		t.Fatalf("expected stored lineup to be served, calls=%d", syncer.calls.Load())
	}
}

func TestTeamSheetService_EmptySyncReturnsEmptySlots(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	item := seedMatch(t, env, "02: Trafford (H)")
	env.gateway.put("Trafford", lineupGrid("Thirds", nil))
	syncer := &countingSyncer{inner: env.lineups}
	service := newTeamSheetService(env, syncer)

	sheet, err := service.GetTeamSheet(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get team sheet: %v", err)
	}
	if syncer.calls.Load() != 1 {
		t.Fatalf("expected exactly one sync per read, got %d", syncer.calls.Load())
	}
	if len(sheet.Periods) != 3 {
		t.Fatalf("expected periods from stored format, got %d", len(sheet.Periods))
	}
	for p, period := range sheet.Periods {
		if len(period.Starters) != selection.StarterSlots || len(period.Finishers) != minFinisherSlots {
			t.Fatalf("period %d has %d starters and %d finishers", p, len(period.Starters), len(period.Finishers))
		}
		for _, slot := range append(period.Starters, period.Finishers...) {
			if slot != nil {
				t.Fatalf("expected empty slot, got %+v", slot)
			}
		}
	}
}

func TestTeamSheetService_FailedLazySyncStillReturnsSheet(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	item := seedMatch(t, env, "03: Crewe (A)")
	syncer := &countingSyncer{inner: env.lineups}
	service := newTeamSheetService(env, syncer)

	sheet, err := service.GetTeamSheet(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get team sheet: %v", err)
	}
	if syncer.calls.Load() != 1 || !sheet.LazySynced {
		t.Fatalf("expected one failed sync attempt")
	}
	if sheet.TemplateType != matchformat.DefaultName || sheet.Format != nil || len(sheet.Periods) != 1 {
		t.Fatalf("unexpected fallback sheet: %+v", sheet)
	}
	if sheet.Match.OpponentName != "Crewe" {
		t.Fatalf("unexpected match: %+v", sheet.Match)
	}
}

func TestTeamSheetService_SkipsLazySyncWithoutCredentials(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	item := seedMatch(t, env, "01: Leek (A)")
	env.gateway.authenticated = false
	syncer := &countingSyncer{inner: env.lineups}

	sheet, err := newTeamSheetService(env, syncer).GetTeamSheet(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get team sheet: %v", err)
	}
	if syncer.calls.Load() != 0 || sheet.LazySynced {
		t.Fatalf("expected no sync without credentials")
	}
}

func TestTeamSheetService_FinisherSlotsGrow(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	item := seedMatch(t, env, "01: Leek (A)")
	ctx := context.Background()
	p1, _ := env.players.Create(ctx, "John Smith")
	p2, _ := env.players.Create(ctx, "Tom Jones")
	if err := env.selections.ReplaceForMatch(ctx, item.ID, []selection.Selection{
		{PlayerID: p1.ID, Period: 1, Position: 1, Role: selection.RoleStarter},
		{PlayerID: p2.ID, Period: 1, Position: 25, Role: selection.RoleFinisher},
	}); err != nil {
		t.Fatalf("replace selections: %v", err)
	}

	sheet, err := newTeamSheetService(env, nil).GetTeamSheet(ctx, item.ID)
	if err != nil {
		t.Fatalf("get team sheet: %v", err)
	}
	if len(sheet.Finishers) != 10 {
		t.Fatalf("expected finishers to grow to 10, got %d", len(sheet.Finishers))
	}
	if f := sheet.Finishers[9]; f == nil || f.Name != "Tom Jones" || f.Position != 25 {
		t.Fatalf("unexpected finisher: %+v", f)
	}
}

func TestTeamSheetService_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("sync failure", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		item := seedMatch(t, env, "01: Leek (A)")
		_, err := newTeamSheetService(env, env.lineups).Refresh(context.Background(), item.ID)
		if !errors.Is(err, ErrSyncFailed) {
			t.Fatalf("expected ErrSyncFailed, got %v", err)
		}
	})

	t.Run("no syncer", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		item := seedMatch(t, env, "01: Leek (A)")
		_, err := newTeamSheetService(env, nil).Refresh(context.Background(), item.ID)
		if !errors.Is(err, ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		item := seedMatch(t, env, "01: Leek (A)")
		env.gateway.put("Leek", lineupGrid("Standard", map[string][]string{"B": {"John Smith"}}))
		sheet, err := newTeamSheetService(env, env.lineups).Refresh(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if sheet.Starters[0] == nil || sheet.Starters[0].Name != "John Smith" {
			t.Fatalf("unexpected starters: %+v", sheet.Starters)
		}
	})
}

func TestTeamSheetService_MatchErrors(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	service := newTeamSheetService(env, env.lineups)

	if _, err := service.GetTeamSheet(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.GetTeamSheet(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
