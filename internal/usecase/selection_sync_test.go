package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

func seedMatch(t *testing.T, env *syncEnv, name string) match.Match {
	t.Helper()
	item, err := env.matches.UpsertImported(context.Background(), match.Match{
		TeamSeasonID: 1,
		Name:         name,
		OpponentName: DeriveOpponentName(name),
		Source:       match.SourceImported,
	})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}
	return item
}

func TestSelectionSync_ThirdsScenario(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "01: Leek (A)")
	env.gateway.put("01: Leek (A)", lineupGrid("Single Match - Thirds", map[string][]string{
		"AB": {"John Smith"},
	}))
	ctx := context.Background()

	result := env.lineups.SyncSelections(ctx, 1)
	if !result.OK || result.Synced != 1 || result.Selections != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if env.gateway.batchCalls != 1 {
		t.Fatalf("expected one batch call, got %d", env.gateway.batchCalls)
	}

	items, _ := env.selections.ListByMatch(ctx, m.ID)
	if len(items) != 1 {
		t.Fatalf("expected 1 selection, got %+v", items)
	}
	john, _, _ := env.players.GetByName(ctx, "John Smith")
	want := selection.Selection{MatchID: m.ID, PlayerID: john.ID, Period: 1, Position: 1, Role: selection.RoleStarter}
	if items[0] != want {
		t.Fatalf("unexpected selection: got %+v want %+v", items[0], want)
	}

	got, _, _ := env.matches.GetByID(ctx, m.ID)
	if got.FormatID == nil || *got.FormatID != 1 {
		t.Fatalf("expected Thirds format persisted, got %v", got.FormatID)
	}
	if result.Items[0].Format != "Thirds" {
		t.Fatalf("unexpected format name: %q", result.Items[0].Format)
	}
}

func TestSelectionSync_StarterAndFinisherPositions(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 2")

	column := make([]string, 30)
	for i := 0; i < 15; i++ {
		column[i] = "Starter " + ColumnIndexToLetter(i)
	}
	column[6] = "" // gap at position 7
	column[15] = "Finisher A"
	column[16] = "Finisher B"
	column[18] = "Finisher D"
	env.gateway.put("Match 2", lineupGrid("Standard", map[string][]string{"B": column}))

	result := env.lineups.SyncSelections(context.Background(), 1)
	if !result.OK || result.Synced != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	items, _ := env.selections.ListByMatch(context.Background(), m.ID)
	starters := 0
	var finisherPositions []int
	for _, sel := range items {
		if sel.Period != 1 {
			t.Fatalf("unexpected period: %+v", sel)
		}
		switch sel.Role {
		case selection.RoleStarter:
			starters++
			if sel.Position < 1 || sel.Position > 15 {
				t.Fatalf("starter out of range: %+v", sel)
			}
			if sel.Position == 7 {
				t.Fatalf("empty cell must not produce a selection")
			}
		case selection.RoleFinisher:
			finisherPositions = append(finisherPositions, sel.Position)
		}
	}
	if starters != 14 {
		t.Fatalf("expected 14 starters, got %d", starters)
	}
	if !reflect.DeepEqual(finisherPositions, []int{16, 17, 19}) {
		t.Fatalf("unexpected finisher positions: %v", finisherPositions)
	}
}

func TestSelectionSync_ResyncIsDeterministic(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 3")
	env.gateway.put("Match 3 - Quarters", lineupGrid("Quarters", map[string][]string{
		"H": {"A One", "A Two"},
		"K": {"A Two", "A One"},
		"N": {"A Three"},
		"Q": {"", "A Four"},
	}))
	ctx := context.Background()

	env.lineups.SyncSelections(ctx, 1)
	first, _ := env.selections.ListByMatch(ctx, m.ID)
	env.lineups.SyncSelections(ctx, 1)
	second, _ := env.selections.ListByMatch(ctx, m.ID)

	if len(first) != 6 {
		t.Fatalf("expected 6 selections, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-sync changed selections:\nfirst=%+v\nsecond=%+v", first, second)
	}
}

func TestSelectionSync_FullReplace(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 4")
	env.gateway.put("Match 4", lineupGrid("", map[string][]string{"B": {"Old Player", "Kept Player"}}))
	ctx := context.Background()
	env.lineups.SyncSelections(ctx, 1)

	env.gateway.put("Match 4", lineupGrid("", map[string][]string{"B": {"", "Kept Player"}}))
	env.lineups.SyncSelections(ctx, 1)

	items, _ := env.selections.ListByMatch(ctx, m.ID)
	if len(items) != 1 || items[0].Position != 2 {
		t.Fatalf("expected only the kept player at position 2, got %+v", items)
	}
}

func TestSelectionSync_SkipsMatchesWithoutWorksheet(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	seedMatch(t, env, "01: Leek (A)")
	missing := seedMatch(t, env, "09: Nowhere (H)")
	env.gateway.put("Leek", lineupGrid("Standard", map[string][]string{"B": {"John Smith"}}))

	result := env.lineups.SyncSelections(context.Background(), 1)
	if !result.OK || result.Synced != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(env.gateway.batchRanges) != 1 || env.gateway.batchRanges[0] != "'Leek'!A1:AZ60" {
		t.Fatalf("unexpected batch ranges: %v", env.gateway.batchRanges)
	}
	count, _ := env.selections.CountByMatch(context.Background(), missing.ID)
	if count != 0 {
		t.Fatalf("expected no selections for unmatched match")
	}
}

func TestSelectionSync_MissingTemplateUsesDefaultFormat(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 5")
	env.gateway.put("Match 5", lineupGrid("", map[string][]string{
		"B":  {"Default Column"},
		"AB": {"Thirds Column"},
	}))

	result := env.lineups.SyncSelections(context.Background(), 1)
	if !result.OK || result.Synced != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	items, _ := env.selections.ListByMatch(context.Background(), m.ID)
	if len(items) != 1 {
		t.Fatalf("expected only column B, got %+v", items)
	}
	p, _, _ := env.players.GetByID(context.Background(), items[0].PlayerID)
	if p.Name != "Default Column" {
		t.Fatalf("unexpected player: %q", p.Name)
	}
	got, _, _ := env.matches.GetByID(context.Background(), m.ID)
	if got.FormatID == nil || *got.FormatID != 5 {
		t.Fatalf("expected Standard 15s format, got %v", got.FormatID)
	}
}

func TestSelectionSync_PersistsSheetMetadata(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 6")
	grid := lineupGrid("Thirds", map[string][]string{"AB": {"John Smith"}})
	grid[kickoffRow][metadataColumn] = "15:00"
	grid[meetTimeRow][metadataColumn] = "13:30"
	grid[locationRow][metadataColumn] = "Bradwall Road"
	grid[sheetTitleRow][metadataColumn] = "Cup Final"
	env.gateway.put("Match 6", grid)

	env.lineups.SyncSelections(context.Background(), 1)

	got, _, _ := env.matches.GetByID(context.Background(), m.ID)
	if got.KickoffTime != "15:00" || got.MeetTime != "13:30" || got.Location != "Bradwall Road" || got.TeamSheetTitle != "Cup Final" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
}

type flakySelectionRepo struct {
	selection.Repository
	failMatchID  int64
	panicMatchID int64
}

func (r flakySelectionRepo) ReplaceForMatch(ctx context.Context, matchID int64, items []selection.Selection) error {
	if matchID == r.panicMatchID {
		panic("unexpected layout")
	}
	if matchID == r.failMatchID {
		return errors.New("write failed")
	}
	return r.Repository.ReplaceForMatch(ctx, matchID, items)
}

func TestSelectionSync_IsolatesFailingMatches(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	good := seedMatch(t, env, "Match A")
	failing := seedMatch(t, env, "Match B")
	panicking := seedMatch(t, env, "Match C")
	for _, title := range []string{"Match A", "Match B", "Match C"} {
		env.gateway.put(title, lineupGrid("", map[string][]string{"B": {title + " Player"}}))
	}
	ctx := context.Background()

	previous := []selection.Selection{{PlayerID: 42, Period: 1, Position: 3, Role: selection.RoleStarter}}
	if err := env.selections.ReplaceForMatch(ctx, failing.ID, previous); err != nil {
		t.Fatalf("seed selections: %v", err)
	}

	service := NewSelectionSyncService(
		env.teamSeasons, env.matches, env.players,
		flakySelectionRepo{Repository: env.selections, failMatchID: failing.ID, panicMatchID: panicking.ID},
		env.formats, env.tx, env.gateway, logging.NewNop(),
	)

	result := service.SyncSelections(ctx, 1)
	if !result.OK || result.Synced != 1 || result.Failed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if count, _ := env.selections.CountByMatch(ctx, good.ID); count != 1 {
		t.Fatalf("expected good match committed, got %d selections", count)
	}
	kept, _ := env.selections.ListByMatch(ctx, failing.ID)
	if len(kept) != 1 || kept[0].PlayerID != 42 {
		t.Fatalf("expected previous selections kept for failed match, got %+v", kept)
	}
	if _, found, _ := env.players.GetByName(ctx, "Match B Player"); found {
		t.Fatalf("expected player insert rolled back with failed match")
	}
	if _, found, _ := env.players.GetByName(ctx, "Match C Player"); found {
		t.Fatalf("expected player insert rolled back after panic")
	}
}

func TestSelectionSync_BatchFailures(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		seedMatch(t, env, "Match 1")
		env.gateway.authenticated = false
		result := env.lineups.SyncSelections(context.Background(), 1)
		if result.OK {
			t.Fatalf("expected failure")
		}
	})

	t.Run("batch read error", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		seedMatch(t, env, "Match 1")
		env.gateway.put("Match 1", lineupGrid("", nil))
		env.gateway.batchErr = errGatewayDown
		result := env.lineups.SyncSelections(context.Background(), 1)
		if result.OK || result.Message == "" {
			t.Fatalf("expected failure with message, got %+v", result)
		}
	})

	t.Run("empty worksheet skipped", func(t *testing.T) {
		t.Parallel()
		env := newSyncEnv(t)
		seedMatch(t, env, "Match 1")
		env.gateway.put("Match 1", Grid{})
		result := env.lineups.SyncSelections(context.Background(), 1)
		if !result.OK || result.Skipped != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}
	})
}

func TestSelectionSync_SingleMatch(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "02: Trafford (H)")
	env.gateway.put("Trafford", lineupGrid("Halves", map[string][]string{
		"U": {"First Half"},
		"X": {"Second Half"},
	}))
	ctx := context.Background()

	if !env.lineups.SyncSingleMatch(ctx, m.ID) {
		t.Fatalf("expected single match sync to succeed")
	}
	if env.gateway.gridCalls != 1 || env.gateway.batchCalls != 0 {
		t.Fatalf("expected one non-batched read, got grid=%d batch=%d", env.gateway.gridCalls, env.gateway.batchCalls)
	}
	items, _ := env.selections.ListByMatch(ctx, m.ID)
	if len(items) != 2 || items[0].Period != 1 || items[1].Period != 2 {
		t.Fatalf("unexpected selections: %+v", items)
	}
}

func TestSelectionSync_SingleMatchFailures(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 1")
	ctx := context.Background()

	if env.lineups.SyncSingleMatch(ctx, m.ID) {
		t.Fatalf("expected failure without worksheet")
	}
	if env.lineups.SyncSingleMatch(ctx, 999) {
		t.Fatalf("expected failure for unknown match")
	}

	env.gateway.put("Match 1", lineupGrid("", map[string][]string{"B": {"John"}}))
	env.gateway.gridErr = errGatewayDown
	if env.lineups.SyncSingleMatch(ctx, m.ID) {
		t.Fatalf("expected failure on read error")
	}

	env.gateway.gridErr = nil
	env.gateway.authenticated = false
	if env.lineups.SyncSingleMatch(ctx, m.ID) {
		t.Fatalf("expected failure without credentials")
	}
}

func TestSelectionSync_EmptyWorksheetKeepsSelections(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	m := seedMatch(t, env, "Match 5")
	env.gateway.put("Match 5", lineupGrid("", map[string][]string{"B": {"John Smith", "Tom Hale"}}))
	ctx := context.Background()
	if result := env.lineups.SyncSelections(ctx, 1); !result.OK || result.Synced != 1 {
		t.Fatalf("unexpected first sync: %+v", result)
	}

	env.gateway.put("Match 5", Grid{})
	result := env.lineups.SyncSelections(ctx, 1)
	if !result.OK || result.Skipped != 1 || result.Synced != 0 {
		t.Fatalf("expected empty worksheet to be skipped, got %+v", result)
	}
	if result.Items[0].Status != lineupStatusSkipped {
		t.Fatalf("unexpected item status: %+v", result.Items[0])
	}

	if env.lineups.SyncSingleMatch(ctx, m.ID) {
		t.Fatalf("expected single match sync of an empty worksheet to fail")
	}

	count, _ := env.selections.CountByMatch(ctx, m.ID)
	if count != 2 {
		t.Fatalf("expected stored selections to be kept, got %d", count)
	}
}
