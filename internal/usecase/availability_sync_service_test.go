package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

type fakeProvider struct {
	events map[string]ProviderEvent
	err    error
}

func (p fakeProvider) FetchEvent(_ context.Context, eventID string) (ProviderEvent, error) {
	if p.err != nil {
		return ProviderEvent{}, p.err
	}
	event, ok := p.events[eventID]
	if !ok {
		return ProviderEvent{}, errors.New("event not found")
	}
	return event, nil
}

func TestAvailabilitySync_MapsProviderResponses(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	ctx := context.Background()
	item := seedMatch(t, env, "01: Leek (A)")
	env.store.SetMatchEvents(item.ID, "evt-main", "evt-availability")

	names := []string{"Accepted", "Declined", "Waiting", "Unanswered", "Both", "Silent"}
	ids := make(map[string]int64, len(names))
	for i, name := range names {
		p, err := env.players.Create(ctx, name)
		if err != nil {
			t.Fatalf("create player: %v", err)
		}
		ids[name] = p.ID
		env.store.SetPlayerSpondID(p.ID, "m"+string(rune('1'+i)))
	}
	// Has no provider id, so it is never a candidate.
	if _, err := env.players.Create(ctx, "Offline"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	fetchedAt := time.Date(2026, 1, 20, 18, 0, 0, 0, time.UTC)
	provider := fakeProvider{events: map[string]ProviderEvent{
		"evt-availability": {
			ID:            "evt-availability",
			AcceptedIDs:   []string{"m1", "m5"},
			DeclinedIDs:   []string{"m2", "m5"},
			WaitingIDs:    []string{"m3"},
			UnansweredIDs: []string{"m4"},
			FetchedAt:     fetchedAt,
		},
	}}
	service := NewAvailabilitySyncService(env.matches, env.players, env.availability, provider, env.tx, logging.NewNop())

	result, err := service.SyncMatchAvailability(ctx, item.ID)
	if err != nil {
		t.Fatalf("sync availability: %v", err)
	}
	if result.EventID != "evt-availability" || result.Candidates != 6 || result.Updated != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Available != 3 || result.Unavailable != 1 || result.Unknown != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	rows, _ := env.availability.ListByMatch(ctx, item.ID)
	byPlayer := make(map[int64]availability.Availability, len(rows))
	for _, r := range rows {
		byPlayer[r.PlayerID] = r
	}
	want := map[string][2]string{
		"Accepted":   {availability.StatusAvailable, availability.ProviderAttending},
		"Declined":   {availability.StatusUnavailable, availability.ProviderDeclined},
		"Waiting":    {availability.StatusAvailable, availability.ProviderWaitingList},
		"Unanswered": {availability.StatusUnknown, availability.ProviderUnanswered},
		"Both":       {availability.StatusAvailable, availability.ProviderAttending},
	}
	for name, statuses := range want {
		row, ok := byPlayer[ids[name]]
		if !ok {
			t.Fatalf("missing availability for %s", name)
		}
		if row.Status != statuses[0] || row.ProviderStatus != statuses[1] {
			t.Fatalf("%s: got %s/%s, want %s/%s", name, row.Status, row.ProviderStatus, statuses[0], statuses[1])
		}
		if row.ProviderUpdatedAt == nil || !row.ProviderUpdatedAt.Equal(fetchedAt) {
			t.Fatalf("%s: unexpected provider timestamp %v", name, row.ProviderUpdatedAt)
		}
	}
	if _, ok := byPlayer[ids["Silent"]]; ok {
		t.Fatalf("player outside every response set must be left alone")
	}
}

func TestAvailabilitySync_Errors(t *testing.T) {
	t.Parallel()

	env := newSyncEnv(t)
	ctx := context.Background()
	linked := seedMatch(t, env, "01: Leek (A)")
	env.store.SetMatchEvents(linked.ID, "evt-main", "")
	unlinked := seedMatch(t, env, "02: Trafford (H)")

	provider := fakeProvider{err: errGatewayDown}
	service := NewAvailabilitySyncService(env.matches, env.players, env.availability, provider, env.tx, logging.NewNop())

	if _, err := service.SyncMatchAvailability(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.SyncMatchAvailability(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.SyncMatchAvailability(ctx, unlinked.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unlinked match, got %v", err)
	}
	if _, err := service.SyncMatchAvailability(ctx, linked.ID); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	disabled := NewAvailabilitySyncService(env.matches, env.players, env.availability, nil, env.tx, logging.NewNop())
	if _, err := disabled.SyncMatchAvailability(ctx, linked.ID); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable for disabled provider, got %v", err)
	}
}
