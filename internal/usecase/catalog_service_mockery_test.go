package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	matchmock "github.com/riskibarqy/team-sheet-sync/internal/mocks/domain/match"
	teamseasonmock "github.com/riskibarqy/team-sheet-sync/internal/mocks/domain/teamseason"
	"github.com/stretchr/testify/mock"
)

func TestCatalogService_ListMatches_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), "trace_id", "trace-123")
	teamSeasonRepo := teamseasonmock.NewRepository(t)
	matchRepo := matchmock.NewRepository(t)
	service := NewCatalogService(teamSeasonRepo, matchRepo)

	expected := []match.Match{
		{ID: 1, TeamSeasonID: 4, Name: "01: Leek (A)", OpponentName: "Leek"},
		{ID: 2, TeamSeasonID: 4, Name: "02: Trafford (H)", OpponentName: "Trafford"},
	}
	teamSeasonRepo.
		On("GetByID", mock.Anything, int64(4)).
		Return(teamseason.TeamSeason{ID: 4}, true, nil).
		Once()
	matchRepo.
		On("ListByTeamSeason", mock.Anything, int64(4)).
		Return(expected, nil).
		Once()

	got, err := service.ListMatches(ctx, 4)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(got) != len(expected) || got[1].OpponentName != "Trafford" {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestCatalogService_ListMatches_ErrorsUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		service := NewCatalogService(teamseasonmock.NewRepository(t), matchmock.NewRepository(t))
		if _, err := service.ListMatches(ctx, 0); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing team season", func(t *testing.T) {
		t.Parallel()
		teamSeasonRepo := teamseasonmock.NewRepository(t)
		teamSeasonRepo.
			On("GetByID", mock.Anything, int64(9)).
			Return(teamseason.TeamSeason{}, false, nil).
			Once()
		service := NewCatalogService(teamSeasonRepo, matchmock.NewRepository(t))
		if _, err := service.ListMatches(ctx, 9); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCatalogService_ListTeamSeasonsUsingMockery(t *testing.T) {
	t.Parallel()

	teamSeasonRepo := teamseasonmock.NewRepository(t)
	teamSeasonRepo.
		On("List", mock.Anything).
		Return([]teamseason.TeamSeason{{ID: 1, TeamName: "Sandbach", SeasonName: "2025/26"}}, nil).
		Once()

	got, err := NewCatalogService(teamSeasonRepo, matchmock.NewRepository(t)).ListTeamSeasons(context.Background())
	if err != nil {
		t.Fatalf("list team seasons: %v", err)
	}
	if len(got) != 1 || got[0].DisplayName() != "Sandbach 2025/26" {
		t.Fatalf("unexpected team seasons: %+v", got)
	}
}
