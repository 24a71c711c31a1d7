package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
)

// CatalogService serves read-only listings of sync contexts and their matches.
type CatalogService struct {
	teamSeasonRepo teamseason.Repository
	matchRepo      match.Repository
}

func NewCatalogService(teamSeasonRepo teamseason.Repository, matchRepo match.Repository) *CatalogService {
	return &CatalogService{teamSeasonRepo: teamSeasonRepo, matchRepo: matchRepo}
}

func (s *CatalogService) ListTeamSeasons(ctx context.Context) ([]teamseason.TeamSeason, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListTeamSeasons")
	defer span.End()

	items, err := s.teamSeasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team seasons: %w", err)
	}
	return items, nil
}

func (s *CatalogService) ListMatches(ctx context.Context, teamSeasonID int64) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.ListMatches", attrTeamSeasonID.Int64(teamSeasonID))
	defer span.End()

	if teamSeasonID <= 0 {
		return nil, fmt.Errorf("%w: team season id must be > 0", ErrInvalidInput)
	}
	if _, exists, err := s.teamSeasonRepo.GetByID(ctx, teamSeasonID); err != nil {
		return nil, fmt.Errorf("get team season id=%d: %w", teamSeasonID, err)
	} else if !exists {
		return nil, fmt.Errorf("%w: team season id=%d", ErrNotFound, teamSeasonID)
	}

	items, err := s.matchRepo.ListByTeamSeason(ctx, teamSeasonID)
	if err != nil {
		return nil, fmt.Errorf("list matches team_season_id=%d: %w", teamSeasonID, err)
	}
	return items, nil
}
