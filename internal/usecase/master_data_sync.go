package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

const (
	DefaultSelectionSheetName = "Selection"
	DefaultHomeGround         = "Sandbach RUFC, Bradwall Road, Sandbach. CW11 1RA"
)

type SyncConfig struct {
	SelectionSheetName string
	HomeGround         string
}

func (c SyncConfig) normalized() SyncConfig {
	if strings.TrimSpace(c.SelectionSheetName) == "" {
		c.SelectionSheetName = DefaultSelectionSheetName
	}
	if strings.TrimSpace(c.HomeGround) == "" {
		c.HomeGround = DefaultHomeGround
	}
	return c
}

type MasterDataResult struct {
	TeamSeasonID   int64  `json:"team_season_id"`
	Worksheet      string `json:"worksheet"`
	Matches        int    `json:"matches"`
	Players        int    `json:"players"`
	PlayersCreated int    `json:"players_created"`
	Availability   int    `json:"availability"`
	DurationMs     int64  `json:"duration_ms"`
}

type MasterDataSyncService struct {
	teamSeasonRepo   teamseason.Repository
	matchRepo        match.Repository
	playerRepo       player.Repository
	availabilityRepo availability.Repository
	txManager        TxManager
	gateway          SpreadsheetGateway
	cfg              SyncConfig
	logger           *logging.Logger
	now              func() time.Time
}

func NewMasterDataSyncService(
	teamSeasonRepo teamseason.Repository,
	matchRepo match.Repository,
	playerRepo player.Repository,
	availabilityRepo availability.Repository,
	txManager TxManager,
	gateway SpreadsheetGateway,
	cfg SyncConfig,
	logger *logging.Logger,
) *MasterDataSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MasterDataSyncService{
		teamSeasonRepo:   teamSeasonRepo,
		matchRepo:        matchRepo,
		playerRepo:       playerRepo,
		availabilityRepo: availabilityRepo,
		txManager:        txManager,
		gateway:          gateway,
		cfg:              cfg.normalized(),
		logger:           logger.Named("master_data_sync"),
		now:              time.Now,
	}
}

// SyncMasterData reports whether the Selection worksheet was read and fully
// applied. Failures are logged and nothing is committed.
func (s *MasterDataSyncService) SyncMasterData(ctx context.Context, teamSeasonID int64) bool {
	result, err := s.Run(ctx, teamSeasonID)
	if err != nil {
		s.logger.ErrorContext(ctx, "master data sync failed", "team_season_id", teamSeasonID, "error", err)
		return false
	}
	s.logger.InfoContext(ctx, "master data sync completed",
		"team_season_id", teamSeasonID,
		"matches", result.Matches,
		"players", result.Players,
		"players_created", result.PlayersCreated,
		"availability", result.Availability,
		"duration_ms", result.DurationMs,
	)
	return true
}

type fixtureColumn struct {
	column  int
	matchID int64
}

func (s *MasterDataSyncService) Run(ctx context.Context, teamSeasonID int64) (MasterDataResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MasterDataSyncService.Run", attrTeamSeasonID.Int64(teamSeasonID))
	defer span.End()

	start := s.now()
	result := MasterDataResult{TeamSeasonID: teamSeasonID}

	ts, err := requireTeamSeason(ctx, s.teamSeasonRepo, teamSeasonID)
	if err != nil {
		return result, err
	}
	if s.gateway == nil || !s.gateway.IsAuthenticated(ctx) {
		return result, fmt.Errorf("%w: spreadsheet gateway is not authenticated", ErrUnauthorized)
	}

	worksheet, err := s.resolveSelectionSheet(ctx, ts)
	if err != nil {
		return result, err
	}
	result.Worksheet = worksheet

	grid, err := s.gateway.GetGrid(ctx, ts.SpreadsheetID, worksheet, "")
	if err != nil {
		return result, fmt.Errorf("%w: read worksheet %q: %v", ErrDependencyUnavailable, worksheet, err)
	}
	if len(grid) <= fixtureDateRow {
		return result, fmt.Errorf("%w: worksheet %q has %d rows, header needs %d", ErrInvalidInput, worksheet, len(grid), fixtureDateRow+1)
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		columns, err := s.syncFixtures(ctx, ts, grid)
		if err != nil {
			return err
		}
		result.Matches = len(columns)

		resolver := NewPlayerResolver(s.playerRepo)
		players, marks, err := s.syncPlayers(ctx, resolver, grid, columns)
		if err != nil {
			return err
		}
		result.Players = players
		result.Availability = marks
		result.PlayersCreated = resolver.Created()
		return nil
	})
	if err != nil {
		return MasterDataResult{TeamSeasonID: teamSeasonID, Worksheet: worksheet}, err
	}

	result.DurationMs = s.now().Sub(start).Milliseconds()
	return result, nil
}

func (s *MasterDataSyncService) resolveSelectionSheet(ctx context.Context, ts teamseason.TeamSeason) (string, error) {
	want := ts.SelectionSheet(s.cfg.SelectionSheetName)
	titles, err := s.gateway.ListWorksheets(ctx, ts.SpreadsheetID)
	if err != nil {
		return "", fmt.Errorf("%w: list worksheets: %v", ErrDependencyUnavailable, err)
	}
	title, ok := FindWorksheetByTitle(want, titles)
	if !ok {
		return "", fmt.Errorf("%w: worksheet %q not found in spreadsheet", ErrNotFound, want)
	}
	return title, nil
}

// syncFixtures upserts one match per named header column, left to right.
func (s *MasterDataSyncService) syncFixtures(ctx context.Context, ts teamseason.TeamSeason, grid Grid) ([]fixtureColumn, error) {
	names := grid.Row(fixtureNameRow)
	columns := make([]fixtureColumn, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for col := fixtureFirstColumn; col < len(names); col++ {
		name := strings.TrimSpace(grid.Cell(fixtureNameRow, col))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			s.logger.WarnContext(ctx, "duplicate fixture name in header, later column wins",
				"team_season_id", ts.ID, "fixture", name, "column", ColumnIndexToLetter(col))
		}
		seen[name] = struct{}{}

		rawDate := grid.Cell(fixtureDateRow, col)
		date := ParseSheetDate(rawDate)
		if date == nil && strings.TrimSpace(rawDate) != "" {
			s.logger.WarnContext(ctx, "unparseable fixture date, storing null",
				"team_season_id", ts.ID, "fixture", name, "date", rawDate)
		}

		item := match.Match{
			TeamSeasonID: ts.ID,
			Name:         name,
			OpponentName: DeriveOpponentName(name),
			Date:         date,
			HomeAway:     strings.TrimSpace(grid.Cell(fixtureHomeAwayRow, col)),
			IsCancelled:  IsCancelledStatus(grid.Cell(fixtureStatusRow, col)),
			Source:       match.SourceImported,
			SheetCol:     strconv.Itoa(col),
		}
		if item.IsHome() {
			// Only applied by the repository when the stored location is empty.
			item.Location = s.cfg.HomeGround
		}

		saved, err := s.matchRepo.UpsertImported(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("upsert match %q: %w", name, err)
		}
		columns = append(columns, fixtureColumn{column: col, matchID: saved.ID})
	}
	return columns, nil
}

func (s *MasterDataSyncService) syncPlayers(ctx context.Context, resolver *PlayerResolver, grid Grid, columns []fixtureColumn) (int, int, error) {
	players := 0
	marks := 0
	for row := playerFirstRow; row < len(grid); row++ {
		name := strings.TrimSpace(grid.Cell(row, playerNameColumn))
		if name == "" {
			continue
		}

		item, err := resolver.Resolve(ctx, name)
		if err != nil {
			return 0, 0, err
		}
		if err := s.playerRepo.UpdateSheetRow(ctx, item.ID, row+1); err != nil {
			return 0, 0, fmt.Errorf("update sheet row player_id=%d: %w", item.ID, err)
		}
		players++

		for _, fc := range columns {
			status := strings.TrimSpace(grid.Cell(row, fc.column))
			if status == "" {
				continue
			}
			if err := s.availabilityRepo.UpsertStatus(ctx, fc.matchID, item.ID, status); err != nil {
				return 0, 0, fmt.Errorf("upsert availability match_id=%d player_id=%d: %w", fc.matchID, item.ID, err)
			}
			marks++
		}
	}
	return players, marks, nil
}

func requireTeamSeason(ctx context.Context, repo teamseason.Repository, id int64) (teamseason.TeamSeason, error) {
	if id <= 0 {
		return teamseason.TeamSeason{}, fmt.Errorf("%w: team season id must be > 0", ErrInvalidInput)
	}
	ts, exists, err := repo.GetByID(ctx, id)
	if err != nil {
		return teamseason.TeamSeason{}, fmt.Errorf("get team season id=%d: %w", id, err)
	}
	if !exists {
		return teamseason.TeamSeason{}, fmt.Errorf("%w: team season id=%d", ErrNotFound, id)
	}
	if strings.TrimSpace(ts.SpreadsheetID) == "" {
		return teamseason.TeamSeason{}, fmt.Errorf("%w: team season id=%d has no spreadsheet", ErrInvalidInput, id)
	}
	return ts, nil
}
