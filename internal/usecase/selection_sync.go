package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

var errEmptyWorksheet = errors.New("match worksheet is empty")

type SelectionSyncResult struct {
	TeamSeasonID int64               `json:"team_season_id"`
	OK           bool                `json:"ok"`
	Message      string              `json:"message,omitempty"`
	Matches      int                 `json:"matches"`
	Resolved     int                 `json:"resolved"`
	Synced       int                 `json:"synced"`
	Skipped      int                 `json:"skipped"`
	Failed       int                 `json:"failed"`
	Selections   int                 `json:"selections"`
	Items        []MatchLineupResult `json:"items"`
	DurationMs   int64               `json:"duration_ms"`
}

type MatchLineupResult struct {
	MatchID    int64  `json:"match_id"`
	Worksheet  string `json:"worksheet,omitempty"`
	Format     string `json:"format,omitempty"`
	Status     string `json:"status"`
	Selections int    `json:"selections"`
	Message    string `json:"message,omitempty"`
}

const (
	lineupStatusSynced  = "synced"
	lineupStatusSkipped = "skipped"
	lineupStatusFailed  = "failed"
)

// SelectionSyncService replaces match lineups from per-match worksheets.
type SelectionSyncService struct {
	teamSeasonRepo teamseason.Repository
	matchRepo      match.Repository
	playerRepo     player.Repository
	selectionRepo  selection.Repository
	formatRepo     matchformat.Repository
	txManager      TxManager
	gateway        SpreadsheetGateway
	logger         *logging.Logger
	now            func() time.Time
}

func NewSelectionSyncService(
	teamSeasonRepo teamseason.Repository,
	matchRepo match.Repository,
	playerRepo player.Repository,
	selectionRepo selection.Repository,
	formatRepo matchformat.Repository,
	txManager TxManager,
	gateway SpreadsheetGateway,
	logger *logging.Logger,
) *SelectionSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SelectionSyncService{
		teamSeasonRepo: teamSeasonRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		selectionRepo:  selectionRepo,
		formatRepo:     formatRepo,
		txManager:      txManager,
		gateway:        gateway,
		logger:         logger.Named("selection_sync"),
		now:            time.Now,
	}
}

type lineupTarget struct {
	match     match.Match
	worksheet string
}

// SyncSelections reads every matched worksheet of the team season in one
// batch request, then replaces each match's lineup in its own transaction.
// A failing match does not affect the others.
func (s *SelectionSyncService) SyncSelections(ctx context.Context, teamSeasonID int64) SelectionSyncResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectionSyncService.SyncSelections", attrTeamSeasonID.Int64(teamSeasonID))
	defer span.End()

	start := s.now()
	result, err := s.syncSelections(ctx, teamSeasonID)
	result.TeamSeasonID = teamSeasonID
	result.DurationMs = s.now().Sub(start).Milliseconds()
	if err != nil {
		result.OK = false
		result.Message = err.Error()
		s.logger.ErrorContext(ctx, "selection sync failed", "team_season_id", teamSeasonID, "error", err)
		return result
	}

	result.OK = true
	s.logger.InfoContext(ctx, "selection sync completed",
		"team_season_id", teamSeasonID,
		"matches", result.Matches,
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"selections", result.Selections,
		"duration_ms", result.DurationMs,
	)
	return result
}

func (s *SelectionSyncService) syncSelections(ctx context.Context, teamSeasonID int64) (SelectionSyncResult, error) {
	result := SelectionSyncResult{Items: []MatchLineupResult{}}

	ts, err := requireTeamSeason(ctx, s.teamSeasonRepo, teamSeasonID)
	if err != nil {
		return result, err
	}
	if s.gateway == nil || !s.gateway.IsAuthenticated(ctx) {
		return result, fmt.Errorf("%w: spreadsheet gateway is not authenticated", ErrUnauthorized)
	}

	matches, err := s.matchRepo.ListByTeamSeason(ctx, ts.ID)
	if err != nil {
		return result, fmt.Errorf("list matches team_season_id=%d: %w", ts.ID, err)
	}
	result.Matches = len(matches)
	if len(matches) == 0 {
		return result, nil
	}

	titles, err := s.gateway.ListWorksheets(ctx, ts.SpreadsheetID)
	if err != nil {
		return result, fmt.Errorf("%w: list worksheets: %v", ErrDependencyUnavailable, err)
	}

	targets := make([]lineupTarget, 0, len(matches))
	for _, item := range matches {
		title, ok := FindWorksheetForMatch(item.Name, titles)
		if !ok {
			s.logger.WarnContext(ctx, "no worksheet found for match, skipping",
				"team_season_id", ts.ID, "match_id", item.ID, "match", item.Name)
			result.Skipped++
			result.Items = append(result.Items, MatchLineupResult{
				MatchID: item.ID,
				Status:  lineupStatusSkipped,
				Message: "no worksheet found",
			})
			continue
		}
		targets = append(targets, lineupTarget{match: item, worksheet: title})
	}
	result.Resolved = len(targets)
	if len(targets) == 0 {
		return result, nil
	}

	registry, err := LoadFormatRegistry(ctx, s.formatRepo)
	if err != nil {
		return result, err
	}

	ranges := make([]string, 0, len(targets))
	for _, target := range targets {
		ranges = append(ranges, WorksheetRange(target.worksheet, lineupWindow))
	}
	grids, err := s.gateway.BatchGetGrids(ctx, ts.SpreadsheetID, ranges)
	if err != nil {
		return result, fmt.Errorf("%w: batch read %d worksheets: %v", ErrDependencyUnavailable, len(ranges), err)
	}
	if len(grids) != len(targets) {
		return result, fmt.Errorf("%w: batch read returned %d grids for %d ranges", ErrDependencyUnavailable, len(grids), len(ranges))
	}

	for i, target := range targets {
		row := MatchLineupResult{MatchID: target.match.ID, Worksheet: target.worksheet}
		if grids[i].Empty() {
			s.logger.WarnContext(ctx, "match worksheet is empty, skipping",
				"match_id", target.match.ID, "worksheet", target.worksheet)
			row.Status = lineupStatusSkipped
			row.Message = errEmptyWorksheet.Error()
			result.Skipped++
			result.Items = append(result.Items, row)
			continue
		}

		layout, count, err := s.applyLineup(ctx, registry, target, grids[i])
		row.Format = layout.Name
		if err != nil {
			s.logger.ErrorContext(ctx, "match lineup sync failed",
				"match_id", target.match.ID, "worksheet", target.worksheet, "error", err)
			row.Status = lineupStatusFailed
			row.Message = err.Error()
			result.Failed++
			result.Items = append(result.Items, row)
			continue
		}

		row.Status = lineupStatusSynced
		row.Selections = count
		result.Synced++
		result.Selections += count
		result.Items = append(result.Items, row)
	}
	return result, nil
}

// SyncSingleMatch re-reads one match worksheet without batching. It is used
// by the lazy read path and never returns an error to its caller.
func (s *SelectionSyncService) SyncSingleMatch(ctx context.Context, matchID int64) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectionSyncService.SyncSingleMatch", attrMatchID.Int64(matchID))
	defer span.End()

	row, err := s.syncSingleMatch(ctx, matchID)
	if err != nil {
		s.logger.WarnContext(ctx, "single match sync failed", "match_id", matchID, "error", err)
		markSpanFailed(span, "single match sync failed")
		return false
	}
	s.logger.InfoContext(ctx, "single match sync completed",
		"match_id", matchID, "worksheet", row.Worksheet, "format", row.Format, "selections", row.Selections)
	return true
}

func (s *SelectionSyncService) syncSingleMatch(ctx context.Context, matchID int64) (MatchLineupResult, error) {
	row := MatchLineupResult{MatchID: matchID}
	if matchID <= 0 {
		return row, fmt.Errorf("%w: match id must be > 0", ErrInvalidInput)
	}
	if s.gateway == nil || !s.gateway.IsAuthenticated(ctx) {
		return row, fmt.Errorf("%w: spreadsheet gateway is not authenticated", ErrUnauthorized)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return row, fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	if !exists {
		return row, fmt.Errorf("%w: match id=%d", ErrNotFound, matchID)
	}
	ts, err := requireTeamSeason(ctx, s.teamSeasonRepo, item.TeamSeasonID)
	if err != nil {
		return row, err
	}

	titles, err := s.gateway.ListWorksheets(ctx, ts.SpreadsheetID)
	if err != nil {
		return row, fmt.Errorf("%w: list worksheets: %v", ErrDependencyUnavailable, err)
	}
	title, ok := FindWorksheetForMatch(item.Name, titles)
	if !ok {
		return row, fmt.Errorf("%w: no worksheet for match %q", ErrNotFound, item.Name)
	}
	row.Worksheet = title

	grid, err := s.gateway.GetGrid(ctx, ts.SpreadsheetID, title, lineupWindow)
	if err != nil {
		return row, fmt.Errorf("%w: read worksheet %q: %v", ErrDependencyUnavailable, title, err)
	}
	if grid.Empty() {
		return row, errEmptyWorksheet
	}

	registry, err := LoadFormatRegistry(ctx, s.formatRepo)
	if err != nil {
		return row, err
	}

	layout, count, err := s.applyLineup(ctx, registry, lineupTarget{match: item, worksheet: title}, grid)
	row.Format = layout.Name
	if err != nil {
		return row, err
	}
	row.Selections = count
	return row, nil
}

// applyLineup persists the format and sheet details, then replaces the lineup,
// all in one transaction. A panic while extracting rolls the transaction back
// and is reported as an error.
func (s *SelectionSyncService) applyLineup(ctx context.Context, registry *FormatRegistry, target lineupTarget, grid Grid) (Layout, int, error) {
	template := strings.TrimSpace(grid.Cell(templateTypeRow, templateTypeColumn))
	if template == "" {
		s.logger.WarnContext(ctx, "template type cell is empty, using default format",
			"match_id", target.match.ID, "worksheet", target.worksheet)
	}
	layout := registry.Resolve(template)

	var count int
	var txErr error
	var catcher panics.Catcher
	catcher.Try(func() {
		txErr = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
			resolver := NewPlayerResolver(s.playerRepo)
			items, err := extractLineup(ctx, resolver, layout, target.match.ID, grid)
			if err != nil {
				return err
			}

			details := sheetDetailsFromGrid(grid, layout)
			details.FormatID = layout.FormatID()
			if err := s.matchRepo.UpdateSheetDetails(ctx, target.match.ID, details); err != nil {
				return fmt.Errorf("update sheet details match_id=%d: %w", target.match.ID, err)
			}
			if err := s.selectionRepo.ReplaceForMatch(ctx, target.match.ID, items); err != nil {
				return fmt.Errorf("replace selections match_id=%d: %w", target.match.ID, err)
			}
			count = len(items)
			return nil
		})
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return layout, 0, fmt.Errorf("extract lineup match_id=%d: %w", target.match.ID, recovered.AsError())
	}
	if txErr != nil {
		return layout, 0, txErr
	}
	return layout, count, nil
}

// extractLineup reads starters from rows 5-19 and finishers from rows 20-34 of
// every layout column. Empty cells produce no selection.
func extractLineup(ctx context.Context, resolver *PlayerResolver, layout Layout, matchID int64, grid Grid) ([]selection.Selection, error) {
	type slot struct{ period, position int }
	seen := make(map[slot]struct{})
	items := make([]selection.Selection, 0, len(layout.Columns)*selection.StarterSlots)

	for _, pc := range layout.Columns {
		col := ColumnLetterToIndex(pc.Column)
		if col < 0 {
			continue
		}
		for row := starterFirstRow; row <= finisherLastRow; row++ {
			name := strings.TrimSpace(grid.Cell(row, col))
			if name == "" {
				continue
			}

			position := row - starterFirstRow + 1
			if row >= finisherFirstRow {
				position = row - finisherFirstRow + selection.FinisherFirstPosition
			}
			key := slot{period: pc.Period, position: position}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			p, err := resolver.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			items = append(items, selection.Selection{
				MatchID:  matchID,
				PlayerID: p.ID,
				Period:   pc.Period,
				Position: position,
				Role:     selection.RoleForPosition(position),
			})
		}
	}
	return items, nil
}

// sheetDetailsFromGrid reads B2-B5. B5 is the first starter slot when the
// layout reads column B, so the title is only taken from other layouts.
func sheetDetailsFromGrid(grid Grid, layout Layout) match.SheetDetails {
	details := match.SheetDetails{
		KickoffTime: strings.TrimSpace(grid.Cell(kickoffRow, metadataColumn)),
		MeetTime:    strings.TrimSpace(grid.Cell(meetTimeRow, metadataColumn)),
		Location:    strings.TrimSpace(grid.Cell(locationRow, metadataColumn)),
	}
	for _, pc := range layout.Columns {
		if ColumnLetterToIndex(pc.Column) == metadataColumn {
			return details
		}
	}
	details.TeamSheetTitle = strings.TrimSpace(grid.Cell(sheetTitleRow, metadataColumn))
	return details
}
