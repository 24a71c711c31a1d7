package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/selection"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

const minFinisherSlots = 7

// SingleMatchSyncer is the lineup sync used on a read that finds nothing.
type SingleMatchSyncer interface {
	SyncSingleMatch(ctx context.Context, matchID int64) bool
}

type TeamSheet struct {
	Match        TeamSheetMatch          `json:"match"`
	TemplateType string                  `json:"template_type"`
	Format       *TeamSheetFormat        `json:"format,omitempty"`
	Periods      map[int]TeamSheetPeriod `json:"periods"`
	Starters     []*TeamSheetPlayer      `json:"starters"`
	Finishers    []*TeamSheetPlayer      `json:"finishers"`
	Metadata     TeamSheetMetadata       `json:"metadata"`
	LazySynced   bool                    `json:"lazy_synced"`
}

type TeamSheetMatch struct {
	ID           int64  `json:"id"`
	TeamSeasonID int64  `json:"team_season_id"`
	Name         string `json:"name"`
	OpponentName string `json:"opponent_name"`
	Date         string `json:"date,omitempty"`
	HomeAway     string `json:"home_away"`
	IsCancelled  bool   `json:"is_cancelled"`
}

type TeamSheetFormat struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Periods        int    `json:"periods"`
	PeriodDuration int    `json:"period_duration"`
	PlayersOnPitch int    `json:"players_on_pitch"`
}

// TeamSheetPeriod holds 15 starter slots and at least 7 finisher slots. An
// empty slot is nil.
type TeamSheetPeriod struct {
	Starters  []*TeamSheetPlayer `json:"starters"`
	Finishers []*TeamSheetPlayer `json:"finishers"`
}

type TeamSheetPlayer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Role     string `json:"role"`
}

type TeamSheetMetadata struct {
	Kickoff  string `json:"kickoff"`
	MeetTime string `json:"meet_time"`
	Location string `json:"location"`
	Title    string `json:"title"`
}

type TeamSheetService struct {
	matchRepo     match.Repository
	formatRepo    matchformat.Repository
	selectionRepo selection.Repository
	playerRepo    player.Repository
	gateway       SpreadsheetGateway
	syncer        SingleMatchSyncer
	logger        *logging.Logger
}

func NewTeamSheetService(
	matchRepo match.Repository,
	formatRepo matchformat.Repository,
	selectionRepo selection.Repository,
	playerRepo player.Repository,
	gateway SpreadsheetGateway,
	syncer SingleMatchSyncer,
	logger *logging.Logger,
) *TeamSheetService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamSheetService{
		matchRepo:     matchRepo,
		formatRepo:    formatRepo,
		selectionRepo: selectionRepo,
		playerRepo:    playerRepo,
		gateway:       gateway,
		syncer:        syncer,
		logger:        logger.Named("team_sheet"),
	}
}

// GetTeamSheet returns the stored lineup. When none is stored and the
// spreadsheet is reachable, one single-match sync runs first. A failed sync
// still returns an empty team sheet.
func (s *TeamSheetService) GetTeamSheet(ctx context.Context, matchID int64) (TeamSheet, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSheetService.GetTeamSheet", attrMatchID.Int64(matchID))
	defer span.End()

	item, err := s.requireMatch(ctx, matchID)
	if err != nil {
		return TeamSheet{}, err
	}

	items, err := s.selectionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return TeamSheet{}, fmt.Errorf("list selections match_id=%d: %w", matchID, err)
	}

	lazy := false
	if len(items) == 0 && s.syncer != nil && s.gateway != nil && s.gateway.IsAuthenticated(ctx) {
		lazy = true
		if s.syncer.SyncSingleMatch(ctx, matchID) {
			item, err = s.requireMatch(ctx, matchID)
			if err != nil {
				return TeamSheet{}, err
			}
			items, err = s.selectionRepo.ListByMatch(ctx, matchID)
			if err != nil {
				return TeamSheet{}, fmt.Errorf("list selections match_id=%d: %w", matchID, err)
			}
		} else {
			s.logger.WarnContext(ctx, "lazy sync failed, returning empty team sheet", "match_id", matchID)
		}
	}

	sheet, err := s.build(ctx, item, items)
	if err != nil {
		return TeamSheet{}, err
	}
	sheet.LazySynced = lazy
	return sheet, nil
}

// Refresh forces a single-match sync and then reads the lineup.
func (s *TeamSheetService) Refresh(ctx context.Context, matchID int64) (TeamSheet, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSheetService.Refresh", attrMatchID.Int64(matchID))
	defer span.End()

	if _, err := s.requireMatch(ctx, matchID); err != nil {
		return TeamSheet{}, err
	}
	if s.syncer == nil {
		return TeamSheet{}, fmt.Errorf("%w: lineup sync is not configured", ErrDependencyUnavailable)
	}
	if !s.syncer.SyncSingleMatch(ctx, matchID) {
		return TeamSheet{}, fmt.Errorf("%w: match_id=%d", ErrSyncFailed, matchID)
	}

	item, err := s.requireMatch(ctx, matchID)
	if err != nil {
		return TeamSheet{}, err
	}
	items, err := s.selectionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return TeamSheet{}, fmt.Errorf("list selections match_id=%d: %w", matchID, err)
	}
	return s.build(ctx, item, items)
}

func (s *TeamSheetService) requireMatch(ctx context.Context, matchID int64) (match.Match, error) {
	if matchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id must be > 0", ErrInvalidInput)
	}
	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match id=%d", ErrNotFound, matchID)
	}
	return item, nil
}

func (s *TeamSheetService) build(ctx context.Context, item match.Match, items []selection.Selection) (TeamSheet, error) {
	sheet := TeamSheet{
		Match: TeamSheetMatch{
			ID:           item.ID,
			TeamSeasonID: item.TeamSeasonID,
			Name:         item.Name,
			OpponentName: item.OpponentName,
			HomeAway:     item.HomeAway,
			IsCancelled:  item.IsCancelled,
		},
		TemplateType: matchformat.DefaultName,
		Periods:      make(map[int]TeamSheetPeriod),
		Metadata: TeamSheetMetadata{
			Kickoff:  item.KickoffTime,
			MeetTime: item.MeetTime,
			Location: item.Location,
			Title:    item.TeamSheetTitle,
		},
	}
	if item.Date != nil {
		sheet.Match.Date = item.Date.Format("2006-01-02")
	}

	periods := 1
	if item.FormatID != nil {
		format, exists, err := s.formatRepo.GetByID(ctx, *item.FormatID)
		if err != nil {
			return TeamSheet{}, fmt.Errorf("get match format id=%d: %w", *item.FormatID, err)
		}
		if exists {
			sheet.TemplateType = format.Name
			sheet.Format = &TeamSheetFormat{
				ID:             format.ID,
				Name:           format.Name,
				Periods:        format.Periods,
				PeriodDuration: format.PeriodDuration,
				PlayersOnPitch: format.PlayersOnPitch,
			}
			periods = max(periods, format.Periods)
		}
	}

	names, err := s.playerNames(ctx, items)
	if err != nil {
		return TeamSheet{}, err
	}

	for _, sel := range items {
		periods = max(periods, sel.Period)
	}
	for p := 1; p <= periods; p++ {
		sheet.Periods[p] = TeamSheetPeriod{
			Starters:  make([]*TeamSheetPlayer, selection.StarterSlots),
			Finishers: make([]*TeamSheetPlayer, minFinisherSlots),
		}
	}

	sorted := append([]selection.Selection(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Period != sorted[j].Period {
			return sorted[i].Period < sorted[j].Period
		}
		return sorted[i].Position < sorted[j].Position
	})

	for _, sel := range sorted {
		if sel.Period < 1 || sel.Position < 1 {
			continue
		}
		period := sheet.Periods[sel.Period]
		slot := &TeamSheetPlayer{
			ID:       sel.PlayerID,
			Name:     names[sel.PlayerID],
			Position: sel.Position,
			Role:     string(sel.Role),
		}
		if sel.Position < selection.FinisherFirstPosition {
			period.Starters[sel.Position-1] = slot
		} else {
			idx := sel.Position - selection.FinisherFirstPosition
			for len(period.Finishers) <= idx {
				period.Finishers = append(period.Finishers, nil)
			}
			period.Finishers[idx] = slot
		}
		sheet.Periods[sel.Period] = period
	}

	first := sheet.Periods[1]
	sheet.Starters = first.Starters
	sheet.Finishers = first.Finishers
	return sheet, nil
}

func (s *TeamSheetService) playerNames(ctx context.Context, items []selection.Selection) (map[int64]string, error) {
	names := make(map[int64]string, len(items))
	if len(items) == 0 {
		return names, nil
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, sel := range items {
		if _, ok := seen[sel.PlayerID]; ok {
			continue
		}
		seen[sel.PlayerID] = struct{}{}
		ids = append(ids, sel.PlayerID)
	}

	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list players by ids: %w", err)
	}
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names, nil
}
