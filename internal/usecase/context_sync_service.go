package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/teamseason"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/id"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

type SyncPhase string

const (
	SyncPhaseAll        SyncPhase = "all"
	SyncPhaseMaster     SyncPhase = "master"
	SyncPhaseSelections SyncPhase = "selections"
)

const (
	contextStatusSuccess = "success"
	contextStatusPartial = "partial"
	contextStatusFailed  = "failed"

	defaultContextWorkers = 4
	maxContextWorkers     = 16

	SyncEventKindTeamSeason = "team_season"
	SyncEventKindMatch      = "match"
)

func ParseSyncPhase(raw string) (SyncPhase, error) {
	switch SyncPhase(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SyncPhaseAll:
		return SyncPhaseAll, nil
	case SyncPhaseMaster:
		return SyncPhaseMaster, nil
	case SyncPhaseSelections:
		return SyncPhaseSelections, nil
	default:
		return "", fmt.Errorf("%w: unsupported sync phase %q", ErrInvalidInput, raw)
	}
}

type ContextSyncInput struct {
	// TeamSeasonIDs narrows the run; empty means every team season.
	TeamSeasonIDs []int64
	Phase         SyncPhase
	MaxWorkers    int
}

type ContextSyncResult struct {
	RunID        string           `json:"run_id"`
	Phase        SyncPhase        `json:"phase"`
	ContextCount int              `json:"context_count"`
	SuccessCount int              `json:"success_count"`
	PartialCount int              `json:"partial_count"`
	FailedCount  int              `json:"failed_count"`
	WorkerCount  int              `json:"worker_count"`
	Contexts     []ContextSyncRow `json:"contexts"`
}

type ContextSyncRow struct {
	TeamSeasonID int64     `json:"team_season_id"`
	Name         string    `json:"name"`
	Phase        SyncPhase `json:"phase"`
	Status       string    `json:"status"`
	Matches      int       `json:"matches"`
	Players      int       `json:"players"`
	Synced       int       `json:"synced"`
	Failed       int       `json:"failed"`
	Selections   int       `json:"selections"`
	DurationMs   int64     `json:"duration_ms"`
	Message      string    `json:"message,omitempty"`
}

type masterDataRunner interface {
	Run(ctx context.Context, teamSeasonID int64) (MasterDataResult, error)
}

type selectionsRunner interface {
	SyncSelections(ctx context.Context, teamSeasonID int64) SelectionSyncResult
	SyncSingleMatch(ctx context.Context, matchID int64) bool
}

// ContextSyncService runs master data and then selections for each team
// season. Phases of one team season never overlap; different team seasons run
// on a bounded worker pool.
type ContextSyncService struct {
	teamSeasonRepo teamseason.Repository
	matchRepo      match.Repository
	master         masterDataRunner
	selections     selectionsRunner
	publisher      SyncEventPublisher
	ids            id.Generator
	logger         *logging.Logger
	maxWorkers     int
	now            func() time.Time

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewContextSyncService(
	teamSeasonRepo teamseason.Repository,
	matchRepo match.Repository,
	master *MasterDataSyncService,
	selections *SelectionSyncService,
	publisher SyncEventPublisher,
	ids id.Generator,
	maxWorkers int,
	logger *logging.Logger,
) *ContextSyncService {
	return newContextSyncService(teamSeasonRepo, matchRepo, master, selections, publisher, ids, maxWorkers, logger)
}

func newContextSyncService(
	teamSeasonRepo teamseason.Repository,
	matchRepo match.Repository,
	master masterDataRunner,
	selections selectionsRunner,
	publisher SyncEventPublisher,
	ids id.Generator,
	maxWorkers int,
	logger *logging.Logger,
) *ContextSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if publisher == nil {
		publisher = NoopSyncEventPublisher()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &ContextSyncService{
		teamSeasonRepo: teamSeasonRepo,
		matchRepo:      matchRepo,
		master:         master,
		selections:     selections,
		publisher:      publisher,
		ids:            ids,
		logger:         logger.Named("context_sync"),
		maxWorkers:     maxWorkers,
		now:            time.Now,
		locks:          make(map[int64]*sync.Mutex),
	}
}

func (s *ContextSyncService) lockFor(teamSeasonID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.locks[teamSeasonID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[teamSeasonID] = mu
	}
	return mu
}

// SyncContext runs the requested phases for one team season. Selections only
// run when master data succeeded.
func (s *ContextSyncService) SyncContext(ctx context.Context, ts teamseason.TeamSeason, phase SyncPhase) ContextSyncRow {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContextSyncService.SyncContext", attrTeamSeasonID.Int64(ts.ID))
	defer span.End()

	mu := s.lockFor(ts.ID)
	mu.Lock()
	defer mu.Unlock()

	start := s.now()
	row := ContextSyncRow{
		TeamSeasonID: ts.ID,
		Name:         ts.DisplayName(),
		Phase:        phase,
		Status:       contextStatusSuccess,
	}

	if phase == SyncPhaseAll || phase == SyncPhaseMaster {
		master, err := s.master.Run(ctx, ts.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "master data phase failed", "team_season_id", ts.ID, "error", err)
			markSpanFailed(span, "master data phase failed")
			row.Status = contextStatusFailed
			row.Message = err.Error()
			row.DurationMs = s.now().Sub(start).Milliseconds()
			return row
		}
		row.Matches = master.Matches
		row.Players = master.Players
	}

	if phase == SyncPhaseAll || phase == SyncPhaseSelections {
		lineups := s.selections.SyncSelections(ctx, ts.ID)
		if row.Matches == 0 {
			row.Matches = lineups.Matches
		}
		row.Synced = lineups.Synced
		row.Failed = lineups.Failed
		row.Selections = lineups.Selections
		switch {
		case !lineups.OK:
			markSpanFailed(span, "selections phase failed")
			row.Status = contextStatusFailed
			row.Message = lineups.Message
		case lineups.Failed > 0:
			row.Status = contextStatusPartial
			row.Message = fmt.Sprintf("%d match lineups failed", lineups.Failed)
		}
	}

	row.DurationMs = s.now().Sub(start).Milliseconds()
	return row
}

// SyncTeamSeason looks up one team season and runs SyncContext, publishing the
// outcome.
func (s *ContextSyncService) SyncTeamSeason(ctx context.Context, teamSeasonID int64, phase SyncPhase) (ContextSyncRow, error) {
	ts, err := requireTeamSeason(ctx, s.teamSeasonRepo, teamSeasonID)
	if err != nil {
		return ContextSyncRow{}, err
	}
	runID, err := s.ids.NewID()
	if err != nil {
		return ContextSyncRow{}, fmt.Errorf("generate run id: %w", err)
	}

	row := s.SyncContext(ctx, ts, phase)
	s.publish(ctx, runID, row)
	return row, nil
}

// SyncSingleMatch runs a single-match lineup sync under the lock of the
// match's team season.
func (s *ContextSyncService) SyncSingleMatch(ctx context.Context, matchID int64) bool {
	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil || !exists {
		s.logger.WarnContext(ctx, "single match sync skipped, match lookup failed", "match_id", matchID, "error", err)
		return false
	}

	mu := s.lockFor(item.TeamSeasonID)
	mu.Lock()
	ok := s.selections.SyncSingleMatch(ctx, matchID)
	mu.Unlock()

	status := contextStatusSuccess
	if !ok {
		status = contextStatusFailed
	}
	runID, err := s.ids.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "generate run id failed", "error", err)
		return ok
	}
	event := SyncEvent{
		RunID:        runID,
		Kind:         SyncEventKindMatch,
		TeamSeasonID: item.TeamSeasonID,
		MatchID:      matchID,
		Status:       status,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish sync event failed", "match_id", matchID, "error", err)
	}
	return ok
}

func (s *ContextSyncService) Run(ctx context.Context, input ContextSyncInput) (ContextSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContextSyncService.Run")
	defer span.End()

	phase := input.Phase
	if phase == "" {
		phase = SyncPhaseAll
	}
	if _, err := ParseSyncPhase(string(phase)); err != nil {
		return ContextSyncResult{}, err
	}

	targets, err := s.resolveTargets(ctx, input.TeamSeasonIDs)
	if err != nil {
		return ContextSyncResult{}, err
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return ContextSyncResult{}, fmt.Errorf("generate run id: %w", err)
	}

	workers := input.MaxWorkers
	if workers <= 0 {
		workers = s.maxWorkers
	}
	workerCount := normalizeContextWorkerCount(workers, len(targets))
	result := ContextSyncResult{
		RunID:        runID,
		Phase:        phase,
		ContextCount: len(targets),
		WorkerCount:  workerCount,
		Contexts:     make([]ContextSyncRow, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ContextSyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan ContextSyncRow, len(targets))
	var successCount atomic.Int32
	var partialCount atomic.Int32
	var failedCount atomic.Int32

	var workersWG sync.WaitGroup
	for _, ts := range targets {
		ts := ts
		workersWG.Add(1)
		if err := pool.Submit(func() {
			defer workersWG.Done()

			row := s.SyncContext(ctx, ts, phase)
			switch row.Status {
			case contextStatusSuccess:
				successCount.Add(1)
			case contextStatusPartial:
				partialCount.Add(1)
			default:
				failedCount.Add(1)
			}
			s.publish(ctx, runID, row)
			rows <- row
		}); err != nil {
			workersWG.Done()
			workersWG.Wait()
			return ContextSyncResult{}, fmt.Errorf("submit context sync to worker pool: %w", err)
		}
	}

	workersWG.Wait()
	close(rows)

	for row := range rows {
		result.Contexts = append(result.Contexts, row)
	}
	sort.SliceStable(result.Contexts, func(i, j int) bool {
		return result.Contexts[i].TeamSeasonID < result.Contexts[j].TeamSeasonID
	})

	result.SuccessCount = int(successCount.Load())
	result.PartialCount = int(partialCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "context sync run completed",
		"run_id", runID,
		"phase", phase,
		"contexts", result.ContextCount,
		"success", result.SuccessCount,
		"partial", result.PartialCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func (s *ContextSyncService) resolveTargets(ctx context.Context, ids []int64) ([]teamseason.TeamSeason, error) {
	all, err := s.teamSeasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team seasons: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[int64]teamseason.TeamSeason, len(all))
	for _, ts := range all {
		byID[ts.ID] = ts
	}
	out := make([]teamseason.TeamSeason, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, want := range ids {
		if _, dup := seen[want]; dup {
			continue
		}
		seen[want] = struct{}{}
		ts, ok := byID[want]
		if !ok {
			return nil, fmt.Errorf("%w: team season id=%d", ErrNotFound, want)
		}
		out = append(out, ts)
	}
	return out, nil
}

func (s *ContextSyncService) publish(ctx context.Context, runID string, row ContextSyncRow) {
	event := SyncEvent{
		RunID:        runID,
		Kind:         SyncEventKindTeamSeason,
		TeamSeasonID: row.TeamSeasonID,
		Status:       row.Status,
		Matches:      row.Matches,
		Selections:   row.Selections,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish sync event failed", "team_season_id", row.TeamSeasonID, "error", err)
	}
}

func normalizeContextWorkerCount(requested, tasks int) int {
	workers := requested
	if workers <= 0 {
		workers = defaultContextWorkers
	}
	if workers > maxContextWorkers {
		workers = maxContextWorkers
	}
	if tasks > 0 && workers > tasks {
		workers = tasks
	}
	if workers <= 0 {
		workers = 1
	}
	return workers
}
