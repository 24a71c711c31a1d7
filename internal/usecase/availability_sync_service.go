package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/availability"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/match"
	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

type AvailabilitySyncResult struct {
	MatchID     int64  `json:"match_id"`
	EventID     string `json:"event_id"`
	Candidates  int    `json:"candidates"`
	Updated     int    `json:"updated"`
	Available   int    `json:"available"`
	Unavailable int    `json:"unavailable"`
	Unknown     int    `json:"unknown"`
}

// AvailabilitySyncService copies event responses from the availability
// provider onto match availability.
type AvailabilitySyncService struct {
	matchRepo        match.Repository
	playerRepo       player.Repository
	availabilityRepo availability.Repository
	provider         AvailabilityProvider
	txManager        TxManager
	logger           *logging.Logger
	now              func() time.Time
}

func NewAvailabilitySyncService(
	matchRepo match.Repository,
	playerRepo player.Repository,
	availabilityRepo availability.Repository,
	provider AvailabilityProvider,
	txManager TxManager,
	logger *logging.Logger,
) *AvailabilitySyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilitySyncService{
		matchRepo:        matchRepo,
		playerRepo:       playerRepo,
		availabilityRepo: availabilityRepo,
		provider:         provider,
		txManager:        txManager,
		logger:           logger.Named("availability_sync"),
		now:              time.Now,
	}
}

// providerStatus maps a member id to (status, provider status). Members in
// several sets take the first of accepted, declined, waiting, unanswered.
func providerStatus(event ProviderEvent) map[string][2]string {
	out := make(map[string][2]string)
	assign := func(ids []string, status, provider string) {
		for _, id := range ids {
			if _, ok := out[id]; ok {
				continue
			}
			out[id] = [2]string{status, provider}
		}
	}
	assign(event.AcceptedIDs, availability.StatusAvailable, availability.ProviderAttending)
	assign(event.DeclinedIDs, availability.StatusUnavailable, availability.ProviderDeclined)
	assign(event.WaitingIDs, availability.StatusAvailable, availability.ProviderWaitingList)
	assign(event.UnansweredIDs, availability.StatusUnknown, availability.ProviderUnanswered)
	return out
}

func (s *AvailabilitySyncService) SyncMatchAvailability(ctx context.Context, matchID int64) (AvailabilitySyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AvailabilitySyncService.SyncMatchAvailability", attrMatchID.Int64(matchID))
	defer span.End()

	result := AvailabilitySyncResult{MatchID: matchID}
	if s.provider == nil {
		return result, fmt.Errorf("%w: availability provider is disabled", ErrDependencyUnavailable)
	}
	if matchID <= 0 {
		return result, fmt.Errorf("%w: match id must be > 0", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return result, fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	if !exists {
		return result, fmt.Errorf("%w: match id=%d", ErrNotFound, matchID)
	}

	eventID := item.ProviderEventID()
	if eventID == "" {
		return result, fmt.Errorf("%w: match id=%d has no linked availability event", ErrInvalidInput, matchID)
	}
	result.EventID = eventID

	event, err := s.provider.FetchEvent(ctx, eventID)
	if err != nil {
		return result, fmt.Errorf("%w: fetch availability event %s: %v", ErrDependencyUnavailable, eventID, err)
	}
	fetchedAt := event.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now().UTC()
	}
	statuses := providerStatus(event)

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		players, err := s.playerRepo.ListWithSpondID(ctx)
		if err != nil {
			return fmt.Errorf("list players with provider id: %w", err)
		}
		result.Candidates = len(players)

		for _, p := range players {
			mapped, ok := statuses[p.SpondID]
			if !ok {
				continue
			}
			if err := s.availabilityRepo.UpsertProviderStatus(ctx, matchID, p.ID, mapped[0], mapped[1], fetchedAt); err != nil {
				return fmt.Errorf("upsert availability match_id=%d player_id=%d: %w", matchID, p.ID, err)
			}
			result.Updated++
			switch mapped[0] {
			case availability.StatusAvailable:
				result.Available++
			case availability.StatusUnavailable:
				result.Unavailable++
			default:
				result.Unknown++
			}
		}
		return nil
	})
	if err != nil {
		return AvailabilitySyncResult{MatchID: matchID, EventID: eventID}, err
	}

	s.logger.InfoContext(ctx, "availability sync completed",
		"match_id", matchID,
		"event_id", eventID,
		"updated", result.Updated,
		"available", result.Available,
		"unavailable", result.Unavailable,
	)
	return result, nil
}
