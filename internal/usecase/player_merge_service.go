package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/player"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

type PlayerMergeResult struct {
	SourceID   int64  `json:"source_player_id"`
	TargetID   int64  `json:"target_player_id"`
	AliasName  string `json:"alias_name"`
	TargetName string `json:"target_name"`
}

type PlayerMergeService struct {
	playerRepo player.Repository
	txManager  TxManager
	logger     *logging.Logger
}

func NewPlayerMergeService(playerRepo player.Repository, txManager TxManager, logger *logging.Logger) *PlayerMergeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerMergeService{
		playerRepo: playerRepo,
		txManager:  txManager,
		logger:     logger.Named("player_merge"),
	}
}

// MergePlayers folds source into target. Source's name becomes an alias of
// target so later syncs resolve it to target.
func (s *PlayerMergeService) MergePlayers(ctx context.Context, sourceID, targetID int64) (PlayerMergeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerMergeService.MergePlayers")
	defer span.End()

	if sourceID <= 0 || targetID <= 0 {
		return PlayerMergeResult{}, fmt.Errorf("%w: player ids must be > 0", ErrInvalidInput)
	}
	if sourceID == targetID {
		return PlayerMergeResult{}, fmt.Errorf("%w: cannot merge a player into itself", ErrInvalidInput)
	}

	var result PlayerMergeResult
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		source, err := s.requirePlayer(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err := s.requirePlayer(ctx, targetID)
		if err != nil {
			return err
		}
		if err := s.playerRepo.Merge(ctx, source.ID, target.ID); err != nil {
			return fmt.Errorf("merge player %d into %d: %w", source.ID, target.ID, err)
		}
		result = PlayerMergeResult{
			SourceID:   source.ID,
			TargetID:   target.ID,
			AliasName:  source.Name,
			TargetName: target.Name,
		}
		return nil
	})
	if err != nil {
		return PlayerMergeResult{}, err
	}

	s.logger.InfoContext(ctx, "players merged",
		"source_player_id", sourceID, "target_player_id", targetID, "alias", result.AliasName)
	return result, nil
}

func (s *PlayerMergeService) requirePlayer(ctx context.Context, id int64) (player.Player, error) {
	item, exists, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player id=%d: %w", id, err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player id=%d", ErrNotFound, id)
	}
	return item, nil
}
