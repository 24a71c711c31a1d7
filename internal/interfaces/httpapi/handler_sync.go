package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
)

type syncTeamSeasonRequest struct {
	Phase string `json:"phase" validate:"omitempty,oneof=all master selections"`
}

type syncAllRequest struct {
	TeamSeasonIDs []int64 `json:"team_season_ids" validate:"omitempty,dive,gt=0"`
	Phase         string  `json:"phase" validate:"omitempty,oneof=all master selections"`
	MaxWorkers    int     `json:"max_workers" validate:"omitempty,min=1,max=16"`
}

type mergePlayerRequest struct {
	TargetPlayerID int64 `json:"target_player_id" validate:"required,gt=0"`
}

func (h *Handler) SyncTeamSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncTeamSeason", pathAttrs(r, "teamSeasonID")...)
	defer span.End()

	teamSeasonID, err := pathID(r, "teamSeasonID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req syncTeamSeasonRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	phase, err := usecase.ParseSyncPhase(req.Phase)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	row, err := h.contextSyncService.SyncTeamSeason(ctx, teamSeasonID, phase)
	if err != nil {
		h.logger.WarnContext(ctx, "sync team season failed", "team_season_id", teamSeasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, row)
}

func (h *Handler) SyncMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncMatch", pathAttrs(r, "matchID")...)
	defer span.End()

	matchID, err := pathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if !h.contextSyncService.SyncSingleMatch(ctx, matchID) {
		writeError(ctx, w, fmt.Errorf("%w: single match sync match_id=%d", usecase.ErrSyncFailed, matchID))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"match_id": matchID, "synced": true})
}

func (h *Handler) SyncMatchAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncMatchAvailability", pathAttrs(r, "matchID")...)
	defer span.End()

	matchID, err := pathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.availabilityService.SyncMatchAvailability(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "sync match availability failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncAll")
	defer span.End()

	var req syncAllRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	phase, err := usecase.ParseSyncPhase(req.Phase)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.contextSyncService.Run(ctx, usecase.ContextSyncInput{
		TeamSeasonIDs: req.TeamSeasonIDs,
		Phase:         phase,
		MaxWorkers:    req.MaxWorkers,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "context sync run failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) MergePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MergePlayer", pathAttrs(r, "playerID")...)
	defer span.End()

	sourceID, err := pathID(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req mergePlayerRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.mergeService.MergePlayers(ctx, sourceID, req.TargetPlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "merge players failed", "source_player_id", sourceID, "target_player_id", req.TargetPlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}
