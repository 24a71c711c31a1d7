package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
)

type Handler struct {
	catalogService      *usecase.CatalogService
	teamSheetService    *usecase.TeamSheetService
	contextSyncService  *usecase.ContextSyncService
	availabilityService *usecase.AvailabilitySyncService
	mergeService        *usecase.PlayerMergeService
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(
	catalogService *usecase.CatalogService,
	teamSheetService *usecase.TeamSheetService,
	contextSyncService *usecase.ContextSyncService,
	availabilityService *usecase.AvailabilitySyncService,
	mergeService *usecase.PlayerMergeService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		catalogService:      catalogService,
		teamSheetService:    teamSheetService,
		contextSyncService:  contextSyncService,
		availabilityService: availabilityService,
		mergeService:        mergeService,
		logger:              logger.Named("handler"),
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeamSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamSeasons")
	defer span.End()

	items, err := h.catalogService.ListTeamSeasons(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list team seasons failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamSeasonDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamSeasonToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches", pathAttrs(r, "teamSeasonID")...)
	defer span.End()

	teamSeasonID, err := pathID(r, "teamSeasonID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.catalogService.ListMatches(ctx, teamSeasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "team_season_id", teamSeasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetTeamSheet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamSheet", pathAttrs(r, "matchID")...)
	defer span.End()

	matchID, err := pathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sheet, err := h.teamSheetService.GetTeamSheet(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team sheet failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sheet)
}

func (h *Handler) RefreshTeamSheet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshTeamSheet", pathAttrs(r, "matchID")...)
	defer span.End()

	matchID, err := pathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sheet, err := h.teamSheetService.Refresh(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh team sheet failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sheet)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeOptionalBody leaves dst untouched when the request has no body.
func decodeOptionalBody(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	return id, nil
}
