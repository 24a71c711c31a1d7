package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/team-seasons", handler.ListTeamSeasons)
	mux.HandleFunc("GET /v1/team-seasons/{teamSeasonID}/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}/team-sheet", handler.GetTeamSheet)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	internal := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireInternalJobToken(internalJobToken, fn))
	}

	// Forced refreshes always read the spreadsheet, so they share the job token.
	internal("POST /v1/matches/{matchID}/team-sheet/refresh", handler.RefreshTeamSheet)
	internal("POST /v1/internal/sync/team-seasons/{teamSeasonID}", handler.SyncTeamSeason)
	internal("POST /v1/internal/sync/matches/{matchID}", handler.SyncMatch)
	internal("POST /v1/internal/sync/matches/{matchID}/availability", handler.SyncMatchAvailability)
	internal("POST /v1/internal/sync/all", handler.SyncAll)
	internal("POST /v1/internal/players/{playerID}/merge", handler.MergePlayer)
}
