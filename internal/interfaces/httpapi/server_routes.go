package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerTournamentRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/tournaments", handler.RegisterTournament)
	mux.HandleFunc("GET /v1/tournaments", handler.ListTournaments)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}", handler.GetTournament)
	mux.HandleFunc("POST /v1/tournaments/{tournamentID}/archive", handler.ArchiveTournament)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/schedule", handler.GetTournamentSchedule)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/runs", handler.ListTournamentRuns)
}

func registerDivisionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/divisions/{divisionID}/standings", handler.GetDivisionStandings)
	mux.HandleFunc("GET /v1/divisions/{divisionID}/seeding", handler.GetDivisionSeeding)
}

func registerInternalFetchRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/fetch/trigger", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.TriggerFetch)))
	mux.Handle("GET /v1/internal/fetch/status", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetFetchStatus)))
}
