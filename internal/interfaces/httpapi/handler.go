package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/soccerschedules/schedule-sync/external/gotsport"
	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/domain/seeding"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

type Handler struct {
	tournamentService *usecase.TournamentService
	seedingService    *usecase.SeedingService
	scheduler         *usecase.SchedulerService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	tournamentService *usecase.TournamentService,
	seedingService *usecase.SeedingService,
	scheduler *usecase.SchedulerService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		tournamentService: tournamentService,
		seedingService:    seedingService,
		scheduler:         scheduler,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterTournament")
	defer span.End()

	var req registerTournamentRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		parsed, ok := gotsport.ParseEventID(req.URL)
		if !ok {
			writeError(ctx, w, fmt.Errorf("%w: url does not contain an event id", usecase.ErrInvalidInput))
			return
		}
		externalID = parsed
	}

	item, err := h.tournamentService.Register(ctx, usecase.RegisterTournamentInput{
		ExternalID: externalID,
		Name:       req.Name,
		Location:   req.Location,
		URL:        req.URL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register tournament failed", "external_id", externalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tournamentToDTO(item))
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	tournaments, err := h.tournamentService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]tournamentDTO, 0, len(tournaments))
	for _, t := range tournaments {
		items = append(items, tournamentToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournament")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	item, err := h.tournamentService.Get(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) ArchiveTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ArchiveTournament")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	item, err := h.tournamentService.Archive(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "archive tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) GetTournamentSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentSchedule")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	schedule, err := h.tournamentService.Schedule(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get schedule failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	divisions := make([]divisionScheduleDTO, 0, len(schedule.Divisions))
	for _, d := range schedule.Divisions {
		games := make([]gameDTO, 0, len(d.Games))
		for _, g := range d.Games {
			games = append(games, gameToDTO(g))
		}
		divisions = append(divisions, divisionScheduleDTO{
			Division: divisionToDTO(d.Division),
			Games:    games,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentScheduleDTO{
		Tournament: tournamentToDTO(schedule.Tournament),
		Divisions:  divisions,
	})
}

func (h *Handler) ListTournamentRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentRuns")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	runs, err := h.tournamentService.ListRuns(ctx, tournamentID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list fetch runs failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fetchRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, fetchRunToDTO(run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetDivisionStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDivisionStandings")
	defer span.End()

	divisionID := strings.TrimSpace(r.PathValue("divisionID"))
	standings, err := h.seedingService.Standings(ctx, divisionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "division_id", divisionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]bracketStandingsDTO, 0, len(standings))
	for _, bracket := range standings {
		items = append(items, bracketStandingsDTO{
			Bracket:  bracket.Bracket,
			Complete: bracket.Complete,
			Entries:  entriesToDTO(bracket.Entries),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetDivisionSeeding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDivisionSeeding")
	defer span.End()

	divisionID := strings.TrimSpace(r.PathValue("divisionID"))
	table, err := h.seedingService.Seeding(ctx, divisionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get seeding failed", "division_id", divisionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seedingTableDTO{
		BracketWinners: entriesToDTO(table.BracketWinners),
		TopRemaining:   entriesToDTO(table.TopRemaining),
	})
}

func (h *Handler) TriggerFetch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerFetch")
	defer span.End()

	var req triggerFetchRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := strings.TrimSpace(req.TournamentID)
	triggered, err := h.scheduler.TriggerManual(ctx, tournamentID, req.Force)
	if err != nil {
		h.logger.WarnContext(ctx, "trigger fetch failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !triggered {
		writeSuccess(ctx, w, http.StatusOK, map[string]string{
			"tournament_id": tournamentID,
			"status":        "not_due",
		})
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{
		"tournament_id": tournamentID,
		"status":        "accepted",
	})
}

func (h *Handler) GetFetchStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFetchStatus")
	defer span.End()

	states, err := h.scheduler.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "fetch status failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, states)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type registerTournamentRequest struct {
	ExternalID string `json:"external_id" validate:"required_without=URL,omitempty,numeric"`
	URL        string `json:"url" validate:"required_without=ExternalID,omitempty,url"`
	Name       string `json:"name" validate:"max=200"`
	Location   string `json:"location" validate:"max=200"`
}

type triggerFetchRequest struct {
	TournamentID string `json:"tournament_id" validate:"required"`
	Force        bool   `json:"force"`
}

type tournamentDTO struct {
	ID            string  `json:"id"`
	ExternalID    string  `json:"external_id"`
	Name          string  `json:"name"`
	Location      string  `json:"location,omitempty"`
	URL           string  `json:"url"`
	Status        string  `json:"status"`
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	LastFetchedAt *string `json:"last_fetched_at,omitempty"`
	CreatedAtUTC  string  `json:"created_at_utc"`
	UpdatedAtUTC  string  `json:"updated_at_utc"`
}

type divisionDTO struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	AgeGroup   string `json:"age_group,omitempty"`
	Gender     string `json:"gender,omitempty"`
}

type gameDTO struct {
	ID         string  `json:"id"`
	ExternalID string  `json:"external_id,omitempty"`
	GameNumber string  `json:"game_number,omitempty"`
	HomeTeam   *string `json:"home_team"`
	AwayTeam   *string `json:"away_team"`
	GameDate   *string `json:"game_date,omitempty"`
	GameTime   string  `json:"game_time,omitempty"`
	FieldName  string  `json:"field_name,omitempty"`
	FieldLoc   string  `json:"field_location,omitempty"`
	HomeScore  *int    `json:"home_score"`
	AwayScore  *int    `json:"away_score"`
	Status     string  `json:"status"`
	Bracket    string  `json:"bracket,omitempty"`
}

type divisionScheduleDTO struct {
	Division divisionDTO `json:"division"`
	Games    []gameDTO   `json:"games"`
}

type tournamentScheduleDTO struct {
	Tournament tournamentDTO         `json:"tournament"`
	Divisions  []divisionScheduleDTO `json:"divisions"`
}

type fetchRunDTO struct {
	ID             string  `json:"id"`
	TournamentID   string  `json:"tournament_id"`
	Status         string  `json:"status"`
	StartedAtUTC   string  `json:"started_at_utc"`
	CompletedAtUTC *string `json:"completed_at_utc,omitempty"`
	GamesSeen      int     `json:"games_seen"`
	GamesCreated   int     `json:"games_created"`
	GamesUpdated   int     `json:"games_updated"`
	Attempts       int     `json:"attempts"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

type bracketStandingsDTO struct {
	Bracket  string             `json:"bracket"`
	Complete bool               `json:"complete"`
	Entries  []standingEntryDTO `json:"entries"`
}

type seedingTableDTO struct {
	BracketWinners []standingEntryDTO `json:"bracket_winners"`
	TopRemaining   []standingEntryDTO `json:"top_remaining"`
}

type standingEntryDTO struct {
	Rank           int    `json:"rank"`
	TeamName       string `json:"team_name"`
	Bracket        string `json:"bracket,omitempty"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
	BracketWinner  bool   `json:"bracket_winner"`
}

func tournamentToDTO(v tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:            v.ID,
		ExternalID:    v.ExternalID,
		Name:          v.Name,
		Location:      v.Location,
		URL:           v.URL,
		Status:        v.Status,
		StartDate:     formatDatePtr(v.StartDate),
		EndDate:       formatDatePtr(v.EndDate),
		LastFetchedAt: formatTimePtr(v.LastFetchedAt),
		CreatedAtUTC:  v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:  v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func divisionToDTO(v division.Division) divisionDTO {
	return divisionDTO{
		ID:         v.ID,
		ExternalID: v.ExternalID,
		Name:       v.Name,
		AgeGroup:   v.AgeGroup,
		Gender:     v.Gender,
	}
}

func gameToDTO(v game.Game) gameDTO {
	return gameDTO{
		ID:         v.ID,
		ExternalID: v.ExternalID,
		GameNumber: v.GameNumber,
		HomeTeam:   v.HomeTeamName,
		AwayTeam:   v.AwayTeamName,
		GameDate:   formatDatePtr(v.GameDate),
		GameTime:   v.GameTime,
		FieldName:  v.FieldName,
		FieldLoc:   v.FieldLoc,
		HomeScore:  v.HomeScore,
		AwayScore:  v.AwayScore,
		Status:     v.Status,
		Bracket:    v.Bracket,
	}
}

func fetchRunToDTO(v fetchrun.FetchRun) fetchRunDTO {
	return fetchRunDTO{
		ID:             v.ID,
		TournamentID:   v.TournamentID,
		Status:         string(v.Status),
		StartedAtUTC:   v.StartedAt.UTC().Format(time.RFC3339),
		CompletedAtUTC: formatTimePtr(v.CompletedAt),
		GamesSeen:      v.GamesSeen,
		GamesCreated:   v.GamesCreated,
		GamesUpdated:   v.GamesUpdated,
		Attempts:       v.Attempts,
		ErrorMessage:   v.ErrorMessage,
	}
}

func entriesToDTO(entries []seeding.Entry) []standingEntryDTO {
	out := make([]standingEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, standingEntryDTO{
			Rank:           entry.Rank,
			TeamName:       entry.TeamName,
			Bracket:        entry.Bracket,
			Played:         entry.Played,
			Wins:           entry.Wins,
			Draws:          entry.Draws,
			Losses:         entry.Losses,
			GoalsFor:       entry.GoalsFor,
			GoalsAgainst:   entry.GoalsAgainst,
			GoalDifference: entry.GoalDifference,
			Points:         entry.Points,
			BracketWinner:  entry.BracketWinner,
		})
	}
	return out
}

func formatDatePtr(v *time.Time) *string {
	if v == nil {
		return nil
	}
	formatted := v.UTC().Format("2006-01-02")
	return &formatted
}

func formatTimePtr(v *time.Time) *string {
	if v == nil {
		return nil
	}
	formatted := v.UTC().Format(time.RFC3339)
	return &formatted
}
