package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	idgen "github.com/soccerschedules/schedule-sync/internal/platform/id"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
)

const defaultRunHistoryLimit = 20

// RegisterTournamentInput carries what the caller knows up front. Name,
// dates and divisions are filled by the first fetch.
type RegisterTournamentInput struct {
	ExternalID string
	Name       string
	Location   string
	URL        string
}

// DivisionSchedule is one division with its games, ordered by date.
type DivisionSchedule struct {
	Division division.Division `json:"division"`
	Games    []game.Game       `json:"games"`
}

// TournamentSchedule is the full read view of a tournament.
type TournamentSchedule struct {
	Tournament tournament.Tournament `json:"tournament"`
	Divisions  []DivisionSchedule    `json:"divisions"`
}

// FetchTrigger starts a fetch without waiting for it. Satisfied by the
// scheduler; split out so registration does not depend on the whole
// scheduling surface.
type FetchTrigger interface {
	TriggerFetch(ctx context.Context, tournamentID string) error
}

type TournamentService struct {
	tournaments tournament.Repository
	store       ScheduleStore
	runs        fetchrun.Repository
	trigger     FetchTrigger
	ids         idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewTournamentService(
	tournaments tournament.Repository,
	store ScheduleStore,
	runs fetchrun.Repository,
	trigger FetchTrigger,
	logger *logging.Logger,
) *TournamentService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TournamentService{
		tournaments: tournaments,
		store:       store,
		runs:        runs,
		trigger:     trigger,
		ids:         idgen.NewRandomGenerator(),
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a tournament and kicks off its first fetch.
// Registering an external id that already exists returns the existing
// tournament unchanged, so clients can re-post safely.
func (s *TournamentService) Register(ctx context.Context, input RegisterTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Register")
	defer span.End()

	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}

	existing, found, err := s.tournaments.GetByExternalID(ctx, externalID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("lookup tournament external_id=%s: %w", externalID, err)
	}
	if found {
		return existing, nil
	}

	id, err := s.ids.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("generate tournament id: %w", err)
	}

	now := s.now().UTC()
	item := tournament.Tournament{
		ID:         id,
		ExternalID: externalID,
		Name:       strings.TrimSpace(input.Name),
		Location:   strings.TrimSpace(input.Location),
		URL:        strings.TrimSpace(input.URL),
		Status:     tournament.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if item.Name == "" {
		item.Name = "Tournament " + externalID
	}
	if err := item.Validate(); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.tournaments.Create(ctx, item); err != nil {
		return tournament.Tournament{}, fmt.Errorf("create tournament external_id=%s: %w", externalID, err)
	}
	s.logger.InfoContext(ctx, "tournament registered", "tournament_id", item.ID, "external_id", externalID)

	if s.trigger != nil {
		if err := s.trigger.TriggerFetch(ctx, item.ID); err != nil && !errors.Is(err, ErrFetchInFlight) {
			s.logger.WarnContext(ctx, "initial fetch trigger failed", "tournament_id", item.ID, "error", err)
		}
	}

	return item, nil
}

func (s *TournamentService) Get(ctx context.Context, id string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Get")
	defer span.End()

	if id == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	item, found, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament=%s: %w", id, err)
	}
	if !found {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament %s", ErrNotFound, id)
	}
	return item, nil
}

func (s *TournamentService) List(ctx context.Context) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.List")
	defer span.End()

	items, err := s.tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return items, nil
}

// Archive takes a tournament out of the fetch rotation. Its schedule
// stays readable.
func (s *TournamentService) Archive(ctx context.Context, id string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Archive")
	defer span.End()

	item, err := s.Get(ctx, id)
	if err != nil {
		return tournament.Tournament{}, err
	}
	if item.Status == tournament.StatusArchived {
		return item, nil
	}

	item.Status = tournament.StatusArchived
	item.UpdatedAt = s.now().UTC()
	if err := s.tournaments.Update(ctx, item); err != nil {
		return tournament.Tournament{}, fmt.Errorf("archive tournament=%s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "tournament archived", "tournament_id", id)
	return item, nil
}

func (s *TournamentService) ListRuns(ctx context.Context, id string, limit int) ([]fetchrun.FetchRun, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ListRuns")
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRunHistoryLimit
	}
	runs, err := s.runs.ListByTournament(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs tournament=%s: %w", id, err)
	}
	return runs, nil
}

// Schedule returns the tournament with every division and its games.
func (s *TournamentService) Schedule(ctx context.Context, id string) (TournamentSchedule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Schedule")
	defer span.End()

	item, err := s.Get(ctx, id)
	if err != nil {
		return TournamentSchedule{}, err
	}

	divisions, games, err := s.store.LoadByTournament(ctx, id)
	if err != nil {
		return TournamentSchedule{}, fmt.Errorf("load schedule tournament=%s: %w", id, err)
	}

	byDivision := make(map[string][]game.Game, len(divisions))
	for _, g := range games {
		byDivision[g.DivisionID] = append(byDivision[g.DivisionID], g)
	}

	out := TournamentSchedule{
		Tournament: item,
		Divisions:  make([]DivisionSchedule, 0, len(divisions)),
	}
	for _, div := range divisions {
		rows := byDivision[div.ID]
		sortGames(rows)
		out.Divisions = append(out.Divisions, DivisionSchedule{Division: div, Games: rows})
	}
	return out, nil
}

// sortGames orders rows by date, kickoff time, then game number.
// Undated games go last.
func sortGames(rows []game.Game) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.GameDate == nil && b.GameDate != nil:
			return false
		case a.GameDate != nil && b.GameDate == nil:
			return true
		case a.GameDate != nil && b.GameDate != nil && !a.GameDate.Equal(*b.GameDate):
			return a.GameDate.Before(*b.GameDate)
		}
		if a.GameTime != b.GameTime {
			return a.GameTime < b.GameTime
		}
		return a.GameNumber < b.GameNumber
	})
}
