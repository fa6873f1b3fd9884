package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

type ScheduleRepository struct {
	mu        sync.RWMutex
	divisions map[string]division.Division
	games     map[string]game.Game
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		divisions: make(map[string]division.Division),
		games:     make(map[string]game.Game),
	}
}

func (r *ScheduleRepository) LoadByTournament(_ context.Context, tournamentID string) ([]division.Division, []game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	divs := r.divisionsFor(tournamentID)
	games := make([]game.Game, 0)
	for _, d := range divs {
		games = append(games, r.gamesFor(d.ID)...)
	}
	return divs, games, nil
}

// Apply commits the whole batch under one lock so readers never observe a
// half-reconciled schedule.
func (r *ScheduleRepository) Apply(_ context.Context, _ string, batch usecase.ScheduleBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range batch.CreatedDivisions {
		r.divisions[d.ID] = d
	}
	for _, d := range batch.UpdatedDivisions {
		r.divisions[d.ID] = d
	}
	for _, g := range batch.CreatedGames {
		r.games[g.ID] = g
	}
	for _, g := range batch.UpdatedGames {
		r.games[g.ID] = g
	}
	return nil
}

func (r *ScheduleRepository) ListDivisions(_ context.Context, tournamentID string) ([]division.Division, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.divisionsFor(tournamentID), nil
}

func (r *ScheduleRepository) GetDivision(_ context.Context, divisionID string) (division.Division, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.divisions[divisionID]
	return d, ok, nil
}

func (r *ScheduleRepository) ListGames(_ context.Context, divisionID string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gamesFor(divisionID), nil
}

func (r *ScheduleRepository) divisionsFor(tournamentID string) []division.Division {
	out := make([]division.Division, 0)
	for _, d := range r.divisions {
		if d.TournamentID == tournamentID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *ScheduleRepository) gamesFor(divisionID string) []game.Game {
	out := make([]game.Game, 0)
	for _, g := range r.games {
		if g.DivisionID == divisionID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GameNumber != out[j].GameNumber {
			return out[i].GameNumber < out[j].GameNumber
		}
		return out[i].ID < out[j].ID
	})
	return out
}
