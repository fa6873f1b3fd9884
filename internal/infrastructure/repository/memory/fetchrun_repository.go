package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
)

type FetchRunRepository struct {
	mu   sync.RWMutex
	runs []fetchrun.FetchRun
}

func NewFetchRunRepository() *FetchRunRepository {
	return &FetchRunRepository{}
}

func (r *FetchRunRepository) Begin(_ context.Context, run fetchrun.FetchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, run)
	return nil
}

func (r *FetchRunRepository) Finish(_ context.Context, run fetchrun.FetchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = run
			return nil
		}
	}
	return fmt.Errorf("fetch run %s not found", run.ID)
}

func (r *FetchRunRepository) ListByTournament(_ context.Context, tournamentID string, limit int) ([]fetchrun.FetchRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fetchrun.FetchRun, 0, limit)
	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].TournamentID != tournamentID {
			continue
		}
		out = append(out, r.runs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
