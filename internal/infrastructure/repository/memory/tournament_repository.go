package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
)

type TournamentRepository struct {
	mu    sync.RWMutex
	items map[string]tournament.Tournament
}

func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{items: make(map[string]tournament.Tournament)}
}

func (r *TournamentRepository) List(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(tournament.Tournament) bool { return true }), nil
}

func (r *TournamentRepository) ListActive(_ context.Context) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(item tournament.Tournament) bool { return item.IsActive() }), nil
}

func (r *TournamentRepository) GetByID(_ context.Context, id string) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *TournamentRepository) GetByExternalID(_ context.Context, externalID string) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ExternalID == externalID {
			return item, true, nil
		}
	}
	return tournament.Tournament{}, false, nil
}

func (r *TournamentRepository) Create(_ context.Context, item tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *TournamentRepository) Update(_ context.Context, item tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("tournament %s not found", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *TournamentRepository) SetLastFetched(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("tournament %s not found", id)
	}
	item.LastFetchedAt = &at
	item.UpdatedAt = at
	r.items[id] = item
	return nil
}

func (r *TournamentRepository) sorted(keep func(tournament.Tournament) bool) []tournament.Tournament {
	out := make([]tournament.Tournament, 0, len(r.items))
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
