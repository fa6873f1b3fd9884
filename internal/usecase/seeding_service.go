package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/domain/seeding"
	"github.com/soccerschedules/schedule-sync/internal/platform/cache"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
)

const defaultTopRemaining = 4

// BracketStandings is the ranked table for one bracket plus whether
// every decidable game in it has finished.
type BracketStandings struct {
	Bracket  string          `json:"bracket"`
	Complete bool            `json:"complete"`
	Entries  []seeding.Entry `json:"entries"`
}

// SeedingService derives standings and seeding tables from stored games.
// Results are computed on read and cached; nothing here is persisted.
type SeedingService struct {
	store  ScheduleStore
	cache  *cache.Store
	topN   int
	logger *logging.Logger
}

func NewSeedingService(store ScheduleStore, cacheStore *cache.Store, topN int, logger *logging.Logger) *SeedingService {
	if topN <= 0 {
		topN = defaultTopRemaining
	}
	if cacheStore == nil {
		cacheStore = cache.NewStore(time.Minute)
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SeedingService{
		store:  store,
		cache:  cacheStore,
		topN:   topN,
		logger: logger,
	}
}

// Standings returns per-bracket tables for a division, ordered by
// bracket name so responses are stable.
func (s *SeedingService) Standings(ctx context.Context, divisionID string) ([]BracketStandings, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedingService.Standings")
	defer span.End()

	if divisionID == "" {
		return nil, fmt.Errorf("%w: division id is required", ErrInvalidInput)
	}

	value, err := s.cache.GetOrLoad(ctx, "standings:"+divisionID, func(ctx context.Context) (any, error) {
		return s.computeStandings(ctx, divisionID)
	})
	if err != nil {
		return nil, err
	}

	standings, ok := value.([]BracketStandings)
	if !ok {
		return nil, fmt.Errorf("unexpected cached standings type %T", value)
	}
	return standings, nil
}

// Seeding folds bracket standings into the seeding view: each finished
// bracket contributes its winner, and the best of everyone else competes
// for the remaining slots regardless of bracket.
func (s *SeedingService) Seeding(ctx context.Context, divisionID string) (seeding.Table, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedingService.Seeding")
	defer span.End()

	standings, err := s.Standings(ctx, divisionID)
	if err != nil {
		return seeding.Table{}, err
	}

	var winners, remaining []seeding.Entry
	for _, bracket := range standings {
		for i, entry := range bracket.Entries {
			if bracket.Complete && i == 0 {
				entry.BracketWinner = true
				winners = append(winners, entry)
				continue
			}
			remaining = append(remaining, entry)
		}
	}

	sort.SliceStable(winners, func(i, j int) bool { return seeding.Less(winners[i], winners[j]) })
	sort.SliceStable(remaining, func(i, j int) bool { return seeding.Less(remaining[i], remaining[j]) })
	if len(remaining) > s.topN {
		remaining = remaining[:s.topN]
	}

	for i := range winners {
		winners[i].Rank = i + 1
	}
	for i := range remaining {
		remaining[i].Rank = i + 1
	}

	return seeding.Table{BracketWinners: winners, TopRemaining: remaining}, nil
}

// InvalidateDivision drops cached tables after a reconcile touched the
// division's games.
func (s *SeedingService) InvalidateDivision(ctx context.Context, divisionID string) {
	s.cache.Delete(ctx, "standings:"+divisionID)
}

func (s *SeedingService) computeStandings(ctx context.Context, divisionID string) ([]BracketStandings, error) {
	if _, ok, err := s.store.GetDivision(ctx, divisionID); err != nil {
		return nil, fmt.Errorf("get division %s: %w", divisionID, err)
	} else if !ok {
		return nil, fmt.Errorf("%w: division %s", ErrNotFound, divisionID)
	}

	games, err := s.store.ListGames(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("list games division=%s: %w", divisionID, err)
	}

	type bracketState struct {
		entries   map[string]*seeding.Entry
		complete  bool
		decidable int
	}

	brackets := make(map[string]*bracketState)
	order := make([]string, 0, 4)

	state := func(name string) *bracketState {
		if existing, ok := brackets[name]; ok {
			return existing
		}
		created := &bracketState{entries: make(map[string]*seeding.Entry), complete: true}
		brackets[name] = created
		order = append(order, name)
		return created
	}

	for _, g := range games {
		// Games outside any bracket (crossovers, finals) feed no table.
		if g.Bracket == "" {
			continue
		}
		bracket := state(g.Bracket)

		// Cancelled games decide nothing and never block completeness.
		if g.Status == game.StatusCancelled {
			continue
		}
		bracket.decidable++
		if !g.IsCompleted() {
			bracket.complete = false
			continue
		}
		if !g.HasResult() || g.HomeTeamName == nil || g.AwayTeamName == nil {
			bracket.complete = false
			continue
		}
		home, away := *g.HomeTeamName, *g.AwayTeamName
		if game.IsPlaceholderTeam(home) || game.IsPlaceholderTeam(away) {
			continue
		}

		tally(bracket.entries, home, g.Bracket, *g.HomeScore, *g.AwayScore)
		tally(bracket.entries, away, g.Bracket, *g.AwayScore, *g.HomeScore)
	}

	out := make([]BracketStandings, 0, len(order))
	for _, name := range order {
		bracket := brackets[name]
		entries := make([]seeding.Entry, 0, len(bracket.entries))
		for _, entry := range bracket.entries {
			row := *entry
			row.GoalDifference = row.GoalsFor - row.GoalsAgainst
			row.Points = row.Wins*3 + row.Draws
			entries = append(entries, row)
		}
		sort.SliceStable(entries, func(i, j int) bool { return seeding.Less(entries[i], entries[j]) })
		for i := range entries {
			entries[i].Rank = i + 1
		}

		// A bracket with no decidable games has no table and no winner.
		complete := bracket.complete && bracket.decidable > 0 && len(entries) > 0
		out = append(out, BracketStandings{Bracket: name, Complete: complete, Entries: entries})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Bracket < out[j].Bracket })
	return out, nil
}

func tally(entries map[string]*seeding.Entry, team, bracket string, scored, conceded int) {
	entry, ok := entries[team]
	if !ok {
		entry = &seeding.Entry{TeamName: team, Bracket: bracket}
		entries[team] = entry
	}

	entry.Played++
	entry.GoalsFor += scored
	entry.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		entry.Wins++
	case scored == conceded:
		entry.Draws++
	default:
		entry.Losses++
	}
}
