package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
)

type stubScheduleStore struct {
	divisions []division.Division
	games     []game.Game

	loadErr  error
	applyErr error
	applied  []ScheduleBatch
}

func (s *stubScheduleStore) LoadByTournament(_ context.Context, _ string) ([]division.Division, []game.Game, error) {
	if s.loadErr != nil {
		return nil, nil, s.loadErr
	}
	divisions := append([]division.Division(nil), s.divisions...)
	games := append([]game.Game(nil), s.games...)
	return divisions, games, nil
}

func (s *stubScheduleStore) Apply(_ context.Context, _ string, batch ScheduleBatch) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, batch)
	s.divisions = append(s.divisions, batch.CreatedDivisions...)
	for _, div := range batch.UpdatedDivisions {
		for i := range s.divisions {
			if s.divisions[i].ID == div.ID {
				s.divisions[i] = div
			}
		}
	}
	s.games = append(s.games, batch.CreatedGames...)
	for _, g := range batch.UpdatedGames {
		for i := range s.games {
			if s.games[i].ID == g.ID {
				s.games[i] = g
			}
		}
	}
	return nil
}

func (s *stubScheduleStore) ListDivisions(_ context.Context, _ string) ([]division.Division, error) {
	return append([]division.Division(nil), s.divisions...), nil
}

func (s *stubScheduleStore) GetDivision(_ context.Context, id string) (division.Division, bool, error) {
	for _, d := range s.divisions {
		if d.ID == id {
			return d, true, nil
		}
	}
	return division.Division{}, false, nil
}

func (s *stubScheduleStore) ListGames(_ context.Context, divisionID string) ([]game.Game, error) {
	var out []game.Game
	for _, g := range s.games {
		if g.DivisionID == divisionID {
			out = append(out, g)
		}
	}
	return out, nil
}

type stubTournamentRepo struct {
	items   map[string]tournament.Tournament
	updates []tournament.Tournament
}

func newStubTournamentRepo(items ...tournament.Tournament) *stubTournamentRepo {
	repo := &stubTournamentRepo{items: make(map[string]tournament.Tournament)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *stubTournamentRepo) List(_ context.Context) ([]tournament.Tournament, error) {
	out := make([]tournament.Tournament, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *stubTournamentRepo) ListActive(ctx context.Context) ([]tournament.Tournament, error) {
	all, _ := r.List(ctx)
	var out []tournament.Tournament
	for _, item := range all {
		if item.IsActive() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *stubTournamentRepo) GetByID(_ context.Context, id string) (tournament.Tournament, bool, error) {
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *stubTournamentRepo) GetByExternalID(_ context.Context, externalID string) (tournament.Tournament, bool, error) {
	for _, item := range r.items {
		if item.ExternalID == externalID {
			return item, true, nil
		}
	}
	return tournament.Tournament{}, false, nil
}

func (r *stubTournamentRepo) Create(_ context.Context, item tournament.Tournament) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubTournamentRepo) Update(_ context.Context, item tournament.Tournament) error {
	r.items[item.ID] = item
	r.updates = append(r.updates, item)
	return nil
}

func (r *stubTournamentRepo) SetLastFetched(_ context.Context, id string, at time.Time) error {
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("tournament %s missing", id)
	}
	item.LastFetchedAt = &at
	r.items[id] = item
	return nil
}

type seqIDGenerator struct {
	prefix string
	next   int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next), nil
}

func strPtr(s string) *string        { return &s }
func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func newReconcileService(store ScheduleStore, repo tournament.Repository) *ReconcileService {
	svc := NewReconcileService(store, repo, &seqIDGenerator{prefix: "id"}, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestReconcileCreatesDivisionsAndGames(t *testing.T) {
	t.Parallel()

	store := &stubScheduleStore{}
	repo := newStubTournamentRepo(tournament.Tournament{ID: "t1", Name: "Spring Cup", Status: tournament.StatusActive})
	svc := newReconcileService(store, repo)

	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		EventName: "Spring Cup",
		Divisions: []DivisionSnapshot{
			{
				ExternalID: "d100",
				Name:       "Boys U12 Gold",
				AgeGroup:   "U12",
				Gender:     "Boys",
				Games: []RawGame{
					{
						ExternalID:   "g1",
						HomeTeamName: strPtr("Rapids"),
						AwayTeamName: strPtr("Strikers"),
						GameDate:     timePtr(date),
						GameTime:     "09:00",
						FieldName:    "Field 3",
					},
					{
						HomeTeamName: strPtr("United"),
						AwayTeamName: strPtr("Galaxy"),
						GameDate:     timePtr(date),
						GameTime:     "10:30",
					},
				},
			},
		},
	}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if stats.GamesSeen != 2 || stats.Created != 2 || stats.Updated != 0 || stats.Merged != 0 {
		t.Fatalf("stats = %+v, want 2 seen, 2 created", stats)
	}
	if len(store.applied) != 1 {
		t.Fatalf("applied %d batches, want 1", len(store.applied))
	}
	batch := store.applied[0]
	if len(batch.CreatedDivisions) != 1 || batch.CreatedDivisions[0].Name != "Boys U12 Gold" {
		t.Fatalf("created divisions = %+v", batch.CreatedDivisions)
	}
	if len(batch.CreatedGames) != 2 {
		t.Fatalf("created games = %d, want 2", len(batch.CreatedGames))
	}
	for _, g := range batch.CreatedGames {
		if g.DivisionID != batch.CreatedDivisions[0].ID {
			t.Fatalf("game %s not linked to created division", g.ID)
		}
		if g.Status != game.StatusScheduled {
			t.Fatalf("game %s status = %q, want scheduled", g.ID, g.Status)
		}
	}
}

func TestReconcileSameSnapshotTwiceWritesNothing(t *testing.T) {
	t.Parallel()

	store := &stubScheduleStore{}
	repo := newStubTournamentRepo(tournament.Tournament{ID: "t1", Status: tournament.StatusActive})
	svc := newReconcileService(store, repo)

	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			ExternalID: "d100",
			Name:       "Boys U12 Gold",
			Games: []RawGame{
				{
					ExternalID:   "g1",
					HomeTeamName: strPtr("Rapids"), AwayTeamName: strPtr("Strikers"),
					GameDate: timePtr(date), GameTime: "09:00",
					HomeScore: intPtr(2), AwayScore: intPtr(0),
					Status: "Final",
				},
				// No platform id: identity comes from the natural key.
				{
					HomeTeamName: strPtr("United"), AwayTeamName: strPtr("Galaxy"),
					GameDate: timePtr(date), GameTime: "10:30",
				},
			},
		}},
	}

	first, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if first.Created != 2 || first.Updated != 0 {
		t.Fatalf("first pass stats = %+v, want 2 created", first)
	}

	second, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Merged != 0 {
		t.Fatalf("second pass stats = %+v, want no writes", second)
	}
	if len(store.applied) != 1 {
		t.Fatalf("applied %d batches, want only the first pass to write", len(store.applied))
	}
	if len(store.games) != 2 || len(store.divisions) != 1 {
		t.Fatalf("store = %d divisions / %d games, want 1 / 2", len(store.divisions), len(store.games))
	}
}

func TestReconcileUpdatesOnlyChangedGames(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	store := &stubScheduleStore{
		divisions: []division.Division{{ID: "d1", TournamentID: "t1", ExternalID: "d100", Name: "Boys U12 Gold"}},
		games: []game.Game{
			{
				ID: "g-stored-1", DivisionID: "d1", ExternalID: "g1",
				HomeTeamName: strPtr("Rapids"), AwayTeamName: strPtr("Strikers"),
				GameDate: timePtr(date), GameTime: "09:00",
				Status: game.StatusScheduled,
			},
			{
				ID: "g-stored-2", DivisionID: "d1", ExternalID: "g2",
				HomeTeamName: strPtr("United"), AwayTeamName: strPtr("Galaxy"),
				GameDate: timePtr(date), GameTime: "10:30",
				Status: game.StatusScheduled,
			},
		},
	}
	repo := newStubTournamentRepo(tournament.Tournament{
		ID: "t1", Status: tournament.StatusActive,
		StartDate: timePtr(date), EndDate: timePtr(date),
	})
	svc := newReconcileService(store, repo)

	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			ExternalID: "d100",
			Name:       "Boys U12 Gold",
			Games: []RawGame{
				// Finished with a result: must update.
				{
					ExternalID: "g1",
					HomeScore:  intPtr(3), AwayScore: intPtr(1),
					Status: "Final",
				},
				// Identical to stored state: must not update.
				{
					ExternalID:   "g2",
					HomeTeamName: strPtr("United"), AwayTeamName: strPtr("Galaxy"),
					GameDate: timePtr(date), GameTime: "10:30",
				},
			},
		}},
	}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if stats.Created != 0 || stats.Updated != 1 {
		t.Fatalf("stats = %+v, want 0 created, 1 updated", stats)
	}

	batch := store.applied[0]
	if len(batch.UpdatedGames) != 1 {
		t.Fatalf("updated games = %d, want 1", len(batch.UpdatedGames))
	}
	updated := batch.UpdatedGames[0]
	if updated.ID != "g-stored-1" {
		t.Fatalf("updated game id = %s, want g-stored-1", updated.ID)
	}
	if updated.Status != game.StatusCompleted || updated.HomeScore == nil || *updated.HomeScore != 3 {
		t.Fatalf("updated game = %+v, want completed 3-1", updated)
	}
	if updated.HomeTeamName == nil || *updated.HomeTeamName != "Rapids" {
		t.Fatalf("stored team name was lost: %+v", updated.HomeTeamName)
	}
}

func TestReconcileMatchesByNaturalKeyAndBackfillsExternalID(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &stubScheduleStore{
		divisions: []division.Division{{ID: "d1", TournamentID: "t1", Name: "Girls U14 White"}},
		games: []game.Game{{
			ID: "g-stored-1", DivisionID: "d1",
			HomeTeamName: strPtr("Arsenal"), AwayTeamName: strPtr("Fury"),
			GameDate: timePtr(date), GameTime: "14:00",
			Status: game.StatusScheduled,
		}},
	}
	repo := newStubTournamentRepo(tournament.Tournament{
		ID: "t1", Status: tournament.StatusActive,
		StartDate: timePtr(date), EndDate: timePtr(date),
	})
	svc := newReconcileService(store, repo)

	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			Name: "Girls U14 White",
			Games: []RawGame{{
				ExternalID:   "g77",
				HomeTeamName: strPtr("Arsenal"), AwayTeamName: strPtr("Fury"),
				GameDate: timePtr(date), GameTime: "14:00",
			}},
		}},
	}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if stats.Created != 0 || stats.Updated != 1 {
		t.Fatalf("stats = %+v, want natural-key match with 1 update", stats)
	}
	updated := store.applied[0].UpdatedGames[0]
	if updated.ID != "g-stored-1" || updated.ExternalID != "g77" {
		t.Fatalf("updated = %+v, want backfilled external id g77", updated)
	}
}

func TestReconcileMergesInBatchDuplicates(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &stubScheduleStore{}
	repo := newStubTournamentRepo(tournament.Tournament{
		ID: "t1", Status: tournament.StatusActive,
		StartDate: timePtr(date), EndDate: timePtr(date),
	})
	svc := newReconcileService(store, repo)

	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			Name: "Boys U10",
			Games: []RawGame{
				{
					ExternalID:   "g5",
					HomeTeamName: strPtr("Dynamo"), AwayTeamName: strPtr("Thunder"),
					GameDate: timePtr(date), GameTime: "11:00",
				},
				// The platform repeats the row on a second page; the
				// duplicate carries the result.
				{
					ExternalID: "g5",
					HomeScore:  intPtr(2), AwayScore: intPtr(2),
					Status: "played",
				},
			},
		}},
	}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if stats.GamesSeen != 2 || stats.Created != 1 || stats.Merged != 1 || stats.Updated != 0 {
		t.Fatalf("stats = %+v, want 1 created and 1 merged", stats)
	}

	batch := store.applied[0]
	if len(batch.CreatedGames) != 1 || len(batch.UpdatedGames) != 0 {
		t.Fatalf("batch = %+v, want single merged create", batch)
	}
	created := batch.CreatedGames[0]
	if created.Status != game.StatusCompleted || created.HomeScore == nil || *created.HomeScore != 2 {
		t.Fatalf("merged game = %+v, want result folded into create", created)
	}
	if created.HomeTeamName == nil || *created.HomeTeamName != "Dynamo" {
		t.Fatalf("merged game lost team name: %+v", created)
	}
}

func TestReconcileNeverRegressesRealTeamNames(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &stubScheduleStore{
		divisions: []division.Division{{ID: "d1", TournamentID: "t1", Name: "Boys U16"}},
		games: []game.Game{{
			ID: "g-stored-1", DivisionID: "d1", ExternalID: "g9",
			HomeTeamName: strPtr("Sounders"), AwayTeamName: strPtr("TBD"),
			GameDate: timePtr(date), GameTime: "16:00",
			Status: game.StatusScheduled,
		}},
	}
	repo := newStubTournamentRepo(tournament.Tournament{
		ID: "t1", Status: tournament.StatusActive,
		StartDate: timePtr(date), EndDate: timePtr(date),
	})
	svc := newReconcileService(store, repo)

	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			Name: "Boys U16",
			Games: []RawGame{{
				ExternalID:   "g9",
				HomeTeamName: strPtr("TBD"),
				AwayTeamName: strPtr("Timbers"),
			}},
		}},
	}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if stats.Updated != 1 {
		t.Fatalf("stats = %+v, want 1 update for placeholder upgrade", stats)
	}

	updated := store.applied[0].UpdatedGames[0]
	if updated.HomeTeamName == nil || *updated.HomeTeamName != "Sounders" {
		t.Fatalf("home team regressed to placeholder: %+v", updated.HomeTeamName)
	}
	if updated.AwayTeamName == nil || *updated.AwayTeamName != "Timbers" {
		t.Fatalf("away placeholder not upgraded: %+v", updated.AwayTeamName)
	}
}

func TestReconcileLeavesAbsentGamesUntouched(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &stubScheduleStore{
		divisions: []division.Division{{ID: "d1", TournamentID: "t1", Name: "Boys U16"}},
		games: []game.Game{{
			ID: "g-stored-1", DivisionID: "d1", ExternalID: "g9",
			HomeTeamName: strPtr("Sounders"), AwayTeamName: strPtr("Timbers"),
			GameDate: timePtr(date), GameTime: "16:00",
			Status: game.StatusScheduled,
		}},
	}
	repo := newStubTournamentRepo(tournament.Tournament{
		ID: "t1", Status: tournament.StatusActive,
		StartDate: timePtr(date), EndDate: timePtr(date),
	})
	svc := newReconcileService(store, repo)

	// The snapshot no longer lists g9 at all.
	snap := Snapshot{Divisions: []DivisionSnapshot{{Name: "Boys U16"}}}

	stats, err := svc.Reconcile(context.Background(), repo.items["t1"], snap)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if stats.Created != 0 || stats.Updated != 0 {
		t.Fatalf("stats = %+v, want no writes", stats)
	}
	if len(store.applied) != 0 {
		t.Fatalf("applied %d batches, want none", len(store.applied))
	}
}

func TestReconcileDerivesTournamentDatesFromGames(t *testing.T) {
	t.Parallel()

	store := &stubScheduleStore{}
	repo := newStubTournamentRepo(tournament.Tournament{ID: "t1", Status: tournament.StatusActive})
	svc := newReconcileService(store, repo)

	first := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Divisions: []DivisionSnapshot{{
			Name: "Boys U11",
			Games: []RawGame{
				{ExternalID: "g1", HomeTeamName: strPtr("A"), AwayTeamName: strPtr("B"), GameDate: timePtr(last), GameTime: "09:00"},
				{ExternalID: "g2", HomeTeamName: strPtr("C"), AwayTeamName: strPtr("D"), GameDate: timePtr(first), GameTime: "09:00"},
			},
		}},
	}

	if _, err := svc.Reconcile(context.Background(), repo.items["t1"], snap); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	stored := repo.items["t1"]
	if stored.StartDate == nil || !stored.StartDate.Equal(first) {
		t.Fatalf("start date = %v, want %v", stored.StartDate, first)
	}
	if stored.EndDate == nil || !stored.EndDate.Equal(last) {
		t.Fatalf("end date = %v, want %v", stored.EndDate, last)
	}
}
