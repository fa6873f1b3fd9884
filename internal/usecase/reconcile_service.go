package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	idgen "github.com/soccerschedules/schedule-sync/internal/platform/id"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
)

// ScheduleBatch carries every create and update produced by one
// reconcile pass. Apply is all-or-nothing: a failed attempt never leaves
// a partial write behind.
type ScheduleBatch struct {
	CreatedDivisions []division.Division
	UpdatedDivisions []division.Division
	CreatedGames     []game.Game
	UpdatedGames     []game.Game
}

func (b ScheduleBatch) IsEmpty() bool {
	return len(b.CreatedDivisions) == 0 && len(b.UpdatedDivisions) == 0 &&
		len(b.CreatedGames) == 0 && len(b.UpdatedGames) == 0
}

// ScheduleStore is the storage boundary for reconciled schedule data:
// bulk read by tournament plus one transactional batch write.
type ScheduleStore interface {
	LoadByTournament(ctx context.Context, tournamentID string) ([]division.Division, []game.Game, error)
	Apply(ctx context.Context, tournamentID string, batch ScheduleBatch) error
	ListDivisions(ctx context.Context, tournamentID string) ([]division.Division, error)
	GetDivision(ctx context.Context, divisionID string) (division.Division, bool, error)
	ListGames(ctx context.Context, divisionID string) ([]game.Game, error)
}

// ReconcileStats is the per-attempt outcome handed to the run ledger.
type ReconcileStats struct {
	DivisionsSeen  int
	GamesSeen      int
	Created        int
	Updated        int
	Merged         int
	DivisionErrors []DivisionError
}

type ReconcileService struct {
	store          ScheduleStore
	tournamentRepo tournament.Repository
	ids            idgen.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewReconcileService(
	store ScheduleStore,
	tournamentRepo tournament.Repository,
	ids idgen.Generator,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}

	return &ReconcileService{
		store:          store,
		tournamentRepo: tournamentRepo,
		ids:            ids,
		logger:         logger,
		now:            time.Now,
	}
}

type naturalKeyIndex struct {
	divisionID string
	key        game.NaturalKey
}

// Reconcile resolves a snapshot against stored state and applies at most
// one create or update per logical record. Stored games absent from the
// snapshot are left untouched; removal is an administrative operation,
// never an ingestion side effect.
func (s *ReconcileService) Reconcile(ctx context.Context, t tournament.Tournament, snap Snapshot) (ReconcileStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	stats := ReconcileStats{DivisionErrors: snap.DivisionErrors}

	storedDivisions, storedGames, err := s.store.LoadByTournament(ctx, t.ID)
	if err != nil {
		return ReconcileStats{}, fmt.Errorf("load schedule for tournament=%s: %w", t.ID, err)
	}

	// One-shot index build; both maps are mutated as new records are
	// created so later duplicates inside the same snapshot resolve
	// against rows created earlier in this run.
	gamesByExternal := make(map[string]*game.Game, len(storedGames))
	gamesByNatural := make(map[naturalKeyIndex]*game.Game, len(storedGames))
	gameRows := make([]*game.Game, 0, len(storedGames))
	for i := range storedGames {
		row := &storedGames[i]
		gameRows = append(gameRows, row)
		if row.ExternalID != "" {
			gamesByExternal[row.ExternalID] = row
		}
		if key := row.NaturalKey(); key.IsComplete() {
			gamesByNatural[naturalKeyIndex{divisionID: row.DivisionID, key: key}] = row
		}
	}

	var batch ScheduleBatch
	dirtyGames := make(map[*game.Game]bool, 16)
	createdGames := make(map[*game.Game]bool, 16)
	now := s.now().UTC()

	for _, rawDiv := range snap.Divisions {
		name := strings.TrimSpace(rawDiv.Name)
		if name == "" {
			continue
		}
		stats.DivisionsSeen++

		div, created, err := s.resolveDivision(&batch, storedDivisions, t.ID, rawDiv, now)
		if err != nil {
			return ReconcileStats{}, err
		}
		if created {
			storedDivisions = append(storedDivisions, div)
		}

		for _, raw := range rawDiv.Games {
			stats.GamesSeen++

			match := s.resolveGame(gamesByExternal, gamesByNatural, div.ID, raw)
			if match == nil {
				built, err := s.buildGame(div.ID, raw, now)
				if err != nil {
					return ReconcileStats{}, err
				}
				row := &built
				gameRows = append(gameRows, row)
				createdGames[row] = true
				stats.Created++
				if row.ExternalID != "" {
					gamesByExternal[row.ExternalID] = row
				}
				if key := row.NaturalKey(); key.IsComplete() {
					gamesByNatural[naturalKeyIndex{divisionID: div.ID, key: key}] = row
				}
				continue
			}

			changed := applyRawGame(match, raw, now)
			switch {
			case createdGames[match]:
				// Second occurrence of the same identity inside this
				// snapshot: fold into the earlier create.
				stats.Merged++
			case changed && !dirtyGames[match]:
				dirtyGames[match] = true
				stats.Updated++
			case changed:
				// Already counted as updated this run.
			}
			// A matched record may have gained an external id or a real
			// pairing; keep the indexes current.
			if match.ExternalID != "" {
				gamesByExternal[match.ExternalID] = match
			}
			if key := match.NaturalKey(); key.IsComplete() {
				gamesByNatural[naturalKeyIndex{divisionID: match.DivisionID, key: key}] = match
			}
		}
	}

	for _, row := range gameRows {
		switch {
		case createdGames[row]:
			batch.CreatedGames = append(batch.CreatedGames, *row)
		case dirtyGames[row]:
			batch.UpdatedGames = append(batch.UpdatedGames, *row)
		}
	}

	if !batch.IsEmpty() {
		if err := s.store.Apply(ctx, t.ID, batch); err != nil {
			return ReconcileStats{}, fmt.Errorf("apply schedule batch tournament=%s: %w", t.ID, err)
		}
	}

	if err := s.refreshTournamentDates(ctx, t, snap, gameRows, now); err != nil {
		s.logger.WarnContext(ctx, "refresh tournament dates failed", "tournament_id", t.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "reconcile finished",
		"tournament_id", t.ID,
		"divisions_seen", stats.DivisionsSeen,
		"games_seen", stats.GamesSeen,
		"created", stats.Created,
		"updated", stats.Updated,
		"merged", stats.Merged,
		"division_errors", len(stats.DivisionErrors),
	)

	return stats, nil
}

func (s *ReconcileService) resolveDivision(
	batch *ScheduleBatch,
	stored []division.Division,
	tournamentID string,
	raw DivisionSnapshot,
	now time.Time,
) (division.Division, bool, error) {
	externalID := strings.TrimSpace(raw.ExternalID)
	name := strings.TrimSpace(raw.Name)

	for i := range stored {
		if !stored[i].Matches(externalID, name) {
			continue
		}
		div := stored[i]
		changed := false
		if name != "" && div.Name != name {
			div.Name = name
			changed = true
		}
		if ageGroup := strings.TrimSpace(raw.AgeGroup); ageGroup != "" && div.AgeGroup != ageGroup {
			div.AgeGroup = ageGroup
			changed = true
		}
		if gender := strings.TrimSpace(raw.Gender); gender != "" && div.Gender != gender {
			div.Gender = gender
			changed = true
		}
		if externalID != "" && div.ExternalID == "" {
			div.ExternalID = externalID
			changed = true
		}
		if changed {
			div.UpdatedAt = now
			batch.UpdatedDivisions = append(batch.UpdatedDivisions, div)
			stored[i] = div
		}
		return div, false, nil
	}

	id, err := s.ids.NewID()
	if err != nil {
		return division.Division{}, false, fmt.Errorf("generate division id: %w", err)
	}
	div := division.Division{
		ID:           id,
		TournamentID: tournamentID,
		ExternalID:   externalID,
		Name:         name,
		AgeGroup:     strings.TrimSpace(raw.AgeGroup),
		Gender:       strings.TrimSpace(raw.Gender),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	batch.CreatedDivisions = append(batch.CreatedDivisions, div)
	return div, true, nil
}

// resolveGame applies the identity rule: external id first, then the
// natural key within the division.
func (s *ReconcileService) resolveGame(
	byExternal map[string]*game.Game,
	byNatural map[naturalKeyIndex]*game.Game,
	divisionID string,
	raw RawGame,
) *game.Game {
	if externalID := strings.TrimSpace(raw.ExternalID); externalID != "" {
		if match, ok := byExternal[externalID]; ok {
			return match
		}
	}

	key := rawNaturalKey(raw)
	if !key.IsComplete() {
		return nil
	}
	return byNatural[naturalKeyIndex{divisionID: divisionID, key: key}]
}

func (s *ReconcileService) buildGame(divisionID string, raw RawGame, now time.Time) (game.Game, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return game.Game{}, fmt.Errorf("generate game id: %w", err)
	}

	return game.Game{
		ID:           id,
		DivisionID:   divisionID,
		ExternalID:   strings.TrimSpace(raw.ExternalID),
		GameNumber:   strings.TrimSpace(raw.GameNumber),
		HomeTeamName: trimmedStringPtr(raw.HomeTeamName),
		AwayTeamName: trimmedStringPtr(raw.AwayTeamName),
		GameDate:     raw.GameDate,
		GameTime:     strings.TrimSpace(raw.GameTime),
		FieldName:    strings.TrimSpace(raw.FieldName),
		FieldLoc:     strings.TrimSpace(raw.FieldLoc),
		HomeScore:    raw.HomeScore,
		AwayScore:    raw.AwayScore,
		Status:       game.NormalizeStatus(raw.Status),
		Bracket:      strings.TrimSpace(raw.Bracket),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// applyRawGame copies incoming values onto a matched record and reports
// whether anything observable changed. Empty scraped values never clear
// stored data, and placeholder team names never replace real ones.
func applyRawGame(dst *game.Game, raw RawGame, now time.Time) bool {
	changed := false

	if externalID := strings.TrimSpace(raw.ExternalID); externalID != "" && dst.ExternalID != externalID {
		dst.ExternalID = externalID
		changed = true
	}
	if number := strings.TrimSpace(raw.GameNumber); number != "" && dst.GameNumber != number {
		dst.GameNumber = number
		changed = true
	}
	if applyTeamName(&dst.HomeTeamName, raw.HomeTeamName) {
		changed = true
	}
	if applyTeamName(&dst.AwayTeamName, raw.AwayTeamName) {
		changed = true
	}
	if raw.GameDate != nil && !equalTimePtr(dst.GameDate, raw.GameDate) {
		dst.GameDate = raw.GameDate
		changed = true
	}
	if gameTime := strings.TrimSpace(raw.GameTime); gameTime != "" && dst.GameTime != gameTime {
		dst.GameTime = gameTime
		changed = true
	}
	if field := strings.TrimSpace(raw.FieldName); field != "" && dst.FieldName != field {
		dst.FieldName = field
		changed = true
	}
	if loc := strings.TrimSpace(raw.FieldLoc); loc != "" && dst.FieldLoc != loc {
		dst.FieldLoc = loc
		changed = true
	}
	if raw.HomeScore != nil && !equalIntPtr(dst.HomeScore, raw.HomeScore) {
		dst.HomeScore = raw.HomeScore
		changed = true
	}
	if raw.AwayScore != nil && !equalIntPtr(dst.AwayScore, raw.AwayScore) {
		dst.AwayScore = raw.AwayScore
		changed = true
	}
	if status := strings.TrimSpace(raw.Status); status != "" {
		if normalized := game.NormalizeStatus(status); dst.Status != normalized {
			dst.Status = normalized
			changed = true
		}
	}
	if bracket := strings.TrimSpace(raw.Bracket); bracket != "" && dst.Bracket != bracket {
		dst.Bracket = bracket
		changed = true
	}

	if changed {
		dst.UpdatedAt = now
	}
	return changed
}

// refreshTournamentDates derives start/end dates from game dates when the
// tournament did not carry them yet. Dates rarely move after the first
// successful fetch, so already-set dates are left alone.
func (s *ReconcileService) refreshTournamentDates(
	ctx context.Context,
	t tournament.Tournament,
	snap Snapshot,
	rows []*game.Game,
	now time.Time,
) error {
	if s.tournamentRepo == nil {
		return nil
	}

	changed := false
	if name := strings.TrimSpace(snap.EventName); name != "" && t.Name != name {
		t.Name = name
		changed = true
	}
	if loc := strings.TrimSpace(snap.Location); loc != "" && t.Location != loc {
		t.Location = loc
		changed = true
	}
	if snap.StartDate != nil && t.StartDate == nil {
		t.StartDate = snap.StartDate
		changed = true
	}
	if snap.EndDate != nil && t.EndDate == nil {
		t.EndDate = snap.EndDate
		changed = true
	}

	if t.StartDate == nil || t.EndDate == nil {
		var minDate, maxDate *time.Time
		for _, row := range rows {
			if row.GameDate == nil {
				continue
			}
			if minDate == nil || row.GameDate.Before(*minDate) {
				minDate = row.GameDate
			}
			if maxDate == nil || row.GameDate.After(*maxDate) {
				maxDate = row.GameDate
			}
		}
		if t.StartDate == nil && minDate != nil {
			t.StartDate = minDate
			changed = true
		}
		if t.EndDate == nil && maxDate != nil {
			t.EndDate = maxDate
			changed = true
		}
	}

	if !changed {
		return nil
	}

	t.UpdatedAt = now
	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("update tournament=%s: %w", t.ID, err)
	}
	return nil
}

func rawNaturalKey(raw RawGame) game.NaturalKey {
	key := game.NaturalKey{Time: strings.TrimSpace(raw.GameTime)}
	if raw.HomeTeamName != nil {
		key.HomeTeam = strings.TrimSpace(*raw.HomeTeamName)
	}
	if raw.AwayTeamName != nil {
		key.AwayTeam = strings.TrimSpace(*raw.AwayTeamName)
	}
	if raw.GameDate != nil {
		key.Date = raw.GameDate.UTC().Format("2006-01-02")
	}
	return key
}

// applyTeamName upgrades placeholders to real names but never the other
// way around: "TBD" from a later scrape must not erase a decided pairing.
func applyTeamName(dst **string, incoming *string) bool {
	if incoming == nil {
		return false
	}
	name := strings.TrimSpace(*incoming)
	if name == "" {
		return false
	}
	current := ""
	if *dst != nil {
		current = *(*dst)
	}
	if current == name {
		return false
	}
	if game.IsPlaceholderTeam(name) && current != "" && !game.IsPlaceholderTeam(current) {
		return false
	}
	*dst = &name
	return true
}

func trimmedStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
