package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	idgen "github.com/soccerschedules/schedule-sync/internal/platform/id"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
	"github.com/soccerschedules/schedule-sync/internal/platform/resilience"
)

// SchedulerConfig tunes the fetch cadence and the retry budget.
type SchedulerConfig struct {
	// PreStartInterval applies while a tournament is idle: before the
	// day ahead of kickoff and after the final day has passed.
	PreStartInterval time.Duration
	// ActiveInterval applies from the day before the start date through
	// the end of the final day.
	ActiveInterval time.Duration
	SweepInterval  time.Duration
	FetchTimeout   time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	MaxConcurrent  int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.PreStartInterval <= 0 {
		c.PreStartInterval = 24 * time.Hour
	}
	if c.ActiveInterval <= 0 {
		c.ActiveInterval = time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Minute
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 2 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	return c
}

// TournamentFetchState is one row of the scheduler's status view.
type TournamentFetchState struct {
	TournamentID  string     `json:"tournament_id"`
	Name          string     `json:"name"`
	InFlight      bool       `json:"in_flight"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	NextFetchAt   *time.Time `json:"next_fetch_at,omitempty"`
	Interval      string     `json:"interval"`
}

// SchedulerService decides when each tournament is due for a fetch and
// drives the fetch/reconcile pipeline through a bounded worker pool.
// At most one fetch per tournament runs at a time; a trigger for a
// tournament already in flight is rejected, not queued.
type SchedulerService struct {
	cfg         SchedulerConfig
	tournaments tournament.Repository
	runs        fetchrun.Repository
	fetcher     TournamentFetcher
	reconciler  *ReconcileService
	seeding     *SeedingService
	guard       *resilience.InFlightGuard
	pool        *ants.Pool
	ids         idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewSchedulerService(
	cfg SchedulerConfig,
	tournaments tournament.Repository,
	runs fetchrun.Repository,
	fetcher TournamentFetcher,
	reconciler *ReconcileService,
	seedingSvc *SeedingService,
	logger *logging.Logger,
) (*SchedulerService, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(cfg.MaxConcurrent, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create fetch worker pool: %w", err)
	}

	return &SchedulerService{
		cfg:         cfg,
		tournaments: tournaments,
		runs:        runs,
		fetcher:     fetcher,
		reconciler:  reconciler,
		seeding:     seedingSvc,
		guard:       resilience.NewInFlightGuard(),
		pool:        pool,
		ids:         idgen.NewRandomGenerator(),
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (s *SchedulerService) Close() {
	s.pool.Release()
}

// Interval returns the fetch interval the tournament is entitled to at
// the given instant. The active window opens a full day before the
// start date and closes at the end of the final day, inclusive.
func (s *SchedulerService) Interval(t tournament.Tournament, now time.Time) time.Duration {
	if t.StartDate == nil || t.EndDate == nil {
		return s.cfg.PreStartInterval
	}

	activeFrom := t.StartDate.Add(-24 * time.Hour)
	if now.Before(activeFrom) {
		return s.cfg.PreStartInterval
	}
	if t.HasEnded(now) {
		return s.cfg.PreStartInterval
	}
	return s.cfg.ActiveInterval
}

// ShouldFetch reports whether the tournament's interval has elapsed. A
// tournament that has never been fetched is always due; one whose final
// day has passed is never due again, whatever its status says.
func (s *SchedulerService) ShouldFetch(t tournament.Tournament, now time.Time) bool {
	if !t.IsActive() {
		return false
	}
	if t.HasEnded(now) {
		return false
	}
	if t.LastFetchedAt == nil {
		return true
	}
	return now.Sub(*t.LastFetchedAt) >= s.Interval(t, now)
}

// NextFetchAt returns when the tournament becomes due, or nil for a
// tournament that has never been fetched (due immediately).
func (s *SchedulerService) NextFetchAt(t tournament.Tournament, now time.Time) *time.Time {
	if t.LastFetchedAt == nil {
		return nil
	}
	next := t.LastFetchedAt.Add(s.Interval(t, now))
	return &next
}

// TriggerFetch starts a fetch for the tournament on the worker pool.
// It returns ErrFetchInFlight when one is already running and does not
// wait for completion.
func (s *SchedulerService) TriggerFetch(ctx context.Context, tournamentID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.TriggerFetch")
	defer span.End()

	if tournamentID == "" {
		return fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}

	t, ok, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament=%s: %w", tournamentID, err)
	}
	if !ok {
		return fmt.Errorf("%w: tournament %s", ErrNotFound, tournamentID)
	}

	key := fetchKey(t.ID)
	if !s.guard.TryAcquire(key) {
		return fmt.Errorf("%w: tournament %s", ErrFetchInFlight, t.ID)
	}

	if err := s.pool.Submit(func() {
		defer s.guard.Release(key)

		runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
		defer cancel()
		s.executeFetch(runCtx, t)
	}); err != nil {
		s.guard.Release(key)
		return fmt.Errorf("%w: submit fetch for tournament=%s: %v", ErrDependencyUnavailable, t.ID, err)
	}

	return nil
}

// TriggerManual serves explicit fetch-now requests. Without force the
// cadence gate still applies and a tournament that is not yet due is
// skipped; force bypasses the gate but never the in-flight guard.
func (s *SchedulerService) TriggerManual(ctx context.Context, tournamentID string, force bool) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.TriggerManual")
	defer span.End()

	if !force {
		t, ok, err := s.tournaments.GetByID(ctx, tournamentID)
		if err != nil {
			return false, fmt.Errorf("get tournament=%s: %w", tournamentID, err)
		}
		if !ok {
			return false, fmt.Errorf("%w: tournament %s", ErrNotFound, tournamentID)
		}
		if !s.ShouldFetch(t, s.now().UTC()) {
			return false, nil
		}
	}

	if err := s.TriggerFetch(ctx, tournamentID); err != nil {
		return false, err
	}
	return true, nil
}

// RunDue sweeps active tournaments and triggers a fetch for each one
// whose interval has elapsed. It returns how many fetches started.
func (s *SchedulerService) RunDue(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.RunDue")
	defer span.End()

	active, err := s.tournaments.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active tournaments: %w", err)
	}

	now := s.now().UTC()
	triggered := 0
	for _, t := range active {
		if !s.ShouldFetch(t, now) {
			continue
		}
		switch err := s.TriggerFetch(ctx, t.ID); {
		case err == nil:
			triggered++
		case errors.Is(err, ErrFetchInFlight):
			// Fine: the previous fetch is still running.
		default:
			s.logger.WarnContext(ctx, "trigger fetch failed", "tournament_id", t.ID, "error", err)
		}
	}

	return triggered, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *SchedulerService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "sweep_interval", s.cfg.SweepInterval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if triggered, err := s.RunDue(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep failed", "error", err)
			} else if triggered > 0 {
				s.logger.InfoContext(ctx, "sweep triggered fetches", "count", triggered)
			}
		}
	}
}

// Status reports the cadence view for every active tournament.
func (s *SchedulerService) Status(ctx context.Context) ([]TournamentFetchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Status")
	defer span.End()

	active, err := s.tournaments.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tournaments: %w", err)
	}

	now := s.now().UTC()
	out := make([]TournamentFetchState, 0, len(active))
	for _, t := range active {
		out = append(out, TournamentFetchState{
			TournamentID:  t.ID,
			Name:          t.Name,
			InFlight:      s.guard.Held(fetchKey(t.ID)),
			LastFetchedAt: t.LastFetchedAt,
			NextFetchAt:   s.NextFetchAt(t, now),
			Interval:      s.Interval(t, now).String(),
		})
	}
	return out, nil
}

// executeFetch owns one ledger entry: begin, attempt with retries,
// finish with counts or the final error.
func (s *SchedulerService) executeFetch(ctx context.Context, t tournament.Tournament) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.executeFetch")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate run id failed", "tournament_id", t.ID, "error", err)
		return
	}

	run := fetchrun.FetchRun{
		ID:           runID,
		TournamentID: t.ID,
		Status:       fetchrun.StatusInProgress,
		StartedAt:    s.now().UTC(),
	}
	if err := s.runs.Begin(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "begin fetch run failed", "tournament_id", t.ID, "error", err)
		return
	}

	stats, attempts, fetchErr := s.fetchWithRetry(ctx, t)
	run.Attempts = attempts
	completedAt := s.now().UTC()
	run.CompletedAt = &completedAt

	if fetchErr != nil {
		run.Status = fetchrun.StatusFailed
		run.ErrorMessage = fetchErr.Error()
		if err := s.runs.Finish(ctx, run); err != nil {
			s.logger.ErrorContext(ctx, "finish fetch run failed", "run_id", run.ID, "error", err)
		}
		s.logger.WarnContext(ctx, "fetch failed",
			"tournament_id", t.ID, "attempts", attempts, "error", fetchErr)
		return
	}

	run.Status = fetchrun.StatusSuccess
	run.GamesSeen = stats.GamesSeen
	run.GamesCreated = stats.Created
	run.GamesUpdated = stats.Updated
	// Divisions that failed to scrape stay on the ledger row even though
	// the run as a whole succeeded.
	run.ErrorMessage = divisionErrorSummary(stats.DivisionErrors)
	if err := s.runs.Finish(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "finish fetch run failed", "run_id", run.ID, "error", err)
	}

	if err := s.tournaments.SetLastFetched(ctx, t.ID, completedAt); err != nil {
		s.logger.ErrorContext(ctx, "set last fetched failed", "tournament_id", t.ID, "error", err)
	}
	s.invalidateSeeding(ctx, t.ID)

	s.logger.InfoContext(ctx, "fetch succeeded",
		"tournament_id", t.ID,
		"attempts", attempts,
		"games_seen", stats.GamesSeen,
		"created", stats.Created,
		"updated", stats.Updated,
		"merged", stats.Merged,
	)
}

// fetchWithRetry retries transient failures with growing backoff.
// Structural failures and context cancellation stop immediately: a page
// whose layout changed will not heal on the next attempt.
func (s *SchedulerService) fetchWithRetry(ctx context.Context, t tournament.Tournament) (ReconcileStats, int, error) {
	var lastErr error

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * s.cfg.RetryBackoff
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ReconcileStats{}, attempt, fmt.Errorf("%w: %v", ErrFetchTransient, ctx.Err())
			case <-timer.C:
			}
		}

		snap, err := s.fetcher.FetchEvent(ctx, t.ExternalID)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrFetchStructural) || ctx.Err() != nil {
				return ReconcileStats{}, attempt + 1, err
			}
			continue
		}

		stats, err := s.reconciler.Reconcile(ctx, t, snap)
		if err != nil {
			// Storage trouble, not platform trouble: retrying the whole
			// fetch is still the right move.
			lastErr = fmt.Errorf("%w: %v", ErrFetchTransient, err)
			continue
		}
		return stats, attempt + 1, nil
	}

	return ReconcileStats{}, s.cfg.MaxRetries, lastErr
}

func (s *SchedulerService) invalidateSeeding(ctx context.Context, tournamentID string) {
	if s.seeding == nil {
		return
	}
	divisions, err := s.reconciler.store.ListDivisions(ctx, tournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "list divisions for cache invalidation failed",
			"tournament_id", tournamentID, "error", err)
		return
	}
	for _, div := range divisions {
		s.seeding.InvalidateDivision(ctx, div.ID)
	}
}

// divisionErrorSummary folds per-division scrape failures into a single
// line suitable for the run's error column.
func divisionErrorSummary(errs []DivisionError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, divErr := range errs {
		parts = append(parts, fmt.Sprintf("division %s: %v", divErr.DivisionName, divErr.Err))
	}
	return strings.Join(parts, "; ")
}

func fetchKey(tournamentID string) string {
	return "fetch:" + tournamentID
}
