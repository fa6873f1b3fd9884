package fetchrun

import "context"

// Repository records fetch attempts for observability and retry accounting.
type Repository interface {
	Begin(ctx context.Context, run FetchRun) error
	Finish(ctx context.Context, run FetchRun) error
	ListByTournament(ctx context.Context, tournamentID string, limit int) ([]FetchRun, error)
}
