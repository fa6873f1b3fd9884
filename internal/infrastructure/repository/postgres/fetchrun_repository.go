package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
	qb "github.com/soccerschedules/schedule-sync/internal/platform/querybuilder"
)

// FetchRunRepository stores the append-only fetch ledger.
type FetchRunRepository struct {
	db *sqlx.DB
}

func NewFetchRunRepository(db *sqlx.DB) *FetchRunRepository {
	return &FetchRunRepository{db: db}
}

func (r *FetchRunRepository) Begin(ctx context.Context, run fetchrun.FetchRun) error {
	model := fetchRunInsertModel{
		ID:           run.ID,
		TournamentID: run.TournamentID,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
		GamesSeen:    run.GamesSeen,
		GamesCreated: run.GamesCreated,
		GamesUpdated: run.GamesUpdated,
		Attempts:     run.Attempts,
		ErrorMessage: run.ErrorMessage,
	}
	query, args, err := qb.InsertModel("fetch_runs", model, "")
	if err != nil {
		return fmt.Errorf("build insert fetch run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fetch run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *FetchRunRepository) Finish(ctx context.Context, run fetchrun.FetchRun) error {
	query, args, err := qb.Update("fetch_runs").
		Set("status", string(run.Status)).
		Set("completed_at", run.CompletedAt).
		Set("games_seen", run.GamesSeen).
		Set("games_created", run.GamesCreated).
		Set("games_updated", run.GamesUpdated).
		Set("attempts", run.Attempts).
		Set("error_message", run.ErrorMessage).
		Where(qb.Eq("id", run.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish fetch run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish fetch run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *FetchRunRepository) ListByTournament(ctx context.Context, tournamentID string, limit int) ([]fetchrun.FetchRun, error) {
	query, args, err := qb.Select("*").From("fetch_runs").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fetch runs query: %w", err)
	}

	var rows []fetchRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fetch runs tournament=%s: %w", tournamentID, err)
	}

	out := make([]fetchrun.FetchRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
