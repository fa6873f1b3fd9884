package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
	qb "github.com/soccerschedules/schedule-sync/internal/platform/querybuilder"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

const gameUpsertSuffix = `ON CONFLICT (id)
DO UPDATE SET
    external_id = EXCLUDED.external_id,
    game_number = EXCLUDED.game_number,
    home_team_name = EXCLUDED.home_team_name,
    away_team_name = EXCLUDED.away_team_name,
    game_date = EXCLUDED.game_date,
    game_time = EXCLUDED.game_time,
    field_name = EXCLUDED.field_name,
    field_location = EXCLUDED.field_location,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    status = EXCLUDED.status,
    bracket = EXCLUDED.bracket,
    updated_at = EXCLUDED.updated_at`

// ScheduleRepository persists divisions and games. Apply runs a whole
// reconcile batch in one transaction so a failed fetch attempt never
// leaves a half-written schedule.
type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) LoadByTournament(ctx context.Context, tournamentID string) ([]division.Division, []game.Game, error) {
	divisions, err := r.ListDivisions(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if len(divisions) == 0 {
		return nil, nil, nil
	}

	divisionIDs := make([]any, 0, len(divisions))
	for _, div := range divisions {
		divisionIDs = append(divisionIDs, div.ID)
	}

	query, args, err := qb.Select("*").From("games").
		Where(
			qb.In("division_id", divisionIDs),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_date", "game_time", "game_number", "id").
		ToSQL()
	if err != nil {
		return nil, nil, fmt.Errorf("build load games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("load games tournament=%s: %w", tournamentID, err)
	}

	games := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		games = append(games, row.toDomain())
	}
	return divisions, games, nil
}

func (r *ScheduleRepository) Apply(ctx context.Context, tournamentID string, batch usecase.ScheduleBatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply schedule: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, div := range batch.CreatedDivisions {
		query, args, err := qb.InsertModel("divisions", divisionToInsertModel(div), "")
		if err != nil {
			return fmt.Errorf("build insert division query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert division id=%s: %w", div.ID, err)
		}
	}

	for _, div := range batch.UpdatedDivisions {
		query, args, err := qb.Update("divisions").
			Set("external_id", div.ExternalID).
			Set("name", div.Name).
			Set("age_group", div.AgeGroup).
			Set("gender", div.Gender).
			Set("updated_at", div.UpdatedAt).
			Where(
				qb.Eq("id", div.ID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update division query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update division id=%s: %w", div.ID, err)
		}
	}

	for _, item := range batch.CreatedGames {
		query, args, err := qb.InsertModel("games", gameToInsertModel(item), gameUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build insert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert game id=%s: %w", item.ID, err)
		}
	}

	for _, item := range batch.UpdatedGames {
		query, args, err := qb.Update("games").
			Set("external_id", item.ExternalID).
			Set("game_number", item.GameNumber).
			Set("home_team_name", item.HomeTeamName).
			Set("away_team_name", item.AwayTeamName).
			Set("game_date", item.GameDate).
			Set("game_time", item.GameTime).
			Set("field_name", item.FieldName).
			Set("field_location", item.FieldLoc).
			Set("home_score", item.HomeScore).
			Set("away_score", item.AwayScore).
			Set("status", item.Status).
			Set("bracket", item.Bracket).
			Set("updated_at", item.UpdatedAt).
			Where(
				qb.Eq("id", item.ID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update game id=%s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply schedule tx: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) ListDivisions(ctx context.Context, tournamentID string) ([]division.Division, error) {
	query, args, err := qb.Select("*").From("divisions").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list divisions query: %w", err)
	}

	var rows []divisionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list divisions tournament=%s: %w", tournamentID, err)
	}

	out := make([]division.Division, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScheduleRepository) GetDivision(ctx context.Context, divisionID string) (division.Division, bool, error) {
	query, args, err := qb.Select("*").From("divisions").
		Where(
			qb.Eq("id", divisionID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return division.Division{}, false, fmt.Errorf("build get division query: %w", err)
	}

	var row divisionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return division.Division{}, false, nil
		}
		return division.Division{}, false, fmt.Errorf("get division id=%s: %w", divisionID, err)
	}
	return row.toDomain(), true, nil
}

func (r *ScheduleRepository) ListGames(ctx context.Context, divisionID string) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("division_id", divisionID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_date", "game_time", "game_number", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games division=%s: %w", divisionID, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
