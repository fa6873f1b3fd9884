package postgres

import (
	"database/sql"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
)

type fetchRunTableModel struct {
	ID           string       `db:"id"`
	TournamentID string       `db:"tournament_id"`
	Status       string       `db:"status"`
	StartedAt    time.Time    `db:"started_at"`
	CompletedAt  sql.NullTime `db:"completed_at"`
	GamesSeen    int          `db:"games_seen"`
	GamesCreated int          `db:"games_created"`
	GamesUpdated int          `db:"games_updated"`
	Attempts     int          `db:"attempts"`
	ErrorMessage string       `db:"error_message"`
}

type fetchRunInsertModel struct {
	ID           string     `db:"id"`
	TournamentID string     `db:"tournament_id"`
	Status       string     `db:"status"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	GamesSeen    int        `db:"games_seen"`
	GamesCreated int        `db:"games_created"`
	GamesUpdated int        `db:"games_updated"`
	Attempts     int        `db:"attempts"`
	ErrorMessage string     `db:"error_message"`
}

func (m fetchRunTableModel) toDomain() fetchrun.FetchRun {
	return fetchrun.FetchRun{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		Status:       fetchrun.Status(m.Status),
		StartedAt:    m.StartedAt,
		CompletedAt:  nullTimeToTimePtr(m.CompletedAt),
		GamesSeen:    m.GamesSeen,
		GamesCreated: m.GamesCreated,
		GamesUpdated: m.GamesUpdated,
		Attempts:     m.Attempts,
		ErrorMessage: m.ErrorMessage,
	}
}
