package postgres

import (
	"database/sql"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID            string       `db:"id"`
	ExternalID    string       `db:"external_id"`
	Name          string       `db:"name"`
	Location      string       `db:"location"`
	URL           string       `db:"url"`
	Status        string       `db:"status"`
	StartDate     sql.NullTime `db:"start_date"`
	EndDate       sql.NullTime `db:"end_date"`
	LastFetchedAt sql.NullTime `db:"last_fetched_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
	DeletedAt     *time.Time   `db:"deleted_at"`
}

type tournamentInsertModel struct {
	ID            string     `db:"id"`
	ExternalID    string     `db:"external_id"`
	Name          string     `db:"name"`
	Location      string     `db:"location"`
	URL           string     `db:"url"`
	Status        string     `db:"status"`
	StartDate     *time.Time `db:"start_date"`
	EndDate       *time.Time `db:"end_date"`
	LastFetchedAt *time.Time `db:"last_fetched_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (m tournamentTableModel) toDomain() tournament.Tournament {
	return tournament.Tournament{
		ID:            m.ID,
		ExternalID:    m.ExternalID,
		Name:          m.Name,
		Location:      m.Location,
		URL:           m.URL,
		Status:        m.Status,
		StartDate:     nullTimeToTimePtr(m.StartDate),
		EndDate:       nullTimeToTimePtr(m.EndDate),
		LastFetchedAt: nullTimeToTimePtr(m.LastFetchedAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func tournamentToInsertModel(item tournament.Tournament) tournamentInsertModel {
	return tournamentInsertModel{
		ID:            item.ID,
		ExternalID:    item.ExternalID,
		Name:          item.Name,
		Location:      item.Location,
		URL:           item.URL,
		Status:        item.Status,
		StartDate:     item.StartDate,
		EndDate:       item.EndDate,
		LastFetchedAt: item.LastFetchedAt,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}
