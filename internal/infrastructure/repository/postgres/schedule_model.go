package postgres

import (
	"database/sql"
	"time"

	"github.com/soccerschedules/schedule-sync/internal/domain/division"
	"github.com/soccerschedules/schedule-sync/internal/domain/game"
)

type divisionTableModel struct {
	ID           string     `db:"id"`
	TournamentID string     `db:"tournament_id"`
	ExternalID   string     `db:"external_id"`
	Name         string     `db:"name"`
	AgeGroup     string     `db:"age_group"`
	Gender       string     `db:"gender"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type divisionInsertModel struct {
	ID           string    `db:"id"`
	TournamentID string    `db:"tournament_id"`
	ExternalID   string    `db:"external_id"`
	Name         string    `db:"name"`
	AgeGroup     string    `db:"age_group"`
	Gender       string    `db:"gender"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (m divisionTableModel) toDomain() division.Division {
	return division.Division{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		ExternalID:   m.ExternalID,
		Name:         m.Name,
		AgeGroup:     m.AgeGroup,
		Gender:       m.Gender,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func divisionToInsertModel(item division.Division) divisionInsertModel {
	return divisionInsertModel{
		ID:           item.ID,
		TournamentID: item.TournamentID,
		ExternalID:   item.ExternalID,
		Name:         item.Name,
		AgeGroup:     item.AgeGroup,
		Gender:       item.Gender,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

type gameTableModel struct {
	ID           string         `db:"id"`
	DivisionID   string         `db:"division_id"`
	ExternalID   string         `db:"external_id"`
	GameNumber   string         `db:"game_number"`
	HomeTeamName sql.NullString `db:"home_team_name"`
	AwayTeamName sql.NullString `db:"away_team_name"`
	GameDate     sql.NullTime   `db:"game_date"`
	GameTime     string         `db:"game_time"`
	FieldName    string         `db:"field_name"`
	FieldLoc     string         `db:"field_location"`
	HomeScore    sql.NullInt64  `db:"home_score"`
	AwayScore    sql.NullInt64  `db:"away_score"`
	Status       string         `db:"status"`
	Bracket      string         `db:"bracket"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	DeletedAt    *time.Time     `db:"deleted_at"`
}

type gameInsertModel struct {
	ID           string     `db:"id"`
	DivisionID   string     `db:"division_id"`
	ExternalID   string     `db:"external_id"`
	GameNumber   string     `db:"game_number"`
	HomeTeamName *string    `db:"home_team_name"`
	AwayTeamName *string    `db:"away_team_name"`
	GameDate     *time.Time `db:"game_date"`
	GameTime     string     `db:"game_time"`
	FieldName    string     `db:"field_name"`
	FieldLoc     string     `db:"field_location"`
	HomeScore    *int       `db:"home_score"`
	AwayScore    *int       `db:"away_score"`
	Status       string     `db:"status"`
	Bracket      string     `db:"bracket"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:           m.ID,
		DivisionID:   m.DivisionID,
		ExternalID:   m.ExternalID,
		GameNumber:   m.GameNumber,
		HomeTeamName: nullStringToStringPtr(m.HomeTeamName),
		AwayTeamName: nullStringToStringPtr(m.AwayTeamName),
		GameDate:     nullTimeToTimePtr(m.GameDate),
		GameTime:     m.GameTime,
		FieldName:    m.FieldName,
		FieldLoc:     m.FieldLoc,
		HomeScore:    nullInt64ToIntPtr(m.HomeScore),
		AwayScore:    nullInt64ToIntPtr(m.AwayScore),
		Status:       m.Status,
		Bracket:      m.Bracket,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func gameToInsertModel(item game.Game) gameInsertModel {
	return gameInsertModel{
		ID:           item.ID,
		DivisionID:   item.DivisionID,
		ExternalID:   item.ExternalID,
		GameNumber:   item.GameNumber,
		HomeTeamName: item.HomeTeamName,
		AwayTeamName: item.AwayTeamName,
		GameDate:     item.GameDate,
		GameTime:     item.GameTime,
		FieldName:    item.FieldName,
		FieldLoc:     item.FieldLoc,
		HomeScore:    item.HomeScore,
		AwayScore:    item.AwayScore,
		Status:       item.Status,
		Bracket:      item.Bracket,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}
