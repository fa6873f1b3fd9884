package game

import (
	"strings"
	"time"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusPostponed  = "postponed"
)

// Game is one match inside a division. Team names, scores and dates are
// pointers because the platform publishes schedules long before pairings
// and results are known.
type Game struct {
	ID           string
	DivisionID   string
	ExternalID   string
	GameNumber   string
	HomeTeamName *string
	AwayTeamName *string
	GameDate     *time.Time
	GameTime     string
	FieldName    string
	FieldLoc     string
	HomeScore    *int
	AwayScore    *int
	Status       string
	Bracket      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusPostponed:
		return status
	case "in progress", "live":
		return StatusInProgress
	case "final", "finished", "complete", "played":
		return StatusCompleted
	case "":
		return StatusScheduled
	default:
		return StatusScheduled
	}
}

func (g Game) IsCompleted() bool {
	return g.Status == StatusCompleted
}

// IsTerminal reports whether the game can no longer produce a result.
func (g Game) IsTerminal() bool {
	switch g.Status {
	case StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (g Game) HasResult() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// IsPlaceholderTeam reports whether a scraped team name is a stand-in the
// platform publishes before the pairing is decided.
func IsPlaceholderTeam(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "TBD", "TBA", "BYE":
		return true
	default:
		return false
	}
}

// NaturalKey is the fallback game identity used when the platform did not
// assign an external id: home team, away team, date and kickoff time
// within one division.
type NaturalKey struct {
	HomeTeam string
	AwayTeam string
	Date     string
	Time     string
}

func (g Game) NaturalKey() NaturalKey {
	key := NaturalKey{Time: strings.TrimSpace(g.GameTime)}
	if g.HomeTeamName != nil {
		key.HomeTeam = strings.TrimSpace(*g.HomeTeamName)
	}
	if g.AwayTeamName != nil {
		key.AwayTeam = strings.TrimSpace(*g.AwayTeamName)
	}
	if g.GameDate != nil {
		key.Date = g.GameDate.UTC().Format("2006-01-02")
	}
	return key
}

// IsComplete reports whether the key carries enough data to identify a
// game. Keys with placeholder teams or no date cannot safely match.
func (k NaturalKey) IsComplete() bool {
	if IsPlaceholderTeam(k.HomeTeam) || IsPlaceholderTeam(k.AwayTeam) {
		return false
	}
	return k.Date != ""
}
