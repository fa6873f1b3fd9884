package seeding

// Entry is one ranked row in a division's seeding view. It is derived
// from completed games on read and never persisted as source of truth.
type Entry struct {
	Rank           int    `json:"rank"`
	TeamName       string `json:"team_name"`
	Bracket        string `json:"bracket"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
	BracketWinner  bool   `json:"bracket_winner"`
}

// Table is the full seeding output for one division: each bracket's
// winner plus the best of the rest merged across brackets.
type Table struct {
	BracketWinners []Entry `json:"bracket_winners"`
	TopRemaining   []Entry `json:"top_remaining"`
}

// Less is the seeding comparator: points desc, goal difference desc,
// goals for desc, then team name asc as the deterministic final tie-break.
func Less(a, b Entry) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	return a.TeamName < b.TeamName
}
