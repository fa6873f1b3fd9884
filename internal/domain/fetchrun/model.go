package fetchrun

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// FetchRun is the audit record of one fetch attempt. Rows are append-only:
// one per attempt, transitioning in_progress to success or failed.
type FetchRun struct {
	ID           string
	TournamentID string
	Status       Status
	StartedAt    time.Time
	CompletedAt  *time.Time
	GamesSeen    int
	GamesCreated int
	GamesUpdated int
	Attempts     int
	ErrorMessage string
}
