package usecase

import (
	"context"
	"time"
)

// Snapshot is a point-in-time read of one tournament on the external
// platform. Fetching must never mutate stored state; everything here is
// raw scraped data that the reconciler resolves against storage.
type Snapshot struct {
	EventExternalID string
	EventName       string
	Location        string
	StartDate       *time.Time
	EndDate         *time.Time
	Divisions       []DivisionSnapshot
	// DivisionErrors carries per-division parse failures. A bad division
	// never fails the whole snapshot; the rest still reconciles.
	DivisionErrors []DivisionError
}

type DivisionSnapshot struct {
	ExternalID string
	Name       string
	AgeGroup   string
	Gender     string
	Games      []RawGame
}

// RawGame is one scraped schedule row. Every field except the division
// linkage may be missing or a placeholder; deciding whether a value is
// "real data yet" is the reconciler's job, not the fetcher's.
type RawGame struct {
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
}

type DivisionError struct {
	DivisionName string
	Err          error
}

// TournamentFetcher retrieves a snapshot for one external event id.
// Implementations classify failures by wrapping ErrFetchTransient or
// ErrFetchStructural so the scheduler can spend its retry budget wisely.
type TournamentFetcher interface {
	FetchEvent(ctx context.Context, eventExternalID string) (Snapshot, error)
}
