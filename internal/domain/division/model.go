package division

import "time"

// Division is an age/gender grouping within a tournament.
type Division struct {
	ID           string
	TournamentID string
	ExternalID   string
	Name         string
	AgeGroup     string
	Gender       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Matches reports whether an incoming record resolves to this division.
// External id wins when both sides carry one; otherwise identity falls
// back to name equality within the tournament.
func (d Division) Matches(externalID, name string) bool {
	if externalID != "" && d.ExternalID != "" {
		return d.ExternalID == externalID
	}
	return d.Name == name
}
