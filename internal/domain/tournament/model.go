package tournament

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Tournament is one event tracked on the external schedule platform.
type Tournament struct {
	ID            string
	ExternalID    string
	Name          string
	Location      string
	URL           string
	Status        string
	StartDate     *time.Time
	EndDate       *time.Time
	LastFetchedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Tournament) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tournament id is required")
	}
	if strings.TrimSpace(t.ExternalID) == "" {
		return fmt.Errorf("tournament external id is required")
	}
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("tournament url is required")
	}
	if t.Status != StatusActive && t.Status != StatusArchived {
		return fmt.Errorf("invalid tournament status %q", t.Status)
	}

	return nil
}

func (t Tournament) IsActive() bool {
	return t.Status == StatusActive
}

// HasEnded reports whether the tournament's last scheduled day is behind now.
// The end date is inclusive: games can run until the end of that day.
func (t Tournament) HasEnded(now time.Time) bool {
	if t.EndDate == nil {
		return false
	}
	endOfDay := t.EndDate.Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
	return now.After(endOfDay)
}
