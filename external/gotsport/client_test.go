package gotsport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
	"github.com/soccerschedules/schedule-sync/internal/platform/resilience"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

const eventPageFixture = `<html><body>
<div class="widget-title">Spring Kickoff Classic</div>
<div class="panel panel-default">
  <div class="panel-heading">Boys U12</div>
  <div class="panel-body">
    <table><tr><td><b>Gold</b></td><td><a href="/org_event/events/39474/schedules?group=101">Schedule</a></td></tr></table>
  </div>
</div>
<div class="panel panel-default">
  <div class="panel-heading">Girls U14</div>
  <div class="panel-body">
    <table><tr><td><b>White</b></td><td><a href="/org_event/events/39474/schedules?group=202">Schedule</a></td></tr></table>
  </div>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:          server.URL,
		Logger:           logging.NewNop(),
		DivisionFetchers: 2,
		CircuitBreaker:   resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestFetchEvent(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/org_event/events/39474", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, eventPageFixture)
	})
	mux.HandleFunc("/org_event/events/39474/schedules", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("group") == "101" {
			fmt.Fprint(w, scheduleFixture)
			return
		}
		fmt.Fprint(w, `<html><body><table>
		<tr><th>Match #</th><th>Time</th><th>Home Team</th><th>Results</th><th>Away Team</th></tr>
		<tr><td>1</td><td>Feb 14, 2025 10:00 AM EST</td><td>Arsenal</td><td></td><td>Fury</td></tr>
		</table></body></html>`)
	})

	client := newTestClient(t, mux)
	snap, err := client.FetchEvent(context.Background(), "39474")
	if err != nil {
		t.Fatalf("FetchEvent() error = %v", err)
	}

	if snap.EventExternalID != "39474" || snap.EventName != "Spring Kickoff Classic" {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if len(snap.Divisions) != 2 || len(snap.DivisionErrors) != 0 {
		t.Fatalf("divisions = %d, errors = %d, want 2/0", len(snap.Divisions), len(snap.DivisionErrors))
	}

	byID := make(map[string]usecase.DivisionSnapshot, 2)
	for _, div := range snap.Divisions {
		byID[div.ExternalID] = div
	}
	if len(byID["101"].Games) != 2 {
		t.Fatalf("group 101 games = %d, want 2", len(byID["101"].Games))
	}
	if len(byID["202"].Games) != 1 {
		t.Fatalf("group 202 games = %d, want 1", len(byID["202"].Games))
	}
}

func TestFetchEventPartialDivisionFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/org_event/events/39474", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, eventPageFixture)
	})
	mux.HandleFunc("/org_event/events/39474/schedules", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("group") == "101" {
			fmt.Fprint(w, scheduleFixture)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	snap, err := client.FetchEvent(context.Background(), "39474")
	if err != nil {
		t.Fatalf("FetchEvent() error = %v, one bad division must not fail the snapshot", err)
	}
	if len(snap.Divisions) != 1 || len(snap.DivisionErrors) != 1 {
		t.Fatalf("divisions = %d, errors = %d, want 1/1", len(snap.Divisions), len(snap.DivisionErrors))
	}
	if snap.DivisionErrors[0].DivisionName != "U14 White" {
		t.Fatalf("failed division = %q", snap.DivisionErrors[0].DivisionName)
	}
}

func TestFetchEventMissingPageIsStructural(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.NotFoundHandler())
	_, err := client.FetchEvent(context.Background(), "39474")
	if !errors.Is(err, usecase.ErrFetchStructural) {
		t.Fatalf("FetchEvent() error = %v, want ErrFetchStructural", err)
	}
}

func TestFetchEventServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	_, err := client.FetchEvent(context.Background(), "39474")
	if !errors.Is(err, usecase.ErrFetchTransient) {
		t.Fatalf("FetchEvent() error = %v, want ErrFetchTransient", err)
	}
}

func TestFetchEventWithoutDivisionLinksIsStructural(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div class="widget-title">Empty Event</div></body></html>`)
	}))
	_, err := client.FetchEvent(context.Background(), "39474")
	if !errors.Is(err, usecase.ErrFetchStructural) {
		t.Fatalf("FetchEvent() error = %v, want ErrFetchStructural", err)
	}
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			HalfOpenMaxReq:   1,
		},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.FetchEvent(ctx, "39474"); err == nil {
			t.Fatal("expected failure while platform is down")
		}
	}

	if state := client.breaker.State(); state != resilience.CircuitStateOpen {
		t.Fatalf("breaker state = %s, want open", state)
	}
	_, err := client.FetchEvent(ctx, "39474")
	if !errors.Is(err, usecase.ErrFetchTransient) {
		t.Fatalf("FetchEvent() with open breaker error = %v, want ErrFetchTransient", err)
	}
}
