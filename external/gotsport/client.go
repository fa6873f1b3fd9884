package gotsport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"

	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
	"github.com/soccerschedules/schedule-sync/internal/platform/resilience"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

const (
	defaultBaseURL          = "https://system.gotsport.com"
	defaultTimeout          = 30 * time.Second
	defaultDivisionFetchers = 4
	maxBodyBytes            = 8 << 20
	bodyPreviewBytes        = 256
)

var (
	eventIDRegex = regexp.MustCompile(`/events/(\d+)`)
	groupIDRegex = regexp.MustCompile(`group=(\d+)`)

	errGotSportRequest = crerr.New("gotsport request failure")
)

// ParseEventID extracts the numeric event id from a GotSport event URL
// such as https://system.gotsport.com/org_event/events/39474.
func ParseEventID(eventURL string) (string, bool) {
	match := eventIDRegex.FindStringSubmatch(eventURL)
	if match == nil {
		return "", false
	}
	return match[1], true
}

type ClientConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	Timeout          time.Duration
	DivisionFetchers int
	Logger           *logging.Logger
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Client scrapes GotSport event pages. The platform has no public API,
// so everything is read out of rendered HTML.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	divisionFetchers int
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
	circuitEnabled   bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	fetchers := cfg.DivisionFetchers
	if fetchers <= 0 {
		fetchers = defaultDivisionFetchers
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:       httpClient,
		baseURL:          baseURL,
		divisionFetchers: fetchers,
		logger:           logger,
		breaker:          resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:   breakerCfg.Enabled,
	}
}

// FetchEvent loads the event page, discovers every division's schedule
// URL and scrapes the division pages concurrently. A broken division
// page degrades to a DivisionError; a broken event page fails the whole
// snapshot.
func (c *Client) FetchEvent(ctx context.Context, eventExternalID string) (usecase.Snapshot, error) {
	eventExternalID = strings.TrimSpace(eventExternalID)
	if eventExternalID == "" {
		return usecase.Snapshot{}, fmt.Errorf("%w: event id is required", usecase.ErrFetchStructural)
	}

	eventURL := fmt.Sprintf("%s/org_event/events/%s", c.baseURL, eventExternalID)
	doc, err := c.fetchDocument(ctx, eventURL)
	if err != nil {
		return usecase.Snapshot{}, fmt.Errorf("fetch event page event_id=%s: %w", eventExternalID, err)
	}

	snap := usecase.Snapshot{
		EventExternalID: eventExternalID,
		EventName:       parseEventName(doc),
	}

	refs := parseDivisionRefs(doc, c.baseURL, eventExternalID)
	if len(refs) == 0 {
		return usecase.Snapshot{}, fmt.Errorf("%w: no division schedule links on event page event_id=%s", usecase.ErrFetchStructural, eventExternalID)
	}
	c.logger.InfoContext(ctx, "gotsport divisions discovered", "event_id", eventExternalID, "count", len(refs))

	type divisionResult struct {
		snapshot usecase.DivisionSnapshot
		err      error
	}

	results := make([]divisionResult, len(refs))
	workers := pool.New().WithMaxGoroutines(c.divisionFetchers)
	for i, ref := range refs {
		workers.Go(func() {
			div, err := c.fetchDivision(ctx, ref)
			results[i] = divisionResult{snapshot: div, err: err}
		})
	}
	workers.Wait()

	for i, result := range results {
		if result.err != nil {
			c.logger.WarnContext(ctx, "gotsport division scrape failed",
				"event_id", eventExternalID,
				"division", refs[i].Name,
				"error", result.err,
			)
			snap.DivisionErrors = append(snap.DivisionErrors, usecase.DivisionError{
				DivisionName: refs[i].Name,
				Err:          result.err,
			})
			continue
		}
		snap.Divisions = append(snap.Divisions, result.snapshot)
	}

	if len(snap.Divisions) == 0 && len(snap.DivisionErrors) > 0 {
		return usecase.Snapshot{}, fmt.Errorf("%w: every division page failed for event_id=%s", usecase.ErrFetchTransient, eventExternalID)
	}

	return snap, nil
}

func (c *Client) fetchDivision(ctx context.Context, ref divisionRef) (usecase.DivisionSnapshot, error) {
	doc, err := c.fetchDocument(ctx, ref.ScheduleURL)
	if err != nil {
		return usecase.DivisionSnapshot{}, fmt.Errorf("fetch schedule page group=%s: %w", ref.ExternalID, err)
	}
	return parseDivisionSchedule(doc, ref), nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "gotsport circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: platform is temporarily unavailable", usecase.ErrFetchTransient)
		}
	}

	raw, err := c.executeRequest(ctx, pageURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errGotSportRequest) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", usecase.ErrFetchStructural, err)
	}
	return doc, nil
}

func (c *Client) executeRequest(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "text/html,application/xhtml+xml")
	req.Header.Set("accept-language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(fmt.Errorf("%w: send request: %v", usecase.ErrFetchTransient, err), errGotSportRequest)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, crerr.Mark(fmt.Errorf("%w: read response body: %v", usecase.ErrFetchTransient, err), errGotSportRequest)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case isRetryableStatus(resp.StatusCode):
		return nil, crerr.Mark(
			fmt.Errorf("%w: platform status=%d body=%s", usecase.ErrFetchTransient, resp.StatusCode, abbreviateBody(raw)),
			errGotSportRequest,
		)
	default:
		// 404 and friends: the page is gone or the URL shape changed.
		return nil, fmt.Errorf("%w: platform status=%d body=%s", usecase.ErrFetchStructural, resp.StatusCode, abbreviateBody(raw))
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	default:
		return status >= 500
	}
}

// abbreviateBody trims a response body to a short single-line preview
// for error messages.
func abbreviateBody(raw []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	limit := len(raw)
	truncated := false
	if limit > bodyPreviewBytes {
		limit = bodyPreviewBytes
		truncated = true
	}
	for _, b := range raw[:limit] {
		if b == '\n' || b == '\r' || b == '\t' {
			b = ' '
		}
		_ = buf.WriteByte(b)
	}
	if truncated {
		_, _ = buf.WriteString("...")
	}
	return strings.TrimSpace(buf.String())
}
