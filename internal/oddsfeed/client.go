package oddsfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ErrMissingAPIKey signals a configuration problem, as opposed to a
// transient upstream failure. Operators fix the key; they do not retry.
var ErrMissingAPIKey = errors.New("odds API key is not configured")

// APIOutcome is one priced outcome inside a bookmaker market.
type APIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// APIMarket is one market offered by a bookmaker. Only h2h (head-to-head)
// markets are consumed downstream.
type APIMarket struct {
	Key      string       `json:"key"`
	Outcomes []APIOutcome `json:"outcomes"`
}

// APIBookmaker is one bookmaker's offering for an event.
type APIBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []APIMarket `json:"markets"`
}

// APIEvent is one upcoming event as returned by The Odds API.
type APIEvent struct {
	ID         string         `json:"id"`
	SportTitle string         `json:"sport_title"`
	HomeTeam   string         `json:"home_team"`
	AwayTeam   string         `json:"away_team"`
	Bookmakers []APIBookmaker `json:"bookmakers"`
}

// Usage reports the request quota headers returned by The Odds API.
type Usage struct {
	Used      string
	Remaining string
}

// Config holds odds feed client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Regions string
	Markets string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client fetches live odds from The Odds API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an odds feed client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: cfg.Logger,
	}
}

// FetchUpcomingOdds fetches decimal h2h odds for upcoming events. A missing
// API key is reported as ErrMissingAPIKey so callers can distinguish
// misconfiguration from transient upstream failures.
func (c *Client) FetchUpcomingOdds(ctx context.Context) ([]APIEvent, *Usage, error) {
	if c.config.APIKey == "" {
		return nil, nil, ErrMissingAPIKey
	}

	endpoint := fmt.Sprintf("%s/sports/upcoming/odds/", c.config.BaseURL)

	params := url.Values{}
	params.Add("apiKey", c.config.APIKey)
	params.Add("regions", c.config.Regions)
	params.Add("markets", c.config.Markets)
	params.Add("oddsFormat", "decimal")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("fetch odds: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	FetchDurationSeconds.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		FetchesTotal.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, fmt.Errorf("odds API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	var events []APIEvent
	err = json.Unmarshal(body, &events)
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	usage := &Usage{
		Used:      resp.Header.Get("x-requests-used"),
		Remaining: resp.Header.Get("x-requests-remaining"),
	}

	FetchesTotal.WithLabelValues("success").Inc()
	c.logger.Info("odds-fetch-complete",
		zap.Int("event-count", len(events)),
		zap.String("quota-used", usage.Used),
		zap.String("quota-remaining", usage.Remaining))

	return events, usage, nil
}
