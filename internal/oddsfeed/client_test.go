package oddsfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const sampleResponse = `[
  {
    "id": "abc123",
    "sport_title": "Soccer EPL",
    "home_team": "Arsenal",
    "away_team": "Chelsea",
    "bookmakers": [
      {
        "key": "pinnacle",
        "title": "Pinnacle",
        "markets": [
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Arsenal", "price": 2.10},
              {"name": "Draw", "price": 3.50},
              {"name": "Chelsea", "price": 4.50}
            ]
          }
        ]
      }
    ]
  }
]`

func TestFetchUpcomingOdds(t *testing.T) {
	var capturedQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sports/upcoming/odds/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		capturedQuery = r.URL.RawQuery

		w.Header().Set("x-requests-used", "12")
		w.Header().Set("x-requests-remaining", "488")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Regions: "eu",
		Markets: "h2h",
		Logger:  zap.NewNop(),
	})

	events, usage, err := client.FetchUpcomingOdds(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID != "abc123" || ev.HomeTeam != "Arsenal" || ev.AwayTeam != "Chelsea" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.Bookmakers) != 1 || len(ev.Bookmakers[0].Markets[0].Outcomes) != 3 {
		t.Errorf("unexpected bookmaker payload: %+v", ev.Bookmakers)
	}

	if usage.Used != "12" || usage.Remaining != "488" {
		t.Errorf("usage = %+v, want used 12 remaining 488", usage)
	}

	for _, want := range []string{"apiKey=test-key", "regions=eu", "markets=h2h", "oddsFormat=decimal"} {
		if !strings.Contains(capturedQuery, want) {
			t.Errorf("query %q missing %q", capturedQuery, want)
		}
	}
}

func TestFetchUpcomingOdds_MissingAPIKey(t *testing.T) {
	client := NewClient(Config{
		BaseURL: "http://localhost",
		Logger:  zap.NewNop(),
	})

	_, _, err := client.FetchUpcomingOdds(context.Background())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestFetchUpcomingOdds_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "bad-key",
		Logger:  zap.NewNop(),
	})

	_, _, err := client.FetchUpcomingOdds(context.Background())
	if err == nil {
		t.Fatal("expected error on 401 response, got nil")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q does not carry the upstream status", err)
	}
}

func TestFetchUpcomingOdds_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Logger:  zap.NewNop(),
	})

	_, _, err := client.FetchUpcomingOdds(context.Background())
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
