package oddsfeed

import (
	"testing"

	"go.uber.org/zap"
)

func TestTransform(t *testing.T) {
	apiEvents := []APIEvent{
		{
			ID:         "ev-1",
			SportTitle: "Soccer EPL",
			HomeTeam:   "Arsenal",
			AwayTeam:   "Chelsea",
			Bookmakers: []APIBookmaker{
				{
					Key:   "pinnacle",
					Title: "Pinnacle",
					Markets: []APIMarket{
						{Key: "h2h", Outcomes: []APIOutcome{
							{Name: "Arsenal", Price: 2.10},
							{Name: "Chelsea", Price: 4.50},
						}},
						{Key: "totals", Outcomes: []APIOutcome{
							{Name: "Over 2.5", Price: 1.90},
						}},
					},
				},
				{
					Key:   "bet365",
					Title: "Bet365",
					Markets: []APIMarket{
						{Key: "h2h", Outcomes: []APIOutcome{
							{Name: "Arsenal", Price: 2.05},
						}},
					},
				},
			},
		},
	}

	payloads := Transform(apiEvents, zap.NewNop())

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}

	p := payloads[0]
	if p.ExternalID != "ev-1" {
		t.Errorf("ExternalID = %q, want ev-1", p.ExternalID)
	}
	if p.Name != "Arsenal vs Chelsea" {
		t.Errorf("Name = %q, want 'Arsenal vs Chelsea'", p.Name)
	}
	if p.Category != "Soccer EPL" {
		t.Errorf("Category = %q, want 'Soccer EPL'", p.Category)
	}

	// h2h outcomes from both bookmakers; the totals market is ignored.
	if len(p.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d: %+v", len(p.Outcomes), p.Outcomes)
	}
	for _, o := range p.Outcomes {
		if o.Label == "Over 2.5" {
			t.Error("non-h2h market leaked into the outcome set")
		}
	}

	if p.Outcomes[0].Bookmaker != "Pinnacle" {
		t.Errorf("Bookmaker = %q, want bookmaker title", p.Outcomes[0].Bookmaker)
	}
	if p.Outcomes[0].Link != "https://pinnacle.com" {
		t.Errorf("Link = %q, want https://pinnacle.com", p.Outcomes[0].Link)
	}
	if p.Outcomes[2].Link != "https://bet365.com" {
		t.Errorf("Link = %q, want https://bet365.com", p.Outcomes[2].Link)
	}
}

func TestTransform_SkipsEventsWithoutOutcomes(t *testing.T) {
	apiEvents := []APIEvent{
		{
			ID:         "ev-empty",
			SportTitle: "Tennis",
			HomeTeam:   "Player A",
			AwayTeam:   "Player B",
			Bookmakers: []APIBookmaker{
				{
					Key:   "pinnacle",
					Title: "Pinnacle",
					Markets: []APIMarket{
						{Key: "spreads", Outcomes: []APIOutcome{{Name: "A -1.5", Price: 1.95}}},
					},
				},
			},
		},
		{
			ID:         "ev-good",
			SportTitle: "Tennis",
			HomeTeam:   "Player C",
			AwayTeam:   "Player D",
			Bookmakers: []APIBookmaker{
				{
					Key:   "pinnacle",
					Title: "Pinnacle",
					Markets: []APIMarket{
						{Key: "h2h", Outcomes: []APIOutcome{
							{Name: "Player C", Price: 1.80},
							{Name: "Player D", Price: 2.00},
						}},
					},
				},
			},
		},
	}

	payloads := Transform(apiEvents, zap.NewNop())

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0].ExternalID != "ev-good" {
		t.Errorf("got %s, want ev-good", payloads[0].ExternalID)
	}
}

func TestTransform_EmptyInput(t *testing.T) {
	payloads := Transform(nil, zap.NewNop())
	if len(payloads) != 0 {
		t.Fatalf("expected 0 payloads, got %d", len(payloads))
	}
}
