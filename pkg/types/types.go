package types

// Outcome is one priced betting line offered by one bookmaker for one event.
// Outcomes are created only as part of an event's outcome replacement and are
// never mutated individually afterwards.
type Outcome struct {
	ID        int64   `json:"id"`
	EventID   int64   `json:"event_id"`
	Bookmaker string  `json:"bookmaker"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
	Link      string  `json:"link"`
}

// Event is one real-world sporting fixture being monitored. ExternalID is the
// stable identifier assigned by the data source and is the natural key for
// upserts. An event's outcome set always reflects only the most recent
// ingestion for that ExternalID.
type Event struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Outcomes   []Outcome `json:"outcomes"`
}

// OutcomePayload is one proposed outcome in an ingestion batch.
type OutcomePayload struct {
	Bookmaker string  `json:"bookmaker"`
	Label     string  `json:"label"`
	Price     float64 `json:"price"`
	Link      string  `json:"link"`
}

// EventPayload is one externally-sourced event in an ingestion batch.
type EventPayload struct {
	ExternalID string           `json:"external_id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Outcomes   []OutcomePayload `json:"outcomes"`
}

// ScraperTarget is an admin-managed scrape destination for the external
// scraper service. The core only stores these; it never scrapes.
type ScraperTarget struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	IsActive bool   `json:"is_active"`
}
