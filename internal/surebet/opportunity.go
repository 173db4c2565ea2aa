package surebet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oddsradar/surebet/pkg/types"
)

// Opportunity is a detected surebet: an event whose best cross-bookmaker
// prices guarantee profit regardless of result. Derived view, not persisted.
type Opportunity struct {
	ID               string      `json:"id"`
	Event            types.Event `json:"event"`
	ProfitMargin     float64     `json:"profit_margin"`
	TotalInverseOdds float64     `json:"total_inverse_odds"`
	DetectedAt       time.Time   `json:"detected_at"`
}

// NewOpportunity builds an opportunity from an event and its evaluation.
func NewOpportunity(event types.Event, result Result) Opportunity {
	return Opportunity{
		ID:               uuid.New().String(),
		Event:            event,
		ProfitMargin:     result.ProfitMargin,
		TotalInverseOdds: result.TotalInverseOdds,
		DetectedAt:       time.Now().UTC(),
	}
}

// String returns a human-readable representation of the opportunity.
func (o Opportunity) String() string {
	return fmt.Sprintf("Surebet[%s] %s margin=%.2f%% inverse=%.4f outcomes=%d",
		o.Event.ExternalID, o.Event.Name, o.ProfitMargin, o.TotalInverseOdds, len(o.Event.Outcomes))
}
