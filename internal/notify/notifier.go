package notify

import (
	"context"
	"time"

	"github.com/oddsradar/surebet/internal/surebet"
)

// Notification is the batch pushed to subscribers after an ingestion cycle.
type Notification struct {
	Surebets   []surebet.Opportunity `json:"surebets"`
	TotalCount int                   `json:"total_count"`
	EmittedAt  time.Time             `json:"emitted_at"`
}

// Notifier is the port the ingestion coordinator hands detected surebets to.
// Publishing is best-effort: implementations must not block ingestion, and
// callers log but never propagate a publish failure.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// NewNotification wraps a surebet list with fan-out metadata.
func NewNotification(surebets []surebet.Opportunity) Notification {
	return Notification{
		Surebets:   surebets,
		TotalCount: len(surebets),
		EmittedAt:  time.Now().UTC(),
	}
}
