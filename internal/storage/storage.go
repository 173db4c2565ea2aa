package storage

import (
	"context"
	"errors"

	"github.com/oddsradar/surebet/pkg/types"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// EventStore is the odds repository. All writes are transactional: an event
// and its outcomes are created or replaced as a single unit, and concurrent
// upserts for the same external ID are serialized by the implementation.
type EventStore interface {
	// FindEvent returns the event with the given external ID, including its
	// outcomes, or ErrNotFound.
	FindEvent(ctx context.Context, externalID string) (*types.Event, error)

	// CreateEvent creates a new event together with all its outcomes.
	CreateEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error)

	// ReplaceOutcomes atomically replaces the full outcome set of an existing
	// event. Readers never observe an empty or mixed outcome set.
	ReplaceOutcomes(ctx context.Context, eventID int64, outcomes []types.OutcomePayload) error

	// UpsertEvent is the conditional-write primitive used by ingestion:
	// insert-or-replace keyed by external ID, in one transaction.
	UpsertEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error)

	// ListEventsWithMinOutcomes returns all events that have at least n
	// outcomes, with outcomes populated.
	ListEventsWithMinOutcomes(ctx context.Context, n int) ([]*types.Event, error)

	// Close releases the underlying resources.
	Close() error
}

// SettingStore holds operator-tunable key/value settings.
type SettingStore interface {
	Settings(ctx context.Context) (map[string]string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// TargetStore manages scraper targets for the external scraper service.
type TargetStore interface {
	ListTargets(ctx context.Context) ([]types.ScraperTarget, error)
	CreateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error)
	UpdateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error)
	DeleteTarget(ctx context.Context, id int64) error
}

// Store combines all repository capabilities.
type Store interface {
	EventStore
	SettingStore
	TargetStore
}
