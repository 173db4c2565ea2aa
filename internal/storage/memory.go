package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

// MemoryStore implements Store with in-process maps. It backs
// STORAGE_MODE=memory and the test suites; the mutex gives the same
// same-external-ID serialization the postgres row lock provides.
type MemoryStore struct {
	mu           sync.RWMutex
	events       map[string]*types.Event // keyed by external ID
	settings     map[string]string
	targets      map[int64]types.ScraperTarget
	nextEventID  int64
	nextRowID    int64
	nextTargetID int64
	logger       *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*types.Event),
		settings: make(map[string]string),
		targets:  make(map[int64]types.ScraperTarget),
		logger:   logger,
	}
}

// FindEvent returns a copy of the stored event, or ErrNotFound.
func (m *MemoryStore) FindEvent(ctx context.Context, externalID string) (*types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.events[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(ev), nil
}

// CreateEvent creates a new event with its outcomes.
func (m *MemoryStore) CreateEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeLocked(payload), nil
}

// ReplaceOutcomes replaces the outcome set of an existing event.
func (m *MemoryStore) ReplaceOutcomes(ctx context.Context, eventID int64, outcomes []types.OutcomePayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ev := range m.events {
		if ev.ID == eventID {
			ev.Outcomes = m.buildOutcomesLocked(eventID, outcomes)
			return nil
		}
	}
	return ErrNotFound
}

// UpsertEvent inserts or fully replaces an event keyed by external ID.
func (m *MemoryStore) UpsertEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeLocked(payload), nil
}

// storeLocked writes the payload, preserving the event row ID when the
// external ID already exists. Outcome rows always get fresh identities.
func (m *MemoryStore) storeLocked(payload types.EventPayload) *types.Event {
	existing, ok := m.events[payload.ExternalID]

	var eventID int64
	if ok {
		eventID = existing.ID
	} else {
		m.nextEventID++
		eventID = m.nextEventID
	}

	ev := &types.Event{
		ID:         eventID,
		ExternalID: payload.ExternalID,
		Name:       payload.Name,
		Category:   payload.Category,
		Outcomes:   m.buildOutcomesLocked(eventID, payload.Outcomes),
	}
	m.events[payload.ExternalID] = ev

	return copyEvent(ev)
}

func (m *MemoryStore) buildOutcomesLocked(eventID int64, payloads []types.OutcomePayload) []types.Outcome {
	outcomes := make([]types.Outcome, 0, len(payloads))
	for _, o := range payloads {
		m.nextRowID++
		outcomes = append(outcomes, types.Outcome{
			ID:        m.nextRowID,
			EventID:   eventID,
			Bookmaker: o.Bookmaker,
			Label:     o.Label,
			Price:     o.Price,
			Link:      o.Link,
		})
	}
	return outcomes
}

// ListEventsWithMinOutcomes returns events with at least n outcomes, ordered
// by event row ID for deterministic output.
func (m *MemoryStore) ListEventsWithMinOutcomes(ctx context.Context, n int) ([]*types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := []*types.Event{}
	for _, ev := range m.events {
		if len(ev.Outcomes) >= n {
			events = append(events, copyEvent(ev))
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// Settings returns a copy of all settings.
func (m *MemoryStore) Settings(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

// PutSetting creates or updates one setting.
func (m *MemoryStore) PutSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// ListTargets returns all scraper targets ordered by ID.
func (m *MemoryStore) ListTargets(ctx context.Context) ([]types.ScraperTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := []types.ScraperTarget{}
	for _, t := range m.targets {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets, nil
}

// CreateTarget creates a new scraper target.
func (m *MemoryStore) CreateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTargetID++
	target.ID = m.nextTargetID
	m.targets[target.ID] = target
	return &target, nil
}

// UpdateTarget updates an existing target, or returns ErrNotFound.
func (m *MemoryStore) UpdateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.targets[target.ID]
	if !ok {
		return nil, ErrNotFound
	}
	m.targets[target.ID] = target
	return &target, nil
}

// DeleteTarget removes a target, or returns ErrNotFound.
func (m *MemoryStore) DeleteTarget(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.targets[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.targets, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyEvent(ev *types.Event) *types.Event {
	cp := *ev
	cp.Outcomes = make([]types.Outcome, len(ev.Outcomes))
	copy(cp.Outcomes, ev.Outcomes)
	return &cp
}
