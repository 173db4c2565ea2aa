package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore opens a PostgreSQL connection and verifies it.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// Migrate creates the schema if it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			bookmaker TEXT NOT NULL,
			label TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL CHECK (price > 1.0),
			link TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_event_id ON outcomes(event_id)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scraper_targets (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}

	for _, stmt := range statements {
		_, err := p.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	p.logger.Info("postgres-schema-ready")
	return nil
}

// FindEvent returns the event with the given external ID, or ErrNotFound.
func (p *PostgresStore) FindEvent(ctx context.Context, externalID string) (*types.Event, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, category FROM events WHERE external_id = $1`,
		externalID)

	var ev types.Event
	err := row.Scan(&ev.ID, &ev.ExternalID, &ev.Name, &ev.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", externalID, err)
	}

	outcomes, err := p.loadOutcomes(ctx, []int64{ev.ID})
	if err != nil {
		return nil, err
	}
	ev.Outcomes = outcomes[ev.ID]

	return &ev, nil
}

// CreateEvent creates a new event with all its outcomes in one transaction.
func (p *PostgresStore) CreateEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error) {
	var ev *types.Event

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO events (external_id, name, category) VALUES ($1, $2, $3) RETURNING id`,
			payload.ExternalID, payload.Name, payload.Category)

		var eventID int64
		err := row.Scan(&eventID)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		outcomes, err := insertOutcomes(ctx, tx, eventID, payload.Outcomes)
		if err != nil {
			return err
		}

		ev = &types.Event{
			ID:         eventID,
			ExternalID: payload.ExternalID,
			Name:       payload.Name,
			Category:   payload.Category,
			Outcomes:   outcomes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ev, nil
}

// ReplaceOutcomes replaces the full outcome set of an event in one transaction.
func (p *PostgresStore) ReplaceOutcomes(ctx context.Context, eventID int64, outcomes []types.OutcomePayload) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE event_id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("delete outcomes: %w", err)
		}

		_, err = insertOutcomes(ctx, tx, eventID, outcomes)
		return err
	})
}

// UpsertEvent inserts or replaces an event keyed by external ID. The whole
// operation runs in a single transaction; the ON CONFLICT row lock serializes
// concurrent upserts for the same external ID, so readers never observe an
// empty or mixed outcome set.
func (p *PostgresStore) UpsertEvent(ctx context.Context, payload types.EventPayload) (*types.Event, error) {
	var ev *types.Event

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO events (external_id, name, category) VALUES ($1, $2, $3)
			 ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category
			 RETURNING id`,
			payload.ExternalID, payload.Name, payload.Category)

		var eventID int64
		err := row.Scan(&eventID)
		if err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM outcomes WHERE event_id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("delete outcomes: %w", err)
		}

		outcomes, err := insertOutcomes(ctx, tx, eventID, payload.Outcomes)
		if err != nil {
			return err
		}

		ev = &types.Event{
			ID:         eventID,
			ExternalID: payload.ExternalID,
			Name:       payload.Name,
			Category:   payload.Category,
			Outcomes:   outcomes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("event-upserted",
		zap.String("external-id", payload.ExternalID),
		zap.Int("outcome-count", len(payload.Outcomes)))

	return ev, nil
}

// ListEventsWithMinOutcomes returns events with at least n outcomes.
func (p *PostgresStore) ListEventsWithMinOutcomes(ctx context.Context, n int) ([]*types.Event, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT e.id, e.external_id, e.name, e.category
		 FROM events e
		 JOIN outcomes o ON o.event_id = e.id
		 GROUP BY e.id
		 HAVING COUNT(o.id) >= $1
		 ORDER BY e.id`,
		n)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	var ids []int64

	for rows.Next() {
		var ev types.Event
		err = rows.Scan(&ev.ID, &ev.ExternalID, &ev.Name, &ev.Category)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &ev)
		ids = append(ids, ev.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if len(events) == 0 {
		return []*types.Event{}, nil
	}

	outcomes, err := p.loadOutcomes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		ev.Outcomes = outcomes[ev.ID]
	}

	return events, nil
}

// loadOutcomes fetches the outcome sets for the given event IDs in one query.
func (p *PostgresStore) loadOutcomes(ctx context.Context, eventIDs []int64) (map[int64][]types.Outcome, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, event_id, bookmaker, label, price, link
		 FROM outcomes WHERE event_id = ANY($1) ORDER BY id`,
		pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	defer rows.Close()

	byEvent := make(map[int64][]types.Outcome, len(eventIDs))
	for rows.Next() {
		var o types.Outcome
		err = rows.Scan(&o.ID, &o.EventID, &o.Bookmaker, &o.Label, &o.Price, &o.Link)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		byEvent[o.EventID] = append(byEvent[o.EventID], o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return byEvent, nil
}

// Settings returns all settings as a key/value map.
func (p *PostgresStore) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		err = rows.Scan(&k, &v)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// PutSetting creates or updates one setting.
func (p *PostgresStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

// ListTargets returns all scraper targets.
func (p *PostgresStore) ListTargets(ctx context.Context) ([]types.ScraperTarget, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, url, is_active FROM scraper_targets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	targets := []types.ScraperTarget{}
	for rows.Next() {
		var t types.ScraperTarget
		err = rows.Scan(&t.ID, &t.Name, &t.URL, &t.IsActive)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate targets: %w", err)
	}

	return targets, nil
}

// CreateTarget creates a new scraper target.
func (p *PostgresStore) CreateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error) {
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO scraper_targets (name, url, is_active) VALUES ($1, $2, $3) RETURNING id`,
		target.Name, target.URL, target.IsActive)

	err := row.Scan(&target.ID)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return &target, nil
}

// UpdateTarget updates an existing scraper target, or returns ErrNotFound.
func (p *PostgresStore) UpdateTarget(ctx context.Context, target types.ScraperTarget) (*types.ScraperTarget, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE scraper_targets SET name = $2, url = $3, is_active = $4 WHERE id = $1`,
		target.ID, target.Name, target.URL, target.IsActive)
	if err != nil {
		return nil, fmt.Errorf("update target %d: %w", target.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update target %d: %w", target.ID, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return &target, nil
}

// DeleteTarget removes a scraper target, or returns ErrNotFound.
func (p *PostgresStore) DeleteTarget(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM scraper_targets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete target %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete target %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}

// withTx runs fn in a transaction, rolling back on error.
func (p *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			p.logger.Error("tx-rollback-failed", zap.Error(rbErr))
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insertOutcomes inserts the outcome set for an event within a transaction.
func insertOutcomes(ctx context.Context, tx *sql.Tx, eventID int64, payloads []types.OutcomePayload) ([]types.Outcome, error) {
	outcomes := make([]types.Outcome, 0, len(payloads))

	for _, o := range payloads {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO outcomes (event_id, bookmaker, label, price, link)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			eventID, o.Bookmaker, o.Label, o.Price, o.Link)

		var id int64
		err := row.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert outcome: %w", err)
		}

		outcomes = append(outcomes, types.Outcome{
			ID:        id,
			EventID:   eventID,
			Bookmaker: o.Bookmaker,
			Label:     o.Label,
			Price:     o.Price,
			Link:      o.Link,
		})
	}

	return outcomes, nil
}
