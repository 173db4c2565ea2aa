package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oddsradar/surebet/internal/notify"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

// ErrEmptyBatch is returned when an ingestion batch contains no events.
// Empty batches are a usage error and are rejected before any processing.
var ErrEmptyBatch = errors.New("empty ingestion batch")

// Status values for an ingestion report.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
)

// Report summarizes one ingestion batch.
type Report struct {
	ProcessedCount int      `json:"processed_count"`
	TotalCount     int      `json:"total_count"`
	Status         string   `json:"status"`
	Errors         []string `json:"errors"`
}

// Config holds coordinator configuration.
type Config struct {
	// WriteTimeout bounds how long one payload's validation and write may
	// take before the coordinator moves on to the next.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Coordinator accepts batches of externally-sourced events and makes the
// repository consistent with them: replace-on-conflict upserts keyed by
// external ID, partial-failure isolation per payload, and best-effort
// notification of freshly detected surebets.
type Coordinator struct {
	store    storage.EventStore
	query    *surebet.Service
	notifier notify.Notifier
	config   Config
	logger   *zap.Logger
}

// New creates an ingestion coordinator. The notifier may be nil when running
// without fan-out (one-shot CLI ingestion).
func New(cfg Config, store storage.EventStore, query *surebet.Service, notifier notify.Notifier) *Coordinator {
	return &Coordinator{
		store:    store,
		query:    query,
		notifier: notifier,
		config:   cfg,
		logger:   cfg.Logger,
	}
}

// Ingest processes a batch of event payloads independently: a payload that
// fails validation or persistence is recorded as an error and skipped, never
// aborting its siblings. After at least one success the surebet scan runs and
// the result is handed to the notifier; notification failure never fails the
// ingestion.
func (c *Coordinator) Ingest(ctx context.Context, batch []types.EventPayload) (*Report, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	report := &Report{
		TotalCount: len(batch),
		Errors:     []string{},
	}

	for i := range batch {
		payload := &batch[i]

		err := c.ingestOne(ctx, payload)
		if err != nil {
			EventsRejectedTotal.Inc()
			msg := fmt.Sprintf("event %s: %v", payload.ExternalID, err)
			report.Errors = append(report.Errors, msg)
			c.logger.Warn("event-ingest-failed",
				zap.String("external-id", payload.ExternalID),
				zap.Error(err))
			continue
		}

		EventsIngestedTotal.Inc()
		report.ProcessedCount++
	}

	if report.ProcessedCount == report.TotalCount {
		report.Status = StatusSuccess
	} else {
		report.Status = StatusPartialSuccess
	}

	c.logger.Info("ingest-batch-complete",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("total", report.TotalCount),
		zap.Int("errors", len(report.Errors)))

	if report.ProcessedCount > 0 {
		c.publishSurebets(ctx)
	}

	return report, nil
}

// ingestOne validates and upserts a single payload under the write timeout.
func (c *Coordinator) ingestOne(ctx context.Context, payload *types.EventPayload) error {
	err := validatePayload(payload)
	if err != nil {
		return err
	}

	writeCtx := ctx
	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	_, err = c.store.UpsertEvent(writeCtx, *payload)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	return nil
}

// publishSurebets runs the surebet scan and fans the result out. Best-effort:
// any failure here is logged and swallowed, the ingestion already succeeded.
func (c *Coordinator) publishSurebets(ctx context.Context) {
	if c.query == nil {
		return
	}

	c.query.Invalidate()

	if c.notifier == nil {
		return
	}

	surebets, err := c.query.ListSurebets(ctx)
	if err != nil {
		c.logger.Error("post-ingest-surebet-scan-failed", zap.Error(err))
		return
	}

	err = c.notifier.Publish(ctx, notify.NewNotification(surebets))
	if err != nil {
		NotificationsFailedTotal.Inc()
		c.logger.Error("surebet-notification-failed", zap.Error(err))
	}
}

// validatePayload enforces the ingestion invariants: a stable external ID,
// at least one outcome, and decimal odds strictly above 1.0 (a price of
// exactly 1.0 is a breakeven line, rejected as not a valid decimal odd).
func validatePayload(payload *types.EventPayload) error {
	if payload.ExternalID == "" {
		return errors.New("missing external_id")
	}
	if len(payload.Outcomes) == 0 {
		return errors.New("no outcomes")
	}

	for i := range payload.Outcomes {
		o := &payload.Outcomes[i]
		if o.Bookmaker == "" {
			return fmt.Errorf("outcome %d: missing bookmaker", i)
		}
		if o.Label == "" {
			return fmt.Errorf("outcome %d: missing label", i)
		}
		if o.Price <= 1.0 {
			return fmt.Errorf("outcome %d (%s): invalid price %v, decimal odds must exceed 1.0", i, o.Label, o.Price)
		}
	}

	return nil
}
