package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &PostgresStore{db: db, logger: zap.NewNop()}, mock
}

func TestPostgresStore_UpsertEvent_TransactionOrdering(t *testing.T) {
	store, mock := newMockStore(t)

	payload := types.EventPayload{
		ExternalID: "ev-1",
		Name:       "Alpha vs Beta",
		Category:   "Football",
		Outcomes: []types.OutcomePayload{
			{Bookmaker: "A", Label: "Home", Price: 2.1, Link: "https://a.com"},
			{Bookmaker: "B", Label: "Away", Price: 2.2, Link: "https://b.com"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs("ev-1", "Alpha vs Beta", "Football").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM outcomes WHERE event_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO outcomes")).
		WithArgs(int64(7), "A", "Home", 2.1, "https://a.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO outcomes")).
		WithArgs(int64(7), "B", "Away", 2.2, "https://b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	ev, err := store.UpsertEvent(context.Background(), payload)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if ev.ID != 7 {
		t.Errorf("event ID = %d, want 7", ev.ID)
	}
	if len(ev.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(ev.Outcomes))
	}
	if ev.Outcomes[0].ID != 41 || ev.Outcomes[1].ID != 42 {
		t.Errorf("unexpected outcome row IDs: %d, %d", ev.Outcomes[0].ID, ev.Outcomes[1].ID)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_UpsertEvent_RollbackOnOutcomeFailure(t *testing.T) {
	store, mock := newMockStore(t)

	payload := types.EventPayload{
		ExternalID: "ev-1",
		Name:       "Alpha vs Beta",
		Category:   "Football",
		Outcomes: []types.OutcomePayload{
			{Bookmaker: "A", Label: "Home", Price: 2.1, Link: "https://a.com"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs("ev-1", "Alpha vs Beta", "Football").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM outcomes WHERE event_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO outcomes")).
		WithArgs(int64(7), "A", "Home", 2.1, "https://a.com").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := store.UpsertEvent(context.Background(), payload)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_FindEvent_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, external_id, name, category FROM events WHERE external_id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name", "category"}))

	_, err := store.FindEvent(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_ListEventsWithMinOutcomes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("HAVING COUNT").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name", "category"}).
			AddRow(int64(1), "ev-1", "Alpha vs Beta", "Football").
			AddRow(int64(2), "ev-2", "Gamma vs Delta", "Tennis"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM outcomes WHERE event_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "bookmaker", "label", "price", "link"}).
			AddRow(int64(10), int64(1), "A", "Home", 2.1, "https://a.com").
			AddRow(int64(11), int64(1), "B", "Away", 2.2, "https://b.com").
			AddRow(int64(12), int64(2), "A", "Home", 1.8, "https://a.com").
			AddRow(int64(13), int64(2), "B", "Away", 2.3, "https://b.com"))

	events, err := store.ListEventsWithMinOutcomes(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if len(events[0].Outcomes) != 2 || len(events[1].Outcomes) != 2 {
		t.Errorf("outcomes not attached: %d, %d", len(events[0].Outcomes), len(events[1].Outcomes))
	}
	if events[0].ExternalID != "ev-1" || events[1].ExternalID != "ev-2" {
		t.Errorf("unexpected event order: %s, %s", events[0].ExternalID, events[1].ExternalID)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_ListEventsWithMinOutcomes_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("HAVING COUNT").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name", "category"}))

	events, err := store.ListEventsWithMinOutcomes(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if events == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestPostgresStore_Settings(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM settings")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("min_profit_margin", "2.5").
			AddRow("refresh_interval", "60"))

	settings, err := store.Settings(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settings["min_profit_margin"] != "2.5" {
		t.Errorf("min_profit_margin = %q, want 2.5", settings["min_profit_margin"])
	}
	if len(settings) != 2 {
		t.Errorf("expected 2 settings, got %d", len(settings))
	}
}

func TestPostgresStore_PutSetting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).
		WithArgs("min_profit_margin", "3.0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.PutSetting(context.Background(), "min_profit_margin", "3.0")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_UpdateTarget_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scraper_targets")).
		WithArgs(int64(99), "bookie", "https://bookie.com", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateTarget(context.Background(), types.ScraperTarget{
		ID: 99, Name: "bookie", URL: "https://bookie.com", IsActive: true,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_DeleteTarget_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scraper_targets WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteTarget(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
