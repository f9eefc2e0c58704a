// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/metrics"
)

const timestampLayout = time.RFC3339Nano

// SQLite implements item.Repository using SQLite.
type SQLite struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// Option configures the repository.
type Option func(*SQLite)

// WithMetrics records query timings.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SQLite) { s.metrics = m }
}

// New opens (creating if needed) the database at path and runs migrations.
// The special path ":memory:" gives a private in-memory database.
func New(path string, opts ...Option) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := NewFromDB(conn, opts...)
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewFromDB wraps an open connection without migrating it.
func NewFromDB(conn *sqlx.DB, opts ...Option) *SQLite {
	s := &SQLite{db: conn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// itemRow is the storage shape of an item.
type itemRow struct {
	ID         string         `db:"id"`
	Kind       string         `db:"kind"`
	Title      string         `db:"title"`
	PlanDate   string         `db:"plan_date"`
	StartTime  sql.NullString `db:"start_time"`
	EndTime    sql.NullString `db:"end_time"`
	Recurrence string         `db:"recurrence"`
	DeletedAt  sql.NullString `db:"deleted_at"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

const selectColumns = `SELECT id, kind, title, plan_date, start_time, end_time, recurrence, deleted_at, created_at, updated_at FROM items`

func toRow(it *item.Item) itemRow {
	r := itemRow{
		ID:         it.ID,
		Kind:       string(it.Kind),
		Title:      it.Title,
		PlanDate:   dateutil.FormatDate(it.Date),
		Recurrence: it.Recurrence,
		CreatedAt:  it.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:  it.UpdatedAt.UTC().Format(timestampLayout),
	}
	if it.Span != nil {
		r.StartTime = sql.NullString{String: it.Span.StartClock(), Valid: true}
		r.EndTime = sql.NullString{String: it.Span.EndClock(), Valid: true}
	}
	if it.DeletedAt != nil {
		r.DeletedAt = sql.NullString{String: it.DeletedAt.UTC().Format(timestampLayout), Valid: true}
	}
	return r
}

func (r itemRow) toItem() (item.Item, error) {
	it := item.Item{
		ID:         r.ID,
		Kind:       item.Kind(r.Kind),
		Title:      r.Title,
		Recurrence: r.Recurrence,
	}

	var err error
	it.Date, err = parseDate(r.PlanDate)
	if err != nil {
		return item.Item{}, fmt.Errorf("parsing plan date: %w", err)
	}

	if r.StartTime.Valid && r.EndTime.Valid {
		span, err := item.ParseSpan(r.StartTime.String, r.EndTime.String)
		if err != nil {
			return item.Item{}, fmt.Errorf("parsing span of %s: %w", r.ID, err)
		}
		it.Span = &span
	}

	if r.DeletedAt.Valid {
		deleted, err := time.Parse(timestampLayout, r.DeletedAt.String)
		if err != nil {
			return item.Item{}, fmt.Errorf("parsing deleted at: %w", err)
		}
		it.DeletedAt = &deleted
	}

	if it.CreatedAt, err = time.Parse(timestampLayout, r.CreatedAt); err != nil {
		return item.Item{}, fmt.Errorf("parsing created at: %w", err)
	}
	if it.UpdatedAt, err = time.Parse(timestampLayout, r.UpdatedAt); err != nil {
		return item.Item{}, fmt.Errorf("parsing updated at: %w", err)
	}
	return it, nil
}

func toItems(rows []itemRow) ([]item.Item, error) {
	items := make([]item.Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *SQLite) observe(label string, start time.Time) {
	s.metrics.ObserveDBQuery(label, time.Since(start))
}

// ListEvents returns the live events dated on day.
func (s *SQLite) ListEvents(ctx context.Context, day time.Time) ([]item.Item, error) {
	defer s.observe("list_events", time.Now())

	query := selectColumns + `
		WHERE kind = 'event' AND deleted_at IS NULL AND plan_date = ?
		ORDER BY start_time IS NULL, start_time, created_at
	`
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, dateutil.FormatDate(day)); err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return toItems(rows)
}

// ListTasks returns live tasks dated on day and recurring tasks anchored on
// or before it.
func (s *SQLite) ListTasks(ctx context.Context, day time.Time) ([]item.Item, error) {
	defer s.observe("list_tasks", time.Now())

	query := selectColumns + `
		WHERE kind = 'task' AND deleted_at IS NULL
		  AND (plan_date = ? OR (recurrence <> '' AND plan_date <= ?))
		ORDER BY start_time IS NULL, start_time, created_at
	`
	d := dateutil.FormatDate(day)
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, d, d); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return toItems(rows)
}

// GetItem retrieves an item by ID, including items in the trash.
func (s *SQLite) GetItem(ctx context.Context, id string) (*item.Item, error) {
	defer s.observe("get_item", time.Now())

	var r itemRow
	err := s.db.GetContext(ctx, &r, selectColumns+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	it, err := r.toItem()
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem inserts a new item.
func (s *SQLite) CreateItem(ctx context.Context, it *item.Item) error {
	defer s.observe("create_item", time.Now())

	if it.ID == "" {
		return errors.New("item id must be set")
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	query := `
		INSERT INTO items (
			id, kind, title, plan_date, start_time, end_time,
			recurrence, deleted_at, created_at, updated_at
		) VALUES (
			:id, :kind, :title, :plan_date, :start_time, :end_time,
			:recurrence, :deleted_at, :created_at, :updated_at
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, toRow(it)); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// UpdateItem rewrites a live item's title, date, span and recurrence.
func (s *SQLite) UpdateItem(ctx context.Context, it *item.Item) error {
	defer s.observe("update_item", time.Now())

	it.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE items SET
			title = :title, plan_date = :plan_date,
			start_time = :start_time, end_time = :end_time,
			recurrence = :recurrence, updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL
	`
	result, err := s.db.NamedExecContext(ctx, query, toRow(it))
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectOne(result, it.ID)
}

// RescheduleItem moves a live item to another day keeping its span.
func (s *SQLite) RescheduleItem(ctx context.Context, id string, day time.Time) error {
	defer s.observe("reschedule_item", time.Now())

	query := `UPDATE items SET plan_date = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, dateutil.FormatDate(day), now(), id)
	if err != nil {
		return fmt.Errorf("rescheduling item: %w", err)
	}
	return expectOne(result, id)
}

// DeleteItem moves a live item to the trash.
func (s *SQLite) DeleteItem(ctx context.Context, id string) error {
	defer s.observe("delete_item", time.Now())

	ts := now()
	query := `UPDATE items SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, ts, ts, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectOne(result, id)
}

// RestoreItem takes an item out of the trash.
func (s *SQLite) RestoreItem(ctx context.Context, id string) error {
	defer s.observe("restore_item", time.Now())

	query := `UPDATE items SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`
	result, err := s.db.ExecContext(ctx, query, now(), id)
	if err != nil {
		return fmt.Errorf("restoring item: %w", err)
	}
	return expectOne(result, id)
}

// ListDeleted returns the trash, most recently deleted first.
func (s *SQLite) ListDeleted(ctx context.Context) ([]item.Item, error) {
	defer s.observe("list_deleted", time.Now())

	query := selectColumns + ` WHERE deleted_at IS NOT NULL ORDER BY deleted_at DESC`
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying trash: %w", err)
	}
	return toItems(rows)
}

// PurgeDeleted permanently removes items trashed before cutoff.
func (s *SQLite) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	defer s.observe("purge_deleted", time.Now())

	query := `DELETE FROM items WHERE deleted_at IS NOT NULL AND deleted_at < ?`
	result, err := s.db.ExecContext(ctx, query, cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("purging trash: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}
	return n, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

// parseDate parses a plan date. Dates are stored as YYYY-MM-DD; older
// rows written by other tools may carry a time component.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateutil.Layout, s); err == nil {
		return t, nil
	}
	if len(s) >= 10 {
		if t, err := time.Parse(dateutil.Layout, s[:10]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

var _ item.Repository = (*SQLite)(nil)
