package db

import "fmt"

// migrate runs database migrations.
// Dates and timestamps are TEXT so the driver hands them back verbatim.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL CHECK(kind IN ('event', 'task')),
			title       TEXT NOT NULL,
			plan_date   TEXT NOT NULL,
			start_time  TEXT,
			end_time    TEXT,
			recurrence  TEXT NOT NULL DEFAULT '',
			deleted_at  TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			CHECK ((start_time IS NULL) = (end_time IS NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_items_day ON items(kind, plan_date);
		CREATE INDEX IF NOT EXISTS idx_items_deleted ON items(deleted_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	return nil
}
