package db

import "fmt"

// migrations are applied in order; the schema version is the number of
// migrations already run, kept in PRAGMA user_version.
var migrations = []string{
	`
		CREATE TABLE IF NOT EXISTS intervals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			date         DATE NOT NULL,
			label        TEXT NOT NULL,
			category     TEXT NOT NULL DEFAULT '',
			start_min    INTEGER NOT NULL CHECK(start_min >= 0),
			end_min      INTEGER NOT NULL CHECK(end_min > start_min AND end_min <= 1440),
			color        TEXT NOT NULL DEFAULT '',
			participants TEXT NOT NULL DEFAULT '[]',
			notes        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_intervals_date ON intervals(date);
	`,
	`
		CREATE TABLE IF NOT EXISTS rules (
			id         TEXT PRIMARY KEY,
			subject_a  TEXT NOT NULL,
			subject_b  TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS tokens (
			id         TEXT PRIMARY KEY,
			label      TEXT NOT NULL,
			remaining  INTEGER NOT NULL CHECK(remaining >= 0),
			usage      INTEGER NOT NULL DEFAULT 0,
			duration   INTEGER NOT NULL DEFAULT 0,
			color      TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS placements (
			id         TEXT PRIMARY KEY,
			token_id   TEXT NOT NULL REFERENCES tokens(id) ON DELETE CASCADE,
			date       DATE NOT NULL,
			slot       INTEGER NOT NULL,
			span       INTEGER NOT NULL DEFAULT 1,
			col        INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_placements_date ON placements(date);
	`,
}

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("recording schema version %d: %w", i+1, err)
		}
	}

	return nil
}
