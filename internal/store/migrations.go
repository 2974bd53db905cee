package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per mode run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			end_reason TEXT NOT NULL DEFAULT ''
		)`,

		// Per-kind action totals of a finished run
		`CREATE TABLE IF NOT EXISTS session_actions (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, kind)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
