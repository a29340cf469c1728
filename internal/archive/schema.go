package archive

import "database/sql"

// InitSchema ensures the DB has the tables needed for snapshot archiving.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            command TEXT NOT NULL,
            request_url TEXT NOT NULL,
            fetched_at TEXT NOT NULL,
            item_count INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at)`,
		`CREATE TABLE IF NOT EXISTS snapshot_items (
            snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            url TEXT NOT NULL,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            needs_further_processing INTEGER NOT NULL DEFAULT 0,
            source TEXT NOT NULL,
            timestamp TEXT,
            PRIMARY KEY (snapshot_id, position)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_items_source ON snapshot_items(source)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_items_url ON snapshot_items(url)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
