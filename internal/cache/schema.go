package cache

// schemaSQL defines the SQLite schema for the derived-data cache.
// Tables:
//   - burndown_points: cached burndown samples per store content hash and window
//   - burndown_warnings: excluded-milestone warnings belonging to a cached series
//   - store_state: records when a store content hash was last computed
const schemaSQL = `
CREATE TABLE IF NOT EXISTS burndown_points (
    store_hash TEXT NOT NULL,
    months INTEGER NOT NULL,
    sample_date TEXT NOT NULL,
    remaining REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (store_hash, months, sample_date)
);

CREATE TABLE IF NOT EXISTS burndown_warnings (
    store_hash TEXT NOT NULL,
    months INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    warning TEXT NOT NULL,
    PRIMARY KEY (store_hash, months, seq)
);

CREATE TABLE IF NOT EXISTS store_state (
    store_hash TEXT PRIMARY KEY,
    computed_at TEXT NOT NULL
);
`

// initSchema creates the tables if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
