// Package cache provides SQLite-backed caching of derived milestone data.
// The cache is stored in .msr/cache.db and lets the build orchestrator skip
// recomputing the burndown series and summary stats when the milestone
// store is unchanged. Everything in it is derived; deleting it is safe.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skysurvey/msr/internal/burndown"
)

// Cache manages the .msr/cache.db SQLite database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in the given .msr directory and
// initializes the schema if needed.
func Open(msrDir string) (*Cache, error) {
	dbPath := filepath.Join(msrDir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &Cache{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Clear removes all cached data.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM burndown_points; DELETE FROM burndown_warnings; DELETE FROM store_state;")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// PutSeries stores the burndown series computed for a store content hash
// and window, replacing any previous series for that key. Warnings are
// persisted with the points so a cache hit reports the same exclusions as
// a fresh computation.
func (c *Cache) PutSeries(storeHash string, months int, s *burndown.Series) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM burndown_points WHERE store_hash = ? AND months = ?",
		storeHash, months); err != nil {
		return fmt.Errorf("clear old series: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM burndown_warnings WHERE store_hash = ? AND months = ?",
		storeHash, months); err != nil {
		return fmt.Errorf("clear old warnings: %w", err)
	}
	for _, p := range s.Points {
		if _, err := tx.Exec(`
			INSERT INTO burndown_points (store_hash, months, sample_date, remaining)
			VALUES (?, ?, ?, ?)`,
			storeHash, months, p.Date.Format(time.RFC3339), p.Remaining); err != nil {
			return fmt.Errorf("insert series point: %w", err)
		}
	}
	for i, w := range s.Warnings {
		if _, err := tx.Exec(`
			INSERT INTO burndown_warnings (store_hash, months, seq, warning)
			VALUES (?, ?, ?, ?)`,
			storeHash, months, i, w); err != nil {
			return fmt.Errorf("insert series warning: %w", err)
		}
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO store_state (store_hash, computed_at)
		VALUES (?, ?)`,
		storeHash, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record store state: %w", err)
	}

	return tx.Commit()
}

// GetSeries retrieves a cached burndown series. Returns sql.ErrNoRows when
// nothing is cached for the key.
func (c *Cache) GetSeries(storeHash string, months int) (*burndown.Series, error) {
	rows, err := c.db.Query(`
		SELECT sample_date, remaining FROM burndown_points
		WHERE store_hash = ? AND months = ?
		ORDER BY sample_date`,
		storeHash, months)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	s := &burndown.Series{}
	for rows.Next() {
		var dateStr string
		var p burndown.Point
		if err := rows.Scan(&dateStr, &p.Remaining); err != nil {
			return nil, fmt.Errorf("scan series point: %w", err)
		}
		p.Date, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse sample date %q: %w", dateStr, err)
		}
		s.Points = append(s.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	if len(s.Points) == 0 {
		return nil, sql.ErrNoRows
	}

	wrows, err := c.db.Query(`
		SELECT warning FROM burndown_warnings
		WHERE store_hash = ? AND months = ?
		ORDER BY seq`,
		storeHash, months)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer wrows.Close()
	for wrows.Next() {
		var w string
		if err := wrows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		s.Warnings = append(s.Warnings, w)
	}
	if err := wrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	// One warning is recorded per excluded milestone.
	s.Excluded = len(s.Warnings)

	return s, nil
}

// HashFiles computes a content hash over the given files in order, for use
// as a store state key.
func HashFiles(paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		io.WriteString(h, path+"\x00")
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		f.Close()
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
