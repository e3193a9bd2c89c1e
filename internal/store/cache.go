// Package store caches completed extractions keyed by post shortcode so
// repeated requests for the same post skip the browser and inference paths.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/frierosdesign/eventsync/internal/types"
)

// Cache is the SQLite-backed extraction cache. Entries expire after the
// configured TTL; SweepExpired removes them.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// New opens (or creates) the cache database at path.
func New(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	c := &Cache{db: db, ttl: ttl}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS extractions (
		shortcode TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		confidence REAL NOT NULL,
		source TEXT NOT NULL,
		extracted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_extractions_extracted_at ON extractions(extracted_at);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Put inserts or replaces the cached extraction for its shortcode.
func (c *Cache) Put(data *types.CanonicalExtractedData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode extraction: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO extractions (shortcode, payload, confidence, source, extracted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(shortcode) DO UPDATE SET
			payload = excluded.payload,
			confidence = excluded.confidence,
			source = excluded.source,
			extracted_at = excluded.extracted_at
	`, data.Metadata.PostShortcode, string(payload), data.Metadata.Confidence,
		string(data.Metadata.Source), data.Metadata.ExtractedAt.UTC())

	return err
}

// Get returns the cached extraction for a shortcode, if present and not
// older than the TTL.
func (c *Cache) Get(shortcode string) (*types.CanonicalExtractedData, bool) {
	var payload string
	var extractedAt time.Time

	err := c.db.QueryRow(`
		SELECT payload, extracted_at FROM extractions WHERE shortcode = ?
	`, shortcode).Scan(&payload, &extractedAt)
	if err != nil {
		return nil, false
	}

	if c.ttl > 0 && time.Since(extractedAt) > c.ttl {
		return nil, false
	}

	var data types.CanonicalExtractedData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, false
	}

	return &data, true
}

// SweepExpired deletes entries past the TTL and reports how many went.
func (c *Cache) SweepExpired() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	res, err := c.db.Exec(`
		DELETE FROM extractions WHERE extracted_at < ?
	`, time.Now().UTC().Add(-c.ttl))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
