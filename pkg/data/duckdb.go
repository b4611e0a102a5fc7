package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS tiles (
	z INTEGER NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	bytes BIGINT NOT NULL,
	run_id VARCHAR NOT NULL,
	downloaded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (z, x, y)
)`

// InitDuckDB opens (creating if needed) the manifest database at path.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}

	return db, nil
}

// ZoomSummary aggregates the manifest rows of one zoom level.
type ZoomSummary struct {
	Zoom  int
	Tiles int64
	Bytes int64
}

// Repository is the tile manifest: one row per tile written during the last run.
type Repository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewDuckDBRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Reset drops every recorded tile.
func (r *Repository) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`DELETE FROM tiles`)
	return err
}

// SaveTile records a written tile, replacing any previous row for it.
func (r *Repository) SaveTile(tile Tile, size int, runID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO tiles (z, x, y, bytes, run_id, downloaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tile.Z(), tile.X(), tile.Y(), size, runID, at.UTC(),
	)
	return err
}

// CountTiles returns the number of recorded tiles.
func (r *Repository) CountTiles() (int64, error) {
	var n int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tiles`).Scan(&n)
	return n, err
}

// ZoomSummaries returns per-level tile counts and sizes, ordered by zoom.
func (r *Repository) ZoomSummaries() ([]ZoomSummary, error) {
	rows, err := r.db.Query(`SELECT z, COUNT(*), CAST(COALESCE(SUM(bytes), 0) AS BIGINT) FROM tiles GROUP BY z ORDER BY z`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ZoomSummary
	for rows.Next() {
		var s ZoomSummary
		if err := rows.Scan(&s.Zoom, &s.Tiles, &s.Bytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}
