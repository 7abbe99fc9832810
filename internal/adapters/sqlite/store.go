// Package sqlite provides a SQLite-backed implementation of the observation
// store port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Store implements the observation store port for SQLite.
type Store struct {
	db *sql.DB
}

var _ ports.ObservationStore = (*Store)(nil)

// NewStore creates a connection and runs the schema migration.
func NewStore(storagePath string) (*Store, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close ensures the DB connection is closed gracefully.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		view_count INTEGER NOT NULL,
		published_at TEXT NOT NULL,
		observed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_observations_video_observed
		ON observations(video_id, observed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append writes one observation row. Rows are never updated in place; the
// history stays intact and readers pick the latest row per video.
func (s *Store) Append(ctx context.Context, obs domain.Observation) error {
	query := `
		INSERT INTO observations (video_id, title, view_count, published_at, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(
		ctx,
		query,
		obs.VideoID,
		obs.Title,
		obs.ViewCount,
		obs.PublishedAt.Format("2006-01-02"),
		obs.ObservedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to append observation: %w", err)
	}

	return nil
}

// Latest returns the most recent observation per video ID.
func (s *Store) Latest(ctx context.Context) (map[string]domain.Observation, error) {
	query := `
		SELECT o.video_id, o.title, o.view_count, o.published_at, o.observed_at
		FROM observations o
		WHERE o.observed_at = (
			SELECT MAX(observed_at) FROM observations WHERE video_id = o.video_id
		)
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]domain.Observation)
	for rows.Next() {
		var obs domain.Observation
		var published, observed string
		if err := rows.Scan(&obs.VideoID, &obs.Title, &obs.ViewCount, &published, &observed); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		if obs.PublishedAt, err = time.Parse("2006-01-02", published); err != nil {
			return nil, fmt.Errorf("failed to parse published_at: %w", err)
		}
		if obs.ObservedAt, err = time.Parse(time.RFC3339, observed); err != nil {
			return nil, fmt.Errorf("failed to parse observed_at: %w", err)
		}
		latest[obs.VideoID] = obs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return latest, nil
}
