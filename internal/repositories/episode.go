package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/openclaw/playlister/internal/models"
)

// EpisodeRepository records episodes inserted by refresh runs, keyed by URI.
//
// The cache is write-once per URI: an episode inserted by a later refresh
// keeps its original row. It exists for history display and analytics, the
// dedup decision itself always runs against the live playlist.
type EpisodeRepository struct {
	db *sql.DB
}

// NewEpisodeRepository creates a new EpisodeRepository with the given database connection
func NewEpisodeRepository(db *sql.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// Record inserts an episode row, ignoring URIs already cached.
func (r *EpisodeRepository) Record(episode *models.CachedEpisode) error {
	if episode.URI == "" {
		return fmt.Errorf("episode URI is required")
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now()
	}

	query := `
		INSERT OR IGNORE INTO episodes (uri, name, show_name, release_date, topic, refresh_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		episode.URI,
		episode.Name,
		episode.ShowName,
		episode.ReleaseDate,
		episode.Topic,
		episode.RefreshID,
		episode.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}

	return nil
}

// GetByURI retrieves a cached episode by its URI
func (r *EpisodeRepository) GetByURI(uri string) (*models.CachedEpisode, error) {
	query := `
		SELECT uri, name, show_name, release_date, topic, refresh_id, created_at
		FROM episodes
		WHERE uri = ?
	`

	var episode models.CachedEpisode
	err := r.db.QueryRow(query, uri).Scan(
		&episode.URI,
		&episode.Name,
		&episode.ShowName,
		&episode.ReleaseDate,
		&episode.Topic,
		&episode.RefreshID,
		&episode.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("episode not found: %s", uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan episode: %w", err)
	}

	return &episode, nil
}

// ListByRefresh retrieves the episodes a refresh run inserted, in insertion order
func (r *EpisodeRepository) ListByRefresh(refreshID string) ([]*models.CachedEpisode, error) {
	query := `
		SELECT uri, name, show_name, release_date, topic, refresh_id, created_at
		FROM episodes
		WHERE refresh_id = ?
		ORDER BY created_at ASC, uri ASC
	`

	rows, err := r.db.Query(query, refreshID)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*models.CachedEpisode
	for rows.Next() {
		var episode models.CachedEpisode
		err := rows.Scan(
			&episode.URI,
			&episode.Name,
			&episode.ShowName,
			&episode.ReleaseDate,
			&episode.Topic,
			&episode.RefreshID,
			&episode.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, &episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return episodes, nil
}

// CountByTopic returns how many cached episodes each topic contributed, for the status view
func (r *EpisodeRepository) CountByTopic() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT topic, COUNT(*) FROM episodes GROUP BY topic`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var topic string
		var count int
		if err := rows.Scan(&topic, &count); err != nil {
			return nil, fmt.Errorf("failed to scan topic count: %w", err)
		}
		counts[topic] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}
