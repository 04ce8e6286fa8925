package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"podcastd/app/podcast"
)

var _ podcast.EpisodeRepository = (*EpisodeRepository)(nil)

// EpisodeRepository handles database operations for podcast episodes
type EpisodeRepository struct {
	db *DB
}

// NewEpisodeRepository creates a new episode repository
func NewEpisodeRepository(db *DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// CreateEpisode inserts a new episode, assigning its ID and timestamps.
func (r *EpisodeRepository) CreateEpisode(episode *podcast.Episode) error {
	if episode.ID == "" {
		episode.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	episode.CreatedAt = now
	episode.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO podcast_episodes (
			id, channel_id, url, path, title, description,
			published_at, duration, length, bytes_downloaded, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, episode.ID, episode.ChannelID, episode.URL, episode.Path, episode.Title,
		episode.Description, nullableTime(episode.PublishedAt), episode.Duration,
		nullableInt64(episode.Length), episode.BytesDownloaded, string(episode.Status),
		episode.CreatedAt, episode.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}

	return nil
}

// GetEpisode retrieves an episode by ID, returning nil if it does not exist.
func (r *EpisodeRepository) GetEpisode(id string) (*podcast.Episode, error) {
	row := r.db.QueryRow(episodeSelect+` WHERE id = ?`, id)

	episode, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}

	return episode, nil
}

// GetEpisodesByChannel returns every episode of a channel, including logical
// tombstones, newest first. Episodes without a publish time sort after all
// dated episodes; ties keep insertion order, which preserves feed order.
func (r *EpisodeRepository) GetEpisodesByChannel(channelID string) ([]podcast.Episode, error) {
	rows, err := r.db.Query(episodeSelect+`
		WHERE channel_id = ?
		ORDER BY published_at IS NULL, published_at DESC, rowid
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes: %w", err)
	}
	defer rows.Close()

	var episodes []podcast.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, *episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

// UpdateEpisode persists the episode's mutable fields.
func (r *EpisodeRepository) UpdateEpisode(episode *podcast.Episode) error {
	episode.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE podcast_episodes
		SET path = ?, title = ?, description = ?, published_at = ?,
		    duration = ?, length = ?, bytes_downloaded = ?, status = ?,
		    updated_at = ?
		WHERE id = ?
	`, episode.Path, episode.Title, episode.Description, nullableTime(episode.PublishedAt),
		episode.Duration, nullableInt64(episode.Length), episode.BytesDownloaded,
		string(episode.Status), episode.UpdatedAt, episode.ID)

	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}

	return nil
}

// UpdateEpisodeProgress persists the transfer byte count without touching
// any other column.
func (r *EpisodeRepository) UpdateEpisodeProgress(id string, bytesDownloaded int64) error {
	_, err := r.db.Exec(`
		UPDATE podcast_episodes
		SET bytes_downloaded = ?, updated_at = ?
		WHERE id = ?
	`, bytesDownloaded, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update episode progress: %w", err)
	}

	return nil
}

// DeleteEpisode removes the episode record entirely.
func (r *EpisodeRepository) DeleteEpisode(id string) error {
	_, err := r.db.Exec(`DELETE FROM podcast_episodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}

// GetEpisodeCount returns the total number of episode records
func (r *EpisodeRepository) GetEpisodeCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM podcast_episodes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get episode count: %w", err)
	}
	return count, nil
}

const episodeSelect = `
	SELECT id, channel_id, url, path, title, description,
	       published_at, duration, length, bytes_downloaded, status,
	       created_at, updated_at
	FROM podcast_episodes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (*podcast.Episode, error) {
	var episode podcast.Episode
	var publishedAt sql.NullTime
	var length sql.NullInt64
	var status string

	err := row.Scan(
		&episode.ID, &episode.ChannelID, &episode.URL, &episode.Path,
		&episode.Title, &episode.Description, &publishedAt, &episode.Duration,
		&length, &episode.BytesDownloaded, &status,
		&episode.CreatedAt, &episode.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		episode.PublishedAt = &t
	}
	if length.Valid {
		n := length.Int64
		episode.Length = &n
	}
	episode.Status = podcast.Status(status)

	return &episode, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt64(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
