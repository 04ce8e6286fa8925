package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"podcastd/app/podcast"
)

var _ podcast.ChannelRepository = (*ChannelRepository)(nil)

// ChannelRepository handles database operations for podcast channels
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// CreateChannel inserts a new channel, assigning its ID and timestamps.
func (r *ChannelRepository) CreateChannel(channel *podcast.Channel) error {
	if channel.ID == "" {
		channel.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	channel.CreatedAt = now
	channel.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO podcast_channels (id, url, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, channel.ID, channel.URL, channel.Title, channel.Description, channel.CreatedAt, channel.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel by ID, returning nil if it does not exist.
func (r *ChannelRepository) GetChannel(id string) (*podcast.Channel, error) {
	var channel podcast.Channel
	err := r.db.QueryRow(`
		SELECT id, url, title, description, created_at, updated_at
		FROM podcast_channels
		WHERE id = ?
	`, id).Scan(
		&channel.ID, &channel.URL, &channel.Title, &channel.Description,
		&channel.CreatedAt, &channel.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return &channel, nil
}

// GetAllChannels returns all channels in subscription order.
func (r *ChannelRepository) GetAllChannels() ([]podcast.Channel, error) {
	rows, err := r.db.Query(`
		SELECT id, url, title, description, created_at, updated_at
		FROM podcast_channels
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}
	defer rows.Close()

	var channels []podcast.Channel
	for rows.Next() {
		var channel podcast.Channel
		err := rows.Scan(
			&channel.ID, &channel.URL, &channel.Title, &channel.Description,
			&channel.CreatedAt, &channel.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}

// UpdateChannel persists the channel's mutable fields.
func (r *ChannelRepository) UpdateChannel(channel *podcast.Channel) error {
	channel.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE podcast_channels
		SET url = ?, title = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, channel.URL, channel.Title, channel.Description, channel.UpdatedAt, channel.ID)

	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}

	return nil
}

// DeleteChannel removes the channel record.
func (r *ChannelRepository) DeleteChannel(id string) error {
	_, err := r.db.Exec(`DELETE FROM podcast_channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

// GetChannelCount returns the total number of channels
func (r *ChannelRepository) GetChannelCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM podcast_channels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get channel count: %w", err)
	}
	return count, nil
}
