package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"podcastd/app/podcast"
)

// Setting keys.
const (
	SettingRefreshIntervalHours  = "refresh_interval_hours"
	SettingEpisodeDownloadCount  = "episode_download_count"
	SettingEpisodeRetentionCount = "episode_retention_count"
	SettingPodcastFolder         = "podcast_folder"
)

var _ podcast.Settings = (*SettingsRepository)(nil)

// SettingsRepository stores runtime settings as key/value rows. Typed
// accessors fall back to the seed defaults on missing or malformed values,
// so lookups from background workers never fail.
type SettingsRepository struct {
	db *DB

	defaultRefreshIntervalHours  int
	defaultEpisodeDownloadCount  int
	defaultEpisodeRetentionCount int
	defaultPodcastFolder         string
}

// NewSettingsRepository creates a settings repository with the given defaults.
func NewSettingsRepository(db *DB, refreshIntervalHours, episodeDownloadCount,
	episodeRetentionCount int, podcastFolder string) *SettingsRepository {
	return &SettingsRepository{
		db:                           db,
		defaultRefreshIntervalHours:  refreshIntervalHours,
		defaultEpisodeDownloadCount:  episodeDownloadCount,
		defaultEpisodeRetentionCount: episodeRetentionCount,
		defaultPodcastFolder:         podcastFolder,
	}
}

// Get returns the raw value for key, or "" if unset.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// SetInt stores an integer value for key.
func (r *SettingsRepository) SetInt(key string, value int) error {
	return r.Set(key, strconv.Itoa(value))
}

func (r *SettingsRepository) intSetting(key string, fallback int) int {
	value, err := r.Get(key)
	if err != nil {
		slog.Warn("Failed to read setting, using default", "key", key, "error", err)
		return fallback
	}
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Malformed setting, using default", "key", key, "value", value)
		return fallback
	}
	return n
}

// RefreshIntervalHours returns the hours between automatic refresh cycles,
// or podcast.Disabled.
func (r *SettingsRepository) RefreshIntervalHours() int {
	return r.intSetting(SettingRefreshIntervalHours, r.defaultRefreshIntervalHours)
}

// EpisodeDownloadCount returns the download-count cap, or podcast.Unlimited.
func (r *SettingsRepository) EpisodeDownloadCount() int {
	return r.intSetting(SettingEpisodeDownloadCount, r.defaultEpisodeDownloadCount)
}

// EpisodeRetentionCount returns the retention cap, or podcast.Unlimited.
func (r *SettingsRepository) EpisodeRetentionCount() int {
	return r.intSetting(SettingEpisodeRetentionCount, r.defaultEpisodeRetentionCount)
}

// PodcastFolder returns the base directory for downloaded episodes.
func (r *SettingsRepository) PodcastFolder() string {
	value, err := r.Get(SettingPodcastFolder)
	if err != nil || value == "" {
		return r.defaultPodcastFolder
	}
	return value
}
