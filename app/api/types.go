package api

import (
	"podcastd/app/database"
	"podcastd/app/podcast"
)

type Handler struct {
	service     *podcast.Service
	channelRepo *database.ChannelRepository
	episodeRepo *database.EpisodeRepository
	settings    *database.SettingsRepository
}

type subscribeRequest struct {
	URL string `json:"url" binding:"required"`
}

// settingsRequest carries a partial settings update; absent fields keep
// their current value.
type settingsRequest struct {
	RefreshIntervalHours  *int    `json:"refresh_interval_hours"`
	EpisodeDownloadCount  *int    `json:"episode_download_count"`
	EpisodeRetentionCount *int    `json:"episode_retention_count"`
	PodcastFolder         *string `json:"podcast_folder"`
}
