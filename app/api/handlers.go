package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"podcastd/app/database"
	"podcastd/app/podcast"
)

func NewHandler(service *podcast.Service, channelRepo *database.ChannelRepository,
	episodeRepo *database.EpisodeRepository, settings *database.SettingsRepository) *Handler {
	return &Handler{
		service:     service,
		channelRepo: channelRepo,
		episodeRepo: episodeRepo,
		settings:    settings,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if channelCount, err := h.channelRepo.GetChannelCount(); err == nil {
		health["channels"] = channelCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if channelCount, err := h.channelRepo.GetChannelCount(); err == nil {
		stats["channels"] = channelCount
	}
	if episodeCount, err := h.episodeRepo.GetEpisodeCount(); err == nil {
		stats["episodes"] = episodeCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.service.Channels()
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]gin.H, 0, len(channels))
	for i := range channels {
		list = append(list, channelJSON(&channels[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": list,
		"total":    len(list),
	})
}

func (h *Handler) CreateChannel(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid url"})
		return
	}

	channel, err := h.service.Subscribe(req.URL)
	if err != nil {
		slog.Error("Failed to subscribe", "url", req.URL, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to subscribe to feed"})
		return
	}

	c.JSON(http.StatusCreated, channelJSON(channel))
}

func (h *Handler) GetChannel(c *gin.Context) {
	channel, ok := h.findChannel(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, channelJSON(channel))
}

func (h *Handler) DeleteChannel(c *gin.Context) {
	channel, ok := h.findChannel(c)
	if !ok {
		return
	}

	h.service.DeleteChannel(channel.ID)

	c.JSON(http.StatusAccepted, gin.H{"deleted": channel.ID})
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	channel, ok := h.findChannel(c)
	if !ok {
		return
	}

	includeDeleted := c.Query("include_deleted") == "true"
	episodes, err := h.service.Episodes(channel.ID, includeDeleted)
	if err != nil {
		slog.Error("Database error", "operation", "list_episodes",
			"channel_id", channel.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]gin.H, 0, len(episodes))
	for i := range episodes {
		list = append(list, episodeJSON(&episodes[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"episodes": list,
		"total":    len(list),
	})
}

func (h *Handler) RefreshAll(c *gin.Context) {
	h.service.RefreshAll(true)
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh scheduled"})
}

func (h *Handler) GetEpisode(c *gin.Context) {
	episode, ok := h.findEpisode(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, episodeJSON(episode))
}

func (h *Handler) DownloadEpisode(c *gin.Context) {
	episode, ok := h.findEpisode(c)
	if !ok {
		return
	}

	h.service.DownloadEpisode(episode.ID)

	c.JSON(http.StatusAccepted, gin.H{"status": "download scheduled"})
}

func (h *Handler) DeleteEpisode(c *gin.Context) {
	episode, ok := h.findEpisode(c)
	if !ok {
		return
	}

	logical := c.Query("logical") == "true"
	if err := h.service.DeleteEpisode(episode.ID, logical); err != nil {
		slog.Error("Failed to delete episode", "episode_id", episode.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete episode"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": episode.ID, "logical": logical})
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"refresh_interval_hours":  h.settings.RefreshIntervalHours(),
		"episode_download_count":  h.settings.EpisodeDownloadCount(),
		"episode_retention_count": h.settings.EpisodeRetentionCount(),
		"podcast_folder":          h.settings.PodcastFolder(),
	})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return
	}

	if req.RefreshIntervalHours != nil {
		if err := h.settings.SetInt(database.SettingRefreshIntervalHours, *req.RefreshIntervalHours); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
			return
		}
		// The refresh schedule tracks this setting.
		h.service.Reschedule()
	}
	if req.EpisodeDownloadCount != nil {
		if err := h.settings.SetInt(database.SettingEpisodeDownloadCount, *req.EpisodeDownloadCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
			return
		}
	}
	if req.EpisodeRetentionCount != nil {
		if err := h.settings.SetInt(database.SettingEpisodeRetentionCount, *req.EpisodeRetentionCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
			return
		}
	}
	if req.PodcastFolder != nil {
		if err := h.settings.Set(database.SettingPodcastFolder, *req.PodcastFolder); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
			return
		}
	}

	h.GetSettings(c)
}

func (h *Handler) findChannel(c *gin.Context) (*podcast.Channel, bool) {
	id := c.Param("id")
	channel, err := h.service.Channel(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_channel", "channel_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return nil, false
	}
	return channel, true
}

func (h *Handler) findEpisode(c *gin.Context) (*podcast.Episode, bool) {
	id := c.Param("id")
	episode, err := h.service.Episode(id, true)
	if err != nil {
		slog.Error("Database error", "operation", "get_episode", "episode_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if episode == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Episode not found"})
		return nil, false
	}
	return episode, true
}

func channelJSON(channel *podcast.Channel) gin.H {
	return gin.H{
		"id":          channel.ID,
		"url":         channel.URL,
		"title":       channel.Title,
		"description": channel.Description,
		"created_at":  channel.CreatedAt,
		"updated_at":  channel.UpdatedAt,
	}
}

func episodeJSON(episode *podcast.Episode) gin.H {
	return gin.H{
		"id":               episode.ID,
		"channel_id":       episode.ChannelID,
		"url":              episode.URL,
		"path":             episode.Path,
		"title":            episode.Title,
		"description":      episode.Description,
		"published_at":     episode.PublishedAt,
		"duration":         episode.Duration,
		"length":           episode.Length,
		"bytes_downloaded": episode.BytesDownloaded,
		"status":           string(episode.Status),
		"created_at":       episode.CreatedAt,
		"updated_at":       episode.UpdatedAt,
	}
}
