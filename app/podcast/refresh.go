package podcast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"podcastd/app/feed"
	"podcastd/app/tasks"
)

const fetchTimeout = 60 * time.Second

// refreshChannelsTask runs one refresh cycle over the given channels (all
// channels when channelIDs is nil) on the single-worker refresh executor.
type refreshChannelsTask struct {
	tasks.Task
	service       *Service
	channelIDs    []string
	downloadAfter bool
}

func newRefreshChannelsTask(service *Service, channelIDs []string, downloadAfter bool) *refreshChannelsTask {
	return &refreshChannelsTask{
		Task:          tasks.NewTask(tasks.TaskTypeRefreshChannels),
		service:       service,
		channelIDs:    channelIDs,
		downloadAfter: downloadAfter,
	}
}

func (t *refreshChannelsTask) Execute(ctx context.Context) error {
	return t.service.doRefreshChannels(ctx, t.channelIDs, t.downloadAfter)
}

// doRefreshChannels fetches and ingests each channel's feed in turn. A
// failing channel is logged and skipped; it never aborts its siblings and is
// retried on the next cycle.
func (s *Service) doRefreshChannels(ctx context.Context, channelIDs []string, downloadAfter bool) error {
	channels, err := s.resolveChannels(channelIDs)
	if err != nil {
		return err
	}

	for i := range channels {
		if err := s.refreshChannel(ctx, &channels[i]); err != nil {
			slog.Warn("Failed to refresh podcast channel",
				"url", channels[i].URL, "error", err)
		}
	}

	if downloadAfter {
		s.downloadNewEpisodes()
	}

	return nil
}

func (s *Service) resolveChannels(channelIDs []string) ([]Channel, error) {
	if channelIDs == nil {
		channels, err := s.channelRepo.GetAllChannels()
		if err != nil {
			return nil, fmt.Errorf("failed to list channels: %w", err)
		}
		return channels, nil
	}

	var channels []Channel
	for _, id := range channelIDs {
		channel, err := s.channelRepo.GetChannel(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get channel: %w", err)
		}
		if channel == nil {
			continue
		}
		channels = append(channels, *channel)
	}
	return channels, nil
}

func (s *Service) refreshChannel(ctx context.Context, channel *Channel) error {
	data, err := s.fetch(ctx, channel.URL)
	if err != nil {
		return err
	}

	metadata, items, err := s.parser.Run(data)
	if err != nil {
		return err
	}

	channel.Title = metadata.Title
	channel.Description = metadata.Description
	if err := s.channelRepo.UpdateChannel(channel); err != nil {
		return err
	}

	return s.ingestItems(channel, items)
}

// ingestItems creates episode records for feed entries not yet known to the
// channel. Known enclosure URLs, including those of logically deleted
// episodes, are skipped so a tombstone is never rediscovered.
func (s *Service) ingestItems(channel *Channel, items []feed.Item) error {
	existing, err := s.episodeRepo.GetEpisodesByChannel(channel.ID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing))
	for _, episode := range existing {
		seen[episode.URL] = true
	}

	var candidates []Episode
	for _, item := range items {
		if item.EnclosureURL == "" {
			slog.Debug("Feed entry has no enclosure, skipping",
				"channel", channel.Title, "title", item.Title)
			continue
		}
		if seen[item.EnclosureURL] {
			continue
		}
		seen[item.EnclosureURL] = true

		candidates = append(candidates, Episode{
			ChannelID:   channel.ID,
			URL:         item.EnclosureURL,
			Title:       item.Title,
			Description: item.Description,
			PublishedAt: item.PublishedAt,
			Duration:    item.Duration,
			Length:      item.EnclosureLength,
		})
	}

	// Newest first; unknown publish times go last, ties keep feed order.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].PublishedAt, candidates[j].PublishedAt
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})

	downloadCount := s.settings.EpisodeDownloadCount()

	for i := range candidates {
		candidates[i].Status = InitialStatus(i, downloadCount)
		if err := s.episodeRepo.CreateEpisode(&candidates[i]); err != nil {
			return err
		}
		slog.Info("Created podcast episode",
			"channel", channel.Title, "title", candidates[i].Title,
			"status", string(candidates[i].Status))
	}

	return nil
}

// downloadNewEpisodes submits every NEW episode across all channels to the
// download pool.
func (s *Service) downloadNewEpisodes() {
	channels, err := s.channelRepo.GetAllChannels()
	if err != nil {
		slog.Error("Failed to list channels for download pass", "error", err)
		return
	}

	for _, channel := range channels {
		episodes, err := s.Episodes(channel.ID, false)
		if err != nil {
			slog.Error("Failed to list episodes for download pass",
				"channel", channel.Title, "error", err)
			continue
		}
		for _, episode := range episodes {
			if episode.Status == StatusNew && episode.URL != "" {
				s.DownloadEpisode(episode.ID)
			}
		}
	}
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
