package podcast

import (
	"log/slog"
)

// deleteObsoleteEpisodes enforces the retention cap for one channel: every
// non-deleted episode beyond the newest cap is hard-deleted, oldest first.
// It backs off entirely while any episode of the channel is DOWNLOADING so a
// slot an in-flight transfer still needs is never purged. The check and the
// deletes are not cross-row transactional; the narrow race this leaves is
// self-healing on the next pass.
func (s *Service) deleteObsoleteEpisodes(channelID string) {
	lock := s.channelLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	retention := s.settings.EpisodeRetentionCount()
	if retention == Unlimited {
		return
	}

	episodes, err := s.Episodes(channelID, false)
	if err != nil {
		slog.Error("Failed to list episodes for retention",
			"channel_id", channelID, "error", err)
		return
	}

	for _, episode := range episodes {
		if episode.Status == StatusDownloading {
			return
		}
	}

	// Episodes are newest first; walk from the tail to purge oldest first.
	toDelete := len(episodes) - retention
	for i := 0; i < toDelete; i++ {
		episode := episodes[len(episodes)-1-i]
		if err := s.DeleteEpisode(episode.ID, false); err != nil {
			slog.Error("Failed to delete old podcast episode",
				"url", episode.URL, "error", err)
			continue
		}
		slog.Info("Deleted old podcast episode", "url", episode.URL)
	}
}
