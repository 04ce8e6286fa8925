package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"podcastd/app/tasks"
)

// DeleteEpisode removes an episode's backing file (best effort) and either
// tombstones the record (logical) or removes it entirely. Deleting a
// missing episode is a no-op.
func (s *Service) DeleteEpisode(id string, logical bool) error {
	episode, err := s.episodeRepo.GetEpisode(id)
	if err != nil {
		return err
	}
	if episode == nil {
		return nil
	}

	if episode.Path != "" {
		if err := os.Remove(episode.Path); err != nil && !os.IsNotExist(err) {
			slog.Debug("Failed to remove episode file", "path", episode.Path, "error", err)
		}
	}

	if logical {
		episode.Status = StatusDeleted
		return s.episodeRepo.UpdateEpisode(episode)
	}

	return s.episodeRepo.DeleteEpisode(id)
}

// deleteChannelTask cascades deletion of a channel on the refresh executor,
// so it cannot interleave with a refresh cycle for the same channel.
type deleteChannelTask struct {
	tasks.Task
	service   *Service
	channelID string
}

func newDeleteChannelTask(service *Service, channelID string) *deleteChannelTask {
	return &deleteChannelTask{
		Task:      tasks.NewTask(tasks.TaskTypeDeleteChannel),
		service:   service,
		channelID: channelID,
	}
}

func (t *deleteChannelTask) Execute(ctx context.Context) error {
	return t.service.doDeleteChannel(t.channelID)
}

// doDeleteChannel hard-deletes every episode record, tombstones included,
// with their backing files, then removes the channel itself.
func (s *Service) doDeleteChannel(channelID string) error {
	episodes, err := s.episodeRepo.GetEpisodesByChannel(channelID)
	if err != nil {
		return err
	}

	for _, episode := range episodes {
		if err := s.DeleteEpisode(episode.ID, false); err != nil {
			return fmt.Errorf("failed to delete episode %s: %w", episode.ID, err)
		}
	}

	if err := s.channelRepo.DeleteChannel(channelID); err != nil {
		return err
	}

	slog.Info("Deleted podcast channel", "channel_id", channelID,
		"episodes", len(episodes))
	return nil
}
