package podcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"podcastd/app/tasks"
)

// ErrWriteDenied is returned when the security gate refuses the destination
// path. The episode keeps its prior status so the next refresh cycle retries
// it once the operator has fixed permissions.
var ErrWriteDenied = errors.New("write access denied")

const transferBufferSize = 4096

// downloadEpisodeTask transfers one episode's enclosure on the download pool.
type downloadEpisodeTask struct {
	tasks.Task
	service   *Service
	episodeID string
}

func newDownloadEpisodeTask(service *Service, episodeID string) *downloadEpisodeTask {
	return &downloadEpisodeTask{
		Task:      tasks.NewTask(tasks.TaskTypeDownloadEpisode),
		service:   service,
		episodeID: episodeID,
	}
}

func (t *downloadEpisodeTask) Execute(ctx context.Context) error {
	return t.service.doDownloadEpisode(ctx, t.episodeID)
}

func (s *Service) doDownloadEpisode(ctx context.Context, episodeID string) error {
	episode, err := s.liveEpisode(episodeID)
	if err != nil {
		return err
	}
	if episode == nil {
		// Deleted between scheduling and execution; benign.
		slog.Info("Episode was deleted, aborting download", "episode_id", episodeID)
		return nil
	}

	if !episode.Status.CanTransition(StatusDownloading) {
		slog.Debug("Episode not eligible for download",
			"episode_id", episodeID, "status", string(episode.Status))
		return nil
	}

	channel, err := s.channelRepo.GetChannel(episode.ChannelID)
	if err != nil {
		return err
	}
	if channel == nil {
		slog.Info("Channel was deleted, aborting download", "episode_id", episodeID)
		return nil
	}

	path, err := s.resolveFile(channel, episode)
	if err != nil {
		if errors.Is(err, ErrWriteDenied) {
			return fmt.Errorf("download of %s aborted: %w", episode.URL, err)
		}
		s.markError(episode)
		return err
	}

	if err := s.transfer(ctx, episode, path); err != nil {
		s.markError(episode)
		return err
	}

	return nil
}

// transfer streams the enclosure to path, checkpointing progress roughly
// every checkpointBytes so a concurrent deletion is observed promptly.
func (s *Service) transfer(ctx context.Context, episode *Episode, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, episode.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch enclosure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	// Persist the in-progress state before the first byte moves so a
	// restart can detect orphaned transfers.
	episode.Status = StatusDownloading
	episode.Path = path
	if err := s.episodeRepo.UpdateEpisode(episode); err != nil {
		return err
	}

	slog.Info("Starting podcast download", "url", episode.URL, "path", path)

	buffer := make([]byte, transferBufferSize)
	var bytesDownloaded int64
	nextCheckpoint := s.checkpointBytes
	deleted := false

	for {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := out.Write(buffer[:n]); writeErr != nil {
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
			bytesDownloaded += int64(n)

			if bytesDownloaded > nextCheckpoint {
				nextCheckpoint += s.checkpointBytes
				if err := s.episodeRepo.UpdateEpisodeProgress(episode.ID, bytesDownloaded); err != nil {
					return err
				}
				live, err := s.liveEpisode(episode.ID)
				if err != nil {
					return err
				}
				if live == nil {
					deleted = true
					break
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read enclosure: %w", readErr)
		}
	}

	if !deleted {
		// The transfer finished; make sure a deletion during the final
		// stretch is still honored.
		live, err := s.liveEpisode(episode.ID)
		if err != nil {
			return err
		}
		deleted = live == nil
	}

	if deleted {
		out.Close()
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove partial file", "path", path, "error", err)
		}
		slog.Info("Episode was deleted, aborting download", "url", episode.URL)
		return nil
	}

	episode.BytesDownloaded = bytesDownloaded
	if err := s.episodeRepo.UpdateEpisodeProgress(episode.ID, bytesDownloaded); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	episode.Status = StatusDownloaded
	if err := s.episodeRepo.UpdateEpisode(episode); err != nil {
		return err
	}

	slog.Info("Podcast download completed",
		"url", episode.URL, "bytes", bytesDownloaded)

	s.deleteObsoleteEpisodes(episode.ChannelID)

	return nil
}

// liveEpisode returns the episode unless it is absent or logically deleted.
func (s *Service) liveEpisode(id string) (*Episode, error) {
	episode, err := s.episodeRepo.GetEpisode(id)
	if err != nil {
		return nil, err
	}
	if episode == nil || episode.Status == StatusDeleted {
		return nil, nil
	}
	return episode, nil
}

func (s *Service) markError(episode *Episode) {
	episode.Status = StatusError
	if err := s.episodeRepo.UpdateEpisode(episode); err != nil {
		slog.Error("Failed to persist episode error status",
			"episode_id", episode.ID, "error", err)
	}
}
