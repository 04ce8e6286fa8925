package podcast

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"podcastd/app/feed"
	"podcastd/app/tasks"
)

const (
	refreshWorkerCount  = 1
	downloadWorkerCount = 3

	// initialRefreshDelay is how long after (re)scheduling the first
	// automatic refresh cycle fires.
	initialRefreshDelay = 5 * time.Minute

	// checkpointInterval is roughly how many bytes are transferred between
	// progress persists and deletion re-checks.
	checkpointInterval int64 = 30000
)

// Service is the podcast engine: it owns the refresh timer, the serialized
// refresh executor and the download worker pool, and coordinates them over
// the persistent store. All public entry points besides the read methods
// submit background work and return immediately.
type Service struct {
	channelRepo ChannelRepository
	episodeRepo EpisodeRepository
	settings    Settings
	indexer     FolderIndexer
	gate        SecurityGate
	parser      *feed.Parser
	httpClient  *http.Client
	userAgent   string

	timer        *tasks.Timer
	refreshPool  *tasks.Pool
	downloadPool *tasks.Pool

	// initialDelay and checkpointBytes default to the package constants;
	// tests shrink them.
	initialDelay    time.Duration
	checkpointBytes int64

	lockMu       sync.Mutex
	channelLocks map[string]*sync.Mutex
}

// NewService wires the engine. The HTTP client is shared by feed fetches and
// enclosure transfers.
func NewService(channelRepo ChannelRepository, episodeRepo EpisodeRepository,
	settings Settings, indexer FolderIndexer, gate SecurityGate,
	httpClient *http.Client, userAgent string) *Service {
	return &Service{
		channelRepo:     channelRepo,
		episodeRepo:     episodeRepo,
		settings:        settings,
		indexer:         indexer,
		gate:            gate,
		parser:          feed.NewParser(),
		httpClient:      httpClient,
		userAgent:       userAgent,
		timer:           tasks.NewTimer(),
		refreshPool:     tasks.NewPool("refresh", refreshWorkerCount),
		downloadPool:    tasks.NewPool("download", downloadWorkerCount),
		initialDelay:    initialRefreshDelay,
		checkpointBytes: checkpointInterval,
		channelLocks:    make(map[string]*sync.Mutex),
	}
}

// Start launches the worker pools and arms the refresh timer from settings.
func (s *Service) Start() {
	s.refreshPool.Start()
	s.downloadPool.Start()
	s.Reschedule()
}

// Stop disarms the timer and drains the pools.
func (s *Service) Stop() {
	s.timer.Cancel()
	s.refreshPool.Stop()
	s.downloadPool.Stop()
}

// Reschedule re-arms the periodic refresh from the current refresh-interval
// setting, replacing any active schedule. A Disabled interval cancels
// automatic refresh entirely. The timer only enqueues work, so rescheduling
// never waits on an in-progress refresh cycle.
func (s *Service) Reschedule() {
	hours := s.settings.RefreshIntervalHours()
	if hours == Disabled {
		s.timer.Cancel()
		slog.Info("Automatic podcast refresh disabled")
		return
	}

	period := time.Duration(hours) * time.Hour
	s.timer.Schedule(s.initialDelay, period, func() {
		s.RefreshAll(true)
	})
	slog.Info("Automatic podcast refresh scheduled",
		"interval_hours", hours, "first_run", time.Now().Add(s.initialDelay))
}

// Subscribe persists a new channel and submits a refresh-and-download cycle
// for it through the same serialized path the periodic refresh uses.
func (s *Service) Subscribe(url string) (*Channel, error) {
	channel := &Channel{URL: url}
	if err := s.channelRepo.CreateChannel(channel); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", url, err)
	}

	s.refreshPool.Enqueue(newRefreshChannelsTask(s, []string{channel.ID}, true))

	return channel, nil
}

// RefreshAll submits a refresh cycle covering every channel. When
// downloadAfter is set, episodes that come out of the cycle as NEW are
// handed to the download pool once all channels are processed.
func (s *Service) RefreshAll(downloadAfter bool) {
	s.refreshPool.Enqueue(newRefreshChannelsTask(s, nil, downloadAfter))
}

// DownloadEpisode submits an episode transfer to the download pool.
func (s *Service) DownloadEpisode(episodeID string) {
	s.downloadPool.Enqueue(newDownloadEpisodeTask(s, episodeID))
}

// DeleteChannel submits cascading deletion of a channel and its episodes.
// It runs on the refresh executor so it cannot interleave with a refresh
// cycle discovering episodes for the same channel.
func (s *Service) DeleteChannel(channelID string) {
	s.refreshPool.Enqueue(newDeleteChannelTask(s, channelID))
}

// Channels returns all subscribed channels.
func (s *Service) Channels() ([]Channel, error) {
	return s.channelRepo.GetAllChannels()
}

// Channel returns one channel, or nil if it does not exist.
func (s *Service) Channel(id string) (*Channel, error) {
	return s.channelRepo.GetChannel(id)
}

// Episodes returns a channel's episodes, newest first. Logical tombstones
// are filtered out unless includeDeleted is set.
func (s *Service) Episodes(channelID string, includeDeleted bool) ([]Episode, error) {
	all, err := s.episodeRepo.GetEpisodesByChannel(channelID)
	if err != nil {
		return nil, err
	}
	if includeDeleted {
		return all, nil
	}

	episodes := make([]Episode, 0, len(all))
	for _, episode := range all {
		if episode.Status != StatusDeleted {
			episodes = append(episodes, episode)
		}
	}
	return episodes, nil
}

// Episode returns one episode, or nil if it does not exist or is logically
// deleted and includeDeleted is unset.
func (s *Service) Episode(id string, includeDeleted bool) (*Episode, error) {
	episode, err := s.episodeRepo.GetEpisode(id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, nil
	}
	if episode.Status == StatusDeleted && !includeDeleted {
		return nil, nil
	}
	return episode, nil
}

// channelLock returns the mutex coordinating download finalization and
// retention for one channel.
func (s *Service) channelLock(channelID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.channelLocks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		s.channelLocks[channelID] = lock
	}
	return lock
}
