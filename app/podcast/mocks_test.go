package podcast

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*Channel
	order    []string
}

func newMemChannelRepo() *memChannelRepo {
	return &memChannelRepo{channels: make(map[string]*Channel)}
}

func (r *memChannelRepo) CreateChannel(channel *Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.channels {
		if existing.URL == channel.URL {
			return fmt.Errorf("channel with URL %s already exists", channel.URL)
		}
	}

	channel.ID = uuid.New().String()
	copied := *channel
	r.channels[channel.ID] = &copied
	r.order = append(r.order, channel.ID)
	return nil
}

func (r *memChannelRepo) GetChannel(id string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	copied := *channel
	return &copied, nil
}

func (r *memChannelRepo) GetAllChannels() ([]Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make([]Channel, 0, len(r.order))
	for _, id := range r.order {
		if channel, ok := r.channels[id]; ok {
			channels = append(channels, *channel)
		}
	}
	return channels, nil
}

func (r *memChannelRepo) UpdateChannel(channel *Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channel.ID]; !ok {
		return fmt.Errorf("channel %s not found", channel.ID)
	}
	copied := *channel
	r.channels[channel.ID] = &copied
	return nil
}

func (r *memChannelRepo) DeleteChannel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type memEpisodeRepo struct {
	mu       sync.Mutex
	episodes map[string]*Episode
	order    []string

	// onProgress, when set, runs after each UpdateEpisodeProgress with the
	// repository lock released.
	onProgress func(id string, bytesDownloaded int64)
}

func newMemEpisodeRepo() *memEpisodeRepo {
	return &memEpisodeRepo{episodes: make(map[string]*Episode)}
}

func (r *memEpisodeRepo) CreateEpisode(episode *Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	episode.ID = uuid.New().String()
	copied := *episode
	r.episodes[episode.ID] = &copied
	r.order = append(r.order, episode.ID)
	return nil
}

func (r *memEpisodeRepo) GetEpisode(id string) (*Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	episode, ok := r.episodes[id]
	if !ok {
		return nil, nil
	}
	copied := *episode
	return &copied, nil
}

func (r *memEpisodeRepo) GetEpisodesByChannel(channelID string) ([]Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	episodes := make([]Episode, 0)
	for _, id := range r.order {
		episode, ok := r.episodes[id]
		if ok && episode.ChannelID == channelID {
			episodes = append(episodes, *episode)
		}
	}

	// Newest first, unknown publish times last, insertion order for ties.
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i].PublishedAt, episodes[j].PublishedAt
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})

	return episodes, nil
}

func (r *memEpisodeRepo) UpdateEpisode(episode *Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.episodes[episode.ID]; !ok {
		return fmt.Errorf("episode %s not found", episode.ID)
	}
	copied := *episode
	r.episodes[episode.ID] = &copied
	return nil
}

func (r *memEpisodeRepo) UpdateEpisodeProgress(id string, bytesDownloaded int64) error {
	r.mu.Lock()
	if episode, ok := r.episodes[id]; ok {
		episode.BytesDownloaded = bytesDownloaded
	}
	hook := r.onProgress
	r.mu.Unlock()

	if hook != nil {
		hook(id, bytesDownloaded)
	}
	return nil
}

func (r *memEpisodeRepo) DeleteEpisode(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.episodes, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type stubSettings struct {
	refreshHours   int
	downloadCount  int
	retentionCount int
	folder         string
}

func (s *stubSettings) RefreshIntervalHours() int  { return s.refreshHours }
func (s *stubSettings) EpisodeDownloadCount() int  { return s.downloadCount }
func (s *stubSettings) EpisodeRetentionCount() int { return s.retentionCount }
func (s *stubSettings) PodcastFolder() string      { return s.folder }

type stubIndexer struct {
	mu         sync.Mutex
	registered []string
	comments   map[string]string
}

func newStubIndexer() *stubIndexer {
	return &stubIndexer{comments: make(map[string]string)}
}

func (i *stubIndexer) RegisterFolder(path string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.registered = append(i.registered, path)
	return nil
}

func (i *stubIndexer) SetFolderMetadata(path string, enabled bool, comment string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.comments[path] = comment
	return nil
}

type stubGate struct {
	allow bool
}

func (g *stubGate) IsWriteAllowed(path string) bool {
	return g.allow
}

type testEnv struct {
	service     *Service
	channelRepo *memChannelRepo
	episodeRepo *memEpisodeRepo
	settings    *stubSettings
	indexer     *stubIndexer
	gate        *stubGate
}

func newTestEnv(settings *stubSettings) *testEnv {
	channelRepo := newMemChannelRepo()
	episodeRepo := newMemEpisodeRepo()
	indexer := newStubIndexer()
	gate := &stubGate{allow: true}

	service := NewService(channelRepo, episodeRepo, settings, indexer, gate,
		&http.Client{}, "podcastd-test/1.0")

	return &testEnv{
		service:     service,
		channelRepo: channelRepo,
		episodeRepo: episodeRepo,
		settings:    settings,
		indexer:     indexer,
		gate:        gate,
	}
}

func (e *testEnv) addChannel(url string) *Channel {
	channel := &Channel{URL: url}
	if err := e.channelRepo.CreateChannel(channel); err != nil {
		panic(err)
	}
	return channel
}
