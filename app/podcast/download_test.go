package podcast

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// enclosureServer serves size bytes of audio at any path.
func enclosureServer(t *testing.T, size int) *httptest.Server {
	t.Helper()

	payload := bytes.Repeat([]byte{0xAB}, size)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	return server
}

func (e *testEnv) addEpisode(channelID, url string, status Status) *Episode {
	episode := &Episode{
		ChannelID: channelID,
		URL:       url,
		Title:     "Episode",
		Status:    status,
	}
	if err := e.episodeRepo.CreateEpisode(episode); err != nil {
		panic(err)
	}
	return episode
}

func (e *testEnv) renameChannel(channel *Channel, title, description string) {
	channel.Title = title
	channel.Description = description
	if err := e.channelRepo.UpdateChannel(channel); err != nil {
		panic(err)
	}
}

func TestDownloadEpisodeCompletes(t *testing.T) {
	server := enclosureServer(t, 100000)

	env := newTestEnv(&stubSettings{
		downloadCount:  Unlimited,
		retentionCount: Unlimited,
		folder:         t.TempDir(),
	})
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "My Show", "All about testing")
	episode := env.addEpisode(channel.ID, server.URL+"/audio/episode-01.mp3", StatusNew)

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err != nil {
		t.Fatal(err)
	}

	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	if final.Status != StatusDownloaded {
		t.Errorf("Expected status DOWNLOADED, got %s", final.Status)
	}
	if final.BytesDownloaded != 100000 {
		t.Errorf("Expected 100000 bytes downloaded, got %d", final.BytesDownloaded)
	}

	expectedPath := filepath.Join(env.settings.folder, "My Show", "episode-01.mp3")
	if final.Path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, final.Path)
	}

	info, err := os.Stat(expectedPath)
	if err != nil {
		t.Fatalf("Expected downloaded file to exist: %v", err)
	}
	if info.Size() != 100000 {
		t.Errorf("Expected file size 100000, got %d", info.Size())
	}

	channelDir := filepath.Join(env.settings.folder, "My Show")
	if len(env.indexer.registered) != 1 || env.indexer.registered[0] != channelDir {
		t.Errorf("Expected channel directory registered with indexer, got %v", env.indexer.registered)
	}
	if env.indexer.comments[channelDir] != "All about testing" {
		t.Errorf("Expected channel description as folder comment, got %q",
			env.indexer.comments[channelDir])
	}
}

func TestDownloadNoOpWhenEpisodeMissing(t *testing.T) {
	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})

	if err := env.service.doDownloadEpisode(context.Background(), "no-such-episode"); err != nil {
		t.Errorf("Expected missing episode to be a no-op, got %v", err)
	}
}

func TestDownloadNoOpWhenNotEligible(t *testing.T) {
	server := enclosureServer(t, 100)

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")
	episode := env.addEpisode(channel.ID, server.URL+"/a.mp3", StatusDownloaded)

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err != nil {
		t.Fatal(err)
	}

	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	if final.Status != StatusDownloaded {
		t.Errorf("Expected status to remain DOWNLOADED, got %s", final.Status)
	}
	if final.Path != "" {
		t.Errorf("Expected no file path, got %s", final.Path)
	}
}

func TestDownloadWriteDenied(t *testing.T) {
	server := enclosureServer(t, 100)

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	env.gate.allow = false
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")
	episode := env.addEpisode(channel.ID, server.URL+"/a.mp3", StatusNew)

	err := env.service.doDownloadEpisode(context.Background(), episode.ID)
	if !errors.Is(err, ErrWriteDenied) {
		t.Fatalf("Expected ErrWriteDenied, got %v", err)
	}

	// The episode keeps its status so a later cycle can retry it.
	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	if final.Status != StatusNew {
		t.Errorf("Expected status to remain NEW after denial, got %s", final.Status)
	}
}

func TestDownloadServerErrorMarksEpisode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")
	episode := env.addEpisode(channel.ID, server.URL+"/a.mp3", StatusNew)

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err == nil {
		t.Fatal("Expected an error for HTTP 404")
	}

	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	if final.Status != StatusError {
		t.Errorf("Expected status ERROR, got %s", final.Status)
	}
}

func TestDownloadAbortedByConcurrentDeletion(t *testing.T) {
	server := enclosureServer(t, 50000)

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	env.service.checkpointBytes = 1000
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")
	episode := env.addEpisode(channel.ID, server.URL+"/a.mp3", StatusNew)

	var once sync.Once
	env.episodeRepo.onProgress = func(id string, bytesDownloaded int64) {
		once.Do(func() {
			env.episodeRepo.DeleteEpisode(id)
		})
	}

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err != nil {
		t.Fatal(err)
	}

	if final, _ := env.episodeRepo.GetEpisode(episode.ID); final != nil {
		t.Errorf("Expected episode to stay deleted, got status %s", final.Status)
	}

	partial := filepath.Join(env.settings.folder, "Show", "a.mp3")
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Errorf("Expected partial file to be removed, stat err: %v", err)
	}
}

func TestDownloadFilenameCollisionGetsSuffix(t *testing.T) {
	server := enclosureServer(t, 100)

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")
	episode := env.addEpisode(channel.ID, server.URL+"/episode-01.mp3", StatusNew)

	channelDir := filepath.Join(env.settings.folder, "Show")
	if err := os.MkdirAll(channelDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(channelDir, "episode-01.mp3"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err != nil {
		t.Fatal(err)
	}

	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	expected := filepath.Join(channelDir, "episode-010.mp3")
	if final.Path != expected {
		t.Errorf("Expected collision-suffixed path %s, got %s", expected, final.Path)
	}
}

func TestDownloadFilenameFallsBackToTitle(t *testing.T) {
	server := enclosureServer(t, 100)

	env := newTestEnv(&stubSettings{retentionCount: Unlimited, folder: t.TempDir()})
	channel := env.addChannel("http://example.com/feed")
	env.renameChannel(channel, "Show", "")

	episode := &Episode{
		ChannelID: channel.ID,
		URL:       server.URL + "/",
		Title:     "Great Episode",
		Status:    StatusNew,
	}
	if err := env.episodeRepo.CreateEpisode(episode); err != nil {
		t.Fatal(err)
	}

	if err := env.service.doDownloadEpisode(context.Background(), episode.ID); err != nil {
		t.Fatal(err)
	}

	final, _ := env.episodeRepo.GetEpisode(episode.ID)
	expected := filepath.Join(env.settings.folder, "Show", "Great Episode.mp3")
	if final.Path != expected {
		t.Errorf("Expected title-derived path %s, got %s", expected, final.Path)
	}
}
