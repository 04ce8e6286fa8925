package subscriptions

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"podcastd/app/podcast"
)

// File is the on-disk bootstrap format: a flat list of feed URLs.
type File struct {
	Subscriptions []string `yaml:"subscriptions"`
}

type Subscriber interface {
	Subscribe(url string) (*podcast.Channel, error)
}

// Load reads the subscription bootstrap file. A missing file yields an empty
// list, not an error, so the flag can point at a file that appears later.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}

	return file.Subscriptions, nil
}

// Bootstrap subscribes to every URL in the bootstrap file that is not already
// a known channel. Individual failures are logged and skipped.
func Bootstrap(path string, channelRepo podcast.ChannelRepository, subscriber Subscriber) error {
	urls, err := Load(path)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}

	channels, err := channelRepo.GetAllChannels()
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	known := make(map[string]bool, len(channels))
	for _, channel := range channels {
		known[channel.URL] = true
	}

	added := 0
	for _, url := range urls {
		if url == "" || known[url] {
			continue
		}
		if _, err := subscriber.Subscribe(url); err != nil {
			slog.Warn("Failed to subscribe from bootstrap file", "url", url, "error", err)
			continue
		}
		known[url] = true
		added++
	}

	if added > 0 {
		slog.Info("Bootstrapped subscriptions", "file", path, "added", added)
	}

	return nil
}
