package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./podcastd.db" description:"Path to the SQLite database file"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	PodcastFolder string `long:"podcast-folder" env:"PODCAST_FOLDER" default:"./podcasts" description:"Base directory for downloaded episodes"`
	Subscriptions string `long:"subscriptions" env:"SUBSCRIPTIONS" description:"Optional YAML file with feed URLs to subscribe on startup"`

	// Seed values for runtime settings (-1 disables the feature)
	RefreshIntervalHours  int `long:"refresh-interval" env:"REFRESH_INTERVAL_HOURS" default:"24" description:"Hours between automatic refresh cycles, -1 to disable"`
	EpisodeDownloadCount  int `long:"download-count" env:"EPISODE_DOWNLOAD_COUNT" default:"1" description:"Newest episodes auto-downloaded per refresh, -1 for unlimited"`
	EpisodeRetentionCount int `long:"retention-count" env:"EPISODE_RETENTION_COUNT" default:"10" description:"Episodes kept on disk per channel, -1 for unlimited"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"podcastd/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:                raw.DBPath,
		Port:                  raw.Port,
		APIAccessKey:          raw.APIAccessKey,
		PodcastFolder:         raw.PodcastFolder,
		Subscriptions:         raw.Subscriptions,
		RefreshIntervalHours:  raw.RefreshIntervalHours,
		EpisodeDownloadCount:  raw.EpisodeDownloadCount,
		EpisodeRetentionCount: raw.EpisodeRetentionCount,
		UserAgent:             raw.UserAgent,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
