package cfg

type Cfg struct {
	// Application configuration
	DBPath        string
	Port          string
	APIAccessKey  string
	PodcastFolder string
	Subscriptions string

	// Seed values for runtime settings, written to the settings table on
	// first start only
	RefreshIntervalHours  int
	EpisodeDownloadCount  int
	EpisodeRetentionCount int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
