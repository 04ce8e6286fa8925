package podcast

// ChannelRepository persists podcast channels. Implementations must be safe
// for concurrent use; every call is a single-row atomic operation.
type ChannelRepository interface {
	CreateChannel(channel *Channel) error
	GetChannel(id string) (*Channel, error)
	GetAllChannels() ([]Channel, error)
	UpdateChannel(channel *Channel) error
	DeleteChannel(id string) error
}

// EpisodeRepository persists podcast episodes. GetEpisodesByChannel returns
// every row including logical tombstones, newest first with unknown publish
// times last.
type EpisodeRepository interface {
	CreateEpisode(episode *Episode) error
	GetEpisode(id string) (*Episode, error)
	GetEpisodesByChannel(channelID string) ([]Episode, error)
	UpdateEpisode(episode *Episode) error
	// UpdateEpisodeProgress persists only the transfer byte count, leaving
	// the status column alone so a checkpoint write cannot resurrect a row
	// deleted by a concurrent operation.
	UpdateEpisodeProgress(id string, bytesDownloaded int64) error
	DeleteEpisode(id string) error
}

// Settings exposes the runtime settings consulted during refresh, download
// and retention. Lookups never fail; implementations fall back to their
// seed defaults.
type Settings interface {
	// RefreshIntervalHours returns the hours between automatic refresh
	// cycles, or Disabled.
	RefreshIntervalHours() int
	// EpisodeDownloadCount returns how many newly discovered episodes per
	// cycle are assigned NEW, or Unlimited.
	EpisodeDownloadCount() int
	// EpisodeRetentionCount returns how many episodes are kept per channel,
	// or Unlimited.
	EpisodeRetentionCount() int
	// PodcastFolder returns the base directory for downloaded episodes.
	PodcastFolder() string
}

// FolderIndexer is notified once per newly created channel directory so the
// media library picks it up.
type FolderIndexer interface {
	RegisterFolder(path string) error
	SetFolderMetadata(path string, enabled bool, comment string) error
}

// SecurityGate is consulted before any destination file is opened.
type SecurityGate interface {
	IsWriteAllowed(path string) bool
}
