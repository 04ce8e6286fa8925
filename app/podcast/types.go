package podcast

import (
	"time"
)

// Channel represents a subscribed podcast feed.
type Channel struct {
	ID          string
	URL         string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Episode represents one downloadable unit discovered from a channel's feed.
type Episode struct {
	ID              string
	ChannelID       string
	URL             string // enclosure URL, dedup key within a channel
	Path            string // local file path, set once when the download starts
	Title           string
	Description     string
	PublishedAt     *time.Time
	Duration        string // itunes-style duration, verbatim from the feed
	Length          *int64 // enclosure length in bytes, as advertised by the feed
	BytesDownloaded int64
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Folder describes a channel directory registered with the media library.
type Folder struct {
	Path      string
	Enabled   bool
	Comment   string
	CreatedAt time.Time
}

// Sentinel values for runtime settings.
const (
	// Unlimited disables the download-count and retention caps.
	Unlimited = -1
	// Disabled turns off the automatic refresh timer.
	Disabled = -1
)
