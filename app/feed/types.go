package feed

import (
	"time"
)

// Metadata holds the channel-level fields consumed from a feed document.
type Metadata struct {
	Title       string
	Description string
}

// Item is one feed entry, normalized for episode creation. EnclosureURL may
// be empty when the entry carries no enclosure; such entries are not
// downloadable.
type Item struct {
	Title           string
	Description     string
	Duration        string
	EnclosureURL    string
	EnclosureLength *int64
	PublishedAt     *time.Time
}
