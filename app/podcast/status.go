package podcast

// Status is the lifecycle state of an episode.
type Status string

const (
	// StatusNew marks a freshly discovered episode eligible for download.
	StatusNew Status = "NEW"
	// StatusSkipped marks an episode excluded by the download-count cap at
	// creation time. It never transitions automatically.
	StatusSkipped Status = "SKIPPED"
	// StatusDownloading marks an episode with a transfer in progress.
	StatusDownloading Status = "DOWNLOADING"
	// StatusDownloaded marks a completed transfer.
	StatusDownloaded Status = "DOWNLOADED"
	// StatusError marks a failed transfer.
	StatusError Status = "ERROR"
	// StatusDeleted is the logical tombstone. Terminal.
	StatusDeleted Status = "DELETED"
)

var transitions = map[Status][]Status{
	StatusNew:         {StatusDownloading, StatusDeleted},
	StatusSkipped:     {StatusDeleted},
	StatusDownloading: {StatusDownloaded, StatusError, StatusDeleted},
	StatusDownloaded:  {StatusDeleted},
	StatusError:       {StatusDeleted},
	StatusDeleted:     {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further automatic transition can occur.
func (s Status) Terminal() bool {
	return s == StatusDownloaded || s == StatusError || s == StatusDeleted
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InitialStatus returns the status assigned at creation: the first
// downloadCount episodes (in publish order, newest first) become NEW, the
// rest SKIPPED. A downloadCount of Unlimited keeps everything NEW.
func InitialStatus(position, downloadCount int) Status {
	if downloadCount == Unlimited || position < downloadCount {
		return StatusNew
	}
	return StatusSkipped
}
