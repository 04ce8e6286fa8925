package podcast

import (
	"path/filepath"
	"strings"
)

// FolderGate is the default SecurityGate: it permits writes only to paths
// strictly beneath the configured podcast folder, rejecting anything that
// escapes it through traversal or symlink-style relative segments.
type FolderGate struct {
	settings Settings
}

func NewFolderGate(settings Settings) *FolderGate {
	return &FolderGate{settings: settings}
}

func (g *FolderGate) IsWriteAllowed(path string) bool {
	root, err := filepath.Abs(g.settings.PodcastFolder())
	if err != nil {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
