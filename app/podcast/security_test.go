package podcast

import (
	"path/filepath"
	"testing"
)

func TestFolderGate(t *testing.T) {
	root := t.TempDir()
	gate := NewFolderGate(&stubSettings{folder: root})

	if !gate.IsWriteAllowed(filepath.Join(root, "Show", "episode.mp3")) {
		t.Error("Expected write inside the podcast folder to be allowed")
	}
	if !gate.IsWriteAllowed(filepath.Join(root, "episode.mp3")) {
		t.Error("Expected write directly under the podcast folder to be allowed")
	}
	if gate.IsWriteAllowed(root) {
		t.Error("Expected write to the podcast folder itself to be denied")
	}
	if gate.IsWriteAllowed("/etc/passwd") {
		t.Error("Expected write outside the podcast folder to be denied")
	}
	if gate.IsWriteAllowed(filepath.Join(root, "..", "escape.mp3")) {
		t.Error("Expected traversal out of the podcast folder to be denied")
	}
}
