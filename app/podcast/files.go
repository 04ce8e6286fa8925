package podcast

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// resolveFile computes the destination path for an episode transfer. The
// channel directory is created under the podcast folder on first use and
// registered with the media indexer; the file name is derived from the
// enclosure URL with the episode title as fallback, and collisions with
// existing files resolve by numeric suffix.
func (s *Service) resolveFile(channel *Channel, episode *Episode) (string, error) {
	channelDir := filepath.Join(s.settings.PodcastFolder(), fileSystemSafe(channel.Title))

	if _, err := os.Stat(channelDir); os.IsNotExist(err) {
		if err := os.MkdirAll(channelDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create channel directory: %w", err)
		}
		if err := s.indexer.RegisterFolder(channelDir); err != nil {
			slog.Warn("Failed to register channel folder",
				"path", channelDir, "error", err)
		} else if err := s.indexer.SetFolderMetadata(channelDir, true, channel.Description); err != nil {
			slog.Warn("Failed to set channel folder metadata",
				"path", channelDir, "error", err)
		}
	}

	name := urlFileName(episode.URL)
	if name == "" {
		name = episode.Title
	}
	name = fileSystemSafe(name)

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "episode"
	}
	if ext == "" {
		ext = ".mp3"
	}

	file := filepath.Join(channelDir, base+ext)
	for i := 0; ; i++ {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			break
		}
		file = filepath.Join(channelDir, fmt.Sprintf("%s%d%s", base, i, ext))
	}

	if !s.gate.IsWriteAllowed(file) {
		return "", fmt.Errorf("%s: %w", file, ErrWriteDenied)
	}

	return file, nil
}

// urlFileName extracts the last path segment of the enclosure URL, or "" when
// the URL has no usable segment.
func urlFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

var diacriticStripper = transform.Chain(
	norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fileSystemSafe folds diacritics to their base letters and replaces every
// character outside a conservative allowlist with an underscore, so the
// result is a valid single path element on any filesystem.
func fileSystemSafe(name string) string {
	if folded, _, err := transform.String(diacriticStripper, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_', r == ' ', r == '(', r == ')':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return strings.Trim(b.String(), " .")
}
