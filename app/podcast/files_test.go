package podcast

import "testing"

func TestFileSystemSafe(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Simple Name", "Simple Name"},
		{"Café del Mar", "Cafe del Mar"},
		{"a/b\\c:d", "a_b_c_d"},
		{"What? Really!", "What_ Really_"},
		{"  padded  ", "padded"},
		{"trailing dots...", "trailing dots"},
		{"Ep. 42 (live)", "Ep. 42 (live)"},
	}

	for _, c := range cases {
		if got := fileSystemSafe(c.in); got != c.want {
			t.Errorf("fileSystemSafe(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestURLFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://example.com/audio/episode-01.mp3", "episode-01.mp3"},
		{"http://example.com/episode.mp3?token=abc", "episode.mp3"},
		{"http://example.com/", ""},
		{"http://example.com", ""},
		{"://not a url", ""},
	}

	for _, c := range cases {
		if got := urlFileName(c.in); got != c.want {
			t.Errorf("urlFileName(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
