package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"  spaced.txt  ", "spaced.txt"},
		{"dir/file.txt", "dir_file.txt"},
		{`win\path.docx`, "win_path.docx"},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"../../etc/passwd", "a..b.txt", "", "   "} {
		if _, err := SanitizeFileName(bad); !errors.Is(err, ErrFileName) {
			t.Errorf("SanitizeFileName(%q): err = %v, want ErrFileName", bad, err)
		}
	}
}
