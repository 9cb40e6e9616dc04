package textutil_test

import (
	"testing"

	"clarion/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	if got := textutil.SanitizeFileName(`  a/b:c*d?"e<f>g|h  `); got != "a-b-c-defgh" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
	if got := textutil.SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café Señor", "Cafe-Senor"},
		{"my  podcast -- episode 3", "my-podcast-episode-3"},
		{"../../etc/passwd", "etc-passwd"},
		{"???", "audio"},
		{"", "audio"},
	}
	for _, tt := range tests {
		if got := textutil.SanitizeStem(tt.in, "audio"); got != tt.want {
			t.Errorf("SanitizeStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := textutil.SanitizeToken("Hello World!"); got != "hello_world" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := textutil.SanitizeToken("   "); got != "unknown" {
		t.Fatalf("SanitizeToken blank = %q", got)
	}
}
