package input_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clarion/internal/input"
	"clarion/internal/services"
	"clarion/internal/testsupport"
)

func TestOpenAcceptsWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Interview Take 1.wav")
	testsupport.WriteWAV(t, path, 8000, 1, 8000)

	audio, err := input.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if audio.ContentType != "audio/wav" || audio.DisplayName != "Interview Take 1.wav" {
		t.Fatalf("unexpected audio %+v", audio)
	}
	if !strings.HasPrefix(audio.Sniffed, "audio/") {
		t.Fatalf("expected audio sniff, got %q", audio.Sniffed)
	}
	info, _ := os.Stat(path)
	if audio.SizeBytes != info.Size() {
		t.Fatalf("size mismatch %d != %d", audio.SizeBytes, info.Size())
	}
	data, err := audio.Bytes()
	if err != nil || int64(len(data)) != audio.SizeBytes {
		t.Fatalf("bytes: %d %v", len(data), err)
	}
}

func TestOpenRejectsNonAudio(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("meeting notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	disguised := filepath.Join(dir, "notes.mp3")
	if err := os.WriteFile(disguised, []byte("meeting notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{textFile, disguised, empty, filepath.Join(dir, "missing.wav"), dir, ""} {
		if _, err := input.Open(path); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", path, err)
		}
	}
}

func TestOpenDeclaredOverridesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.bin")
	testsupport.WriteWAV(t, path, 8000, 1, 100)

	audio, err := input.OpenDeclared(path, "audio/x-wav; codecs=1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if audio.ContentType != "audio/x-wav" {
		t.Fatalf("unexpected content type %q", audio.ContentType)
	}
	if _, err := input.OpenDeclared(path, "video/mp4"); err != nil {
		t.Fatalf("audio header should win over a non-audio declaration: %v", err)
	}
}

func TestFromBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteWAV(t, path, 8000, 2, 10)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	audio, err := input.FromBytes("clip.wav", "", data)
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	got, _ := audio.Bytes()
	if len(got) != len(data) || audio.Extension() != ".wav" {
		t.Fatalf("unexpected audio %+v", audio)
	}
	if _, err := input.FromBytes("empty.wav", "audio/wav", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty data, got %v", err)
	}
}

func TestCheckContentType(t *testing.T) {
	tests := []struct {
		contentType string
		ok          bool
	}{
		{"audio/mpeg", true},
		{"Audio/OGG", true},
		{"audio/wav; rate=8000", true},
		{"video/mp4", false},
		{"application/octet-stream", false},
		{"", false},
	}
	for _, tc := range tests {
		err := input.CheckContentType(tc.contentType)
		if (err == nil) != tc.ok {
			t.Fatalf("CheckContentType(%q) = %v, want ok=%v", tc.contentType, err, tc.ok)
		}
		if err != nil && !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation marker, got %v", err)
		}
	}
}

func TestTypeByExtension(t *testing.T) {
	if got := input.TypeByExtension("a.FLAC"); got != "audio/flac" {
		t.Fatalf("unexpected type %q", got)
	}
	if got := input.TypeByExtension("noext"); got != "" {
		t.Fatalf("expected empty type, got %q", got)
	}
}
