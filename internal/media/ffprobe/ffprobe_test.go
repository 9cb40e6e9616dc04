package ffprobe

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", SampleRate: "48000", Channels: 2, Duration: "10.5"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Duration() != 123450*time.Millisecond {
		t.Fatalf("unexpected duration value: %v", result.Duration())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	stream, ok := result.PrimaryAudio()
	if !ok || stream.SampleRateHz() != 48000 || stream.Channels != 2 {
		t.Fatalf("unexpected primary audio: %+v %v", stream, ok)
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "42"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 42 {
		t.Fatalf("expected stream duration, got %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if (Stream{SampleRate: "x"}).SampleRateHz() != 0 {
		t.Fatal("expected sample rate 0")
	}
}

func TestInspectParsesHelperOutput(t *testing.T) {
	restore := SetCommandContextForTests(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestFFprobeHelperProcess", "--"}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_FFPROBE_HELPER=1")
		return cmd
	})
	defer restore()

	result, err := Inspect(context.Background(), "", "/tmp/in.wav")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.DurationSeconds() != 5 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil || !strings.Contains(err.Error(), "empty path") {
		t.Fatalf("expected empty path error, got %v", err)
	}
}

func TestFFprobeHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_FFPROBE_HELPER") != "1" {
		return
	}
	_, _ = os.Stdout.WriteString(`{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2}],"format":{"duration":"5.000000","size":"882044"}}`)
	os.Exit(0)
}
