package audio_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clarion/internal/media/audio"
)

// pcmWAV builds a canonical 16-bit PCM WAV file with silent samples.
func pcmWAV(sampleRate, channels int, seconds float64) []byte {
	frames := int(float64(sampleRate) * seconds)
	dataSize := frames * channels * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestDescribeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, pcmWAV(8000, 2, 1.5), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	info, err := audio.Describe(path)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if info.Container != audio.ContainerWAV || info.SampleRate != 8000 || info.Channels != 2 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if diff := info.Duration - 1500*time.Millisecond; diff < -10*time.Millisecond || diff > 10*time.Millisecond {
		t.Fatalf("unexpected duration: %v", info.Duration)
	}
}

func TestDescribeRejectsUnknownContainer(t *testing.T) {
	_, err := audio.DescribeReader(bytes.NewReader([]byte("just some text here")), ".txt")
	if !errors.Is(err, audio.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDescribeMissingFile(t *testing.T) {
	if _, err := audio.Describe(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
