package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupported is returned when the container is not one Describe can read.
var ErrUnsupported = errors.New("unsupported audio container")

// Container names reported in Info.
const (
	ContainerWAV = "wav"
	ContainerMP3 = "mp3"
	ContainerOGG = "ogg"
)

// Info summarizes an audio file header.
type Info struct {
	Container  string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Describe opens path and reads its header.
func Describe(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()
	return DescribeReader(file, filepath.Ext(path))
}

// DescribeReader sniffs the container from its magic bytes, using ext only to
// disambiguate MP3 files without an ID3 tag.
func DescribeReader(r io.ReadSeeker, ext string) (Info, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Info{}, fmt.Errorf("read audio header: %w", err)
	}
	header = header[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("rewind audio: %w", err)
	}

	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return describeWAV(r)
	case len(header) >= 4 && bytes.Equal(header[:4], []byte("OggS")):
		return describeOgg(r)
	case len(header) >= 3 && bytes.Equal(header[:3], []byte("ID3")),
		len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0,
		strings.EqualFold(ext, ".mp3"):
		return describeMP3(r)
	default:
		return Info{}, ErrUnsupported
	}
}

func describeWAV(r io.ReadSeeker) (Info, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("wav: invalid file: %w", ErrUnsupported)
	}
	info := Info{
		Container:  ContainerWAV,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}
	duration, err := dec.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("wav duration: %w", err)
	}
	info.Duration = duration
	return info, nil
}

// mp3BytesPerFrame: go-mp3 always decodes to 16-bit stereo.
const mp3BytesPerFrame = 4

func describeMP3(r io.ReadSeeker) (Info, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return Info{}, fmt.Errorf("mp3: %w", err)
	}
	info := Info{
		Container:  ContainerMP3,
		SampleRate: dec.SampleRate(),
		Channels:   2,
	}
	if length := dec.Length(); length > 0 && info.SampleRate > 0 {
		frames := length / mp3BytesPerFrame
		info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}

func describeOgg(r io.ReadSeeker) (Info, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return Info{}, fmt.Errorf("ogg: %w", err)
	}
	info := Info{
		Container:  ContainerOGG,
		SampleRate: dec.SampleRate(),
		Channels:   dec.Channels(),
	}
	if length := dec.Length(); length > 0 && info.SampleRate > 0 {
		info.Duration = time.Duration(length) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}
