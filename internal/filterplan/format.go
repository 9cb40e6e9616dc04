package filterplan

import (
	"fmt"
	"strings"

	"clarion/internal/services"
)

// Format identifies an output container/codec.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatOpus Format = "opus"
	FormatM4A  Format = "m4a"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
)

// DefaultFormat is the most compact output the engine produces: its bitrate
// is the lowest of the lossy formats.
const DefaultFormat = FormatOGG

// Arg is one encoder flag and its value.
type Arg struct {
	Flag  string
	Value string
}

// EncoderParams holds the codec and codec-specific settings for one format.
type EncoderParams struct {
	Codec string
	Args  []Arg
}

// Flags renders the encoder parameters as engine arguments.
func (e EncoderParams) Flags() []string {
	out := make([]string, 0, 2+2*len(e.Args))
	if e.Codec != "" {
		out = append(out, "-c:a", e.Codec)
	}
	for _, arg := range e.Args {
		out = append(out, arg.Flag, arg.Value)
	}
	return out
}

type formatSpec struct {
	extension string
	lossless  bool
	encoder   EncoderParams
}

// encoderTable is keyed by format; exactly one entry applies per plan.
// Lossy formats use a constant bitrate, the rest a quality/compression knob.
var encoderTable = map[Format]formatSpec{
	FormatMP3: {
		extension: ".mp3",
		encoder:   EncoderParams{Codec: "libmp3lame", Args: []Arg{{Flag: "-b:a", Value: "192k"}}},
	},
	FormatOGG: {
		extension: ".ogg",
		encoder:   EncoderParams{Codec: "libvorbis", Args: []Arg{{Flag: "-b:a", Value: "80k"}}},
	},
	FormatOpus: {
		extension: ".opus",
		encoder:   EncoderParams{Codec: "libopus", Args: []Arg{{Flag: "-b:a", Value: "96k"}, {Flag: "-vbr", Value: "off"}}},
	},
	FormatM4A: {
		extension: ".m4a",
		encoder:   EncoderParams{Codec: "aac", Args: []Arg{{Flag: "-b:a", Value: "192k"}}},
	},
	FormatFLAC: {
		extension: ".flac",
		lossless:  true,
		encoder:   EncoderParams{Codec: "flac", Args: []Arg{{Flag: "-compression_level", Value: "8"}}},
	},
	FormatWAV: {
		extension: ".wav",
		lossless:  true,
		encoder:   EncoderParams{Codec: "pcm_s16le"},
	},
}

var formatOrder = []Format{FormatOGG, FormatMP3, FormatOpus, FormatM4A, FormatFLAC, FormatWAV}

// Formats lists the supported output formats, default first.
func Formats() []Format {
	out := make([]Format, len(formatOrder))
	copy(out, formatOrder)
	return out
}

// ParseFormat converts user input (case-insensitive, optional leading dot)
// into a Format.
func ParseFormat(value string) (Format, error) {
	cleaned := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")))
	if _, ok := encoderTable[cleaned]; ok {
		return cleaned, nil
	}
	names := make([]string, 0, len(formatOrder))
	for _, f := range formatOrder {
		names = append(names, string(f))
	}
	return "", services.Wrap(
		services.ErrValidation,
		"plan",
		"parse format",
		fmt.Sprintf("unsupported output format %q (expected one of %s)", value, strings.Join(names, ", ")),
		nil,
	)
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, ok := encoderTable[f]
	return ok
}

// Extension returns the file extension, including the leading dot.
func (f Format) Extension() string {
	if spec, ok := encoderTable[f]; ok {
		return spec.extension
	}
	return ""
}

// MIMEType returns the artifact content type, audio/<format>.
func (f Format) MIMEType() string {
	return "audio/" + string(f)
}

// Lossless reports whether the format keeps every sample.
func (f Format) Lossless() bool {
	return encoderTable[f].lossless
}

// Encoder returns a copy of the encoder parameters for f.
func (f Format) Encoder() EncoderParams {
	spec := encoderTable[f]
	params := EncoderParams{Codec: spec.encoder.Codec}
	if len(spec.encoder.Args) > 0 {
		params.Args = append([]Arg(nil), spec.encoder.Args...)
	}
	return params
}

func (f Format) String() string { return string(f) }
