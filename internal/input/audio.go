package input

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"clarion/internal/services"
)

const audioPrefix = "audio/"

// declaredTypes covers extensions the platform mime table often lacks.
var declaredTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".wma":  "audio/x-ms-wma",
	".webm": "audio/webm",
}

// Audio is the single input of a job.
type Audio struct {
	Path        string
	DisplayName string
	SizeBytes   int64
	ContentType string
	Sniffed     string

	data []byte
}

// Open validates the file at path. The declared type is derived from the
// extension.
func Open(path string) (*Audio, error) {
	return OpenDeclared(path, "")
}

// OpenDeclared validates the file at path against a caller supplied content
// type. An empty declared type falls back to the extension.
func OpenDeclared(path, declared string) (*Audio, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "input", "open", "no file selected", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "input", "open", fmt.Sprintf("cannot read %s", filepath.Base(path)), err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "input", "open", fmt.Sprintf("%s is a directory", filepath.Base(path)), nil)
	}
	if info.Size() == 0 {
		return nil, services.Wrap(services.ErrValidation, "input", "open", fmt.Sprintf("%s is empty", filepath.Base(path)), nil)
	}

	sniffed, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "input", "sniff", "", err)
	}
	if strings.TrimSpace(declared) == "" {
		declared = TypeByExtension(path)
	}
	contentType, err := resolve(filepath.Base(path), declared, sniffed)
	if err != nil {
		return nil, err
	}
	return &Audio{
		Path:        path,
		DisplayName: filepath.Base(path),
		SizeBytes:   info.Size(),
		ContentType: contentType,
		Sniffed:     sniffed.String(),
	}, nil
}

// FromBytes validates an in-memory resource named name.
func FromBytes(name, declared string, data []byte) (*Audio, error) {
	display := filepath.Base(strings.TrimSpace(name))
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrValidation, "input", "open", fmt.Sprintf("%s is empty", display), nil)
	}
	if strings.TrimSpace(declared) == "" {
		declared = TypeByExtension(display)
	}
	sniffed := mimetype.Detect(data)
	contentType, err := resolve(display, declared, sniffed)
	if err != nil {
		return nil, err
	}
	return &Audio{
		DisplayName: display,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
		Sniffed:     sniffed.String(),
		data:        data,
	}, nil
}

// Bytes returns the raw input.
func (a *Audio) Bytes() ([]byte, error) {
	if a == nil {
		return nil, services.Wrap(services.ErrIO, "input", "read", "no input", nil)
	}
	if a.data != nil {
		return a.data, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "input", "read", "", err)
	}
	return data, nil
}

// Extension returns the lowercased extension of the display name.
func (a *Audio) Extension() string {
	if a == nil {
		return ""
	}
	return strings.ToLower(filepath.Ext(a.DisplayName))
}

// CheckContentType accepts only audio/* types.
func CheckContentType(contentType string) error {
	mediaType := normalizeType(contentType)
	if mediaType == "" {
		return services.Wrap(services.ErrValidation, "input", "check type", "unknown file type; please choose an audio file", nil)
	}
	if !strings.HasPrefix(mediaType, audioPrefix) {
		return services.Wrap(services.ErrValidation, "input", "check type", fmt.Sprintf("%s is not an audio type; please choose an audio file", mediaType), nil)
	}
	return nil
}

// TypeByExtension maps a file name to its declared content type, or "".
func TypeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if ct, ok := declaredTypes[ext]; ok {
		return ct
	}
	return normalizeType(mime.TypeByExtension(ext))
}

// resolve picks the content type of the input: the declared type when it is
// audio, otherwise the sniffed one. A header that is clearly not audio
// overrides an audio extension.
func resolve(name, declared string, sniffed *mimetype.MIME) (string, error) {
	sniffedType := normalizeType(sniffed.String())
	if conflicting(sniffedType) {
		return "", services.Wrap(services.ErrValidation, "input", "check type",
			fmt.Sprintf("%s looks like %s, not audio; please choose an audio file", name, sniffedType), nil)
	}
	declaredType := normalizeType(declared)
	if CheckContentType(declaredType) == nil {
		return declaredType, nil
	}
	if CheckContentType(sniffedType) == nil {
		return sniffedType, nil
	}
	if declaredType != "" {
		return "", CheckContentType(declaredType)
	}
	return "", CheckContentType(sniffedType)
}

func conflicting(sniffed string) bool {
	for _, prefix := range []string{"image/", "text/", "font/"} {
		if strings.HasPrefix(sniffed, prefix) {
			return true
		}
	}
	switch sniffed {
	case "application/pdf", "application/zip", "application/x-executable", "application/x-elf":
		return true
	}
	return false
}

func normalizeType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(value)
}
