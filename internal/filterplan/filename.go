package filterplan

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"clarion/internal/textutil"
)

const tokenLayout = "20060102T150405.000"

// stagedName matches InputName and OutputName results built from a NewToken token.
var stagedName = regexp.MustCompile(`^[^/\\]+-(input|enhanced)-\d{8}T\d{9}(\.[a-z0-9]+)?$`)

// NewToken returns a uniqueness token derived from t. The engine namespace is
// shared across runs, so every output name carries one.
func NewToken(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(tokenLayout), ".", "")
}

// OutputName derives the output file name from the input display name, a
// uniqueness token, and the format extension, e.g.
// "interview-enhanced-20250102T030405123.ogg".
func OutputName(inputName string, format Format, token string) string {
	base := filepath.Base(strings.TrimSpace(inputName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = textutil.SanitizeStem(stem, "audio")
	token = textutil.SanitizeStem(token, "run")
	return stem + "-enhanced-" + token + format.Extension()
}

// InputName derives the staged input name. It keeps the source extension so
// the engine can pick a demuxer from it.
func InputName(inputName, token string) string {
	base := filepath.Base(strings.TrimSpace(inputName))
	ext := strings.ToLower(filepath.Ext(base))
	stem := textutil.SanitizeStem(strings.TrimSuffix(base, filepath.Ext(base)), "audio")
	return stem + "-input-" + textutil.SanitizeStem(token, "run") + ext
}

// IsStagedName reports whether name has the shape of a staged input or output
// produced by InputName or OutputName with a NewToken token.
func IsStagedName(name string) bool {
	return stagedName.MatchString(name)
}
