package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clarion/internal/config"
	"clarion/internal/testsupport"
)

// engineStub answers -version and -encoders like ffmpeg, and otherwise writes
// a fixed payload to its last argument after a short progress report. With
// STUB_FAIL set it prints an ffmpeg-style error and exits non-zero.
const engineStub = `#!/bin/sh
case "$*" in
  *-encoders*)
    echo "Encoders:"
    echo " ------"
    echo " A....D libvorbis            libvorbis"
    echo " A....D libmp3lame           libmp3lame MP3"
    exit 0
    ;;
  *-version*)
    echo "ffmpeg version 7.1-stub"
    exit 0
    ;;
esac
if [ -n "$STUB_FAIL" ]; then
  echo "Invalid data found when processing input" >&2
  exit 1
fi
for arg; do last="$arg"; done
echo "out_time_us=1000000"
echo "progress=end"
printf 'enhanced-audio' > "$last"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	writeExecutable(t, filepath.Join(binDir, "ffmpeg"), engineStub)
	writeExecutable(t, filepath.Join(binDir, "ffprobe"), "#!/bin/sh\nexit 1\n")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
