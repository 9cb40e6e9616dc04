package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"clarion/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	EnvFile   string `toml:"env_file"`
}

// Engine contains configuration for the ffmpeg subprocess engine.
type Engine struct {
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	FFprobeBinary      string `toml:"ffprobe_binary"`
	LoadTimeoutSeconds int    `toml:"load_timeout_seconds"`
	MinFreeMiB         int    `toml:"min_free_mib"`
	StderrTailLines    int    `toml:"stderr_tail_lines"`
}

// Filters contains the filter-stage constants applied for each enhancement toggle.
type Filters struct {
	NormalizeFilter  string  `toml:"normalize_filter"`
	NormalizeParams  string  `toml:"normalize_params"`
	DenoiseMethod    string  `toml:"denoise_method"`
	DenoiseParams    string  `toml:"denoise_params"`
	DenoiseModel     string  `toml:"denoise_model"`
	DeharshFrequency float64 `toml:"deharsh_frequency"`
	DeharshWidth     float64 `toml:"deharsh_width"`
	DeharshGain      float64 `toml:"deharsh_gain"`
}

// Output contains configuration for produced artifacts.
type Output struct {
	DefaultFormat string `toml:"default_format"`
	SaveDir       string `toml:"save_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	File          bool   `toml:"file"`
	MaxSizeMiB    int    `toml:"max_size_mib"`
	RetentionDays int    `toml:"retention_days"`
}

// Telemetry contains configuration for fire-and-forget usage events.
type Telemetry struct {
	Enabled            bool   `toml:"enabled"`
	History            bool   `toml:"history"`
	DBPath             string `toml:"db_path"`
	BufferSize         int    `toml:"buffer_size"`
	NtfyTopic          string `toml:"ntfy_topic"`
	NtfyTimeoutSeconds int    `toml:"ntfy_timeout_seconds"`
}

// Config encapsulates all configuration values for Clarion.
//
// Configuration sections by subsystem:
//   - Paths: engine workspace, artifact output, and log directories
//   - Engine: ffmpeg/ffprobe binaries and load/staging limits
//   - Filters: filter constants behind each enhancement toggle
//   - Output: default output format and save location
//   - Logging: log format, level, and rotation
//   - Telemetry: usage events and the local history database
type Config struct {
	Paths     Paths     `toml:"paths"`
	Engine    Engine    `toml:"engine"`
	Filters   Filters   `toml:"filters"`
	Output    Output    `toml:"output"`
	Logging   Logging   `toml:"logging"`
	Telemetry Telemetry `toml:"telemetry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clarion/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadEnvFile(cfg.Paths.EnvFile); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "validate", resolvedPath, err)
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile imports KEY=value pairs without overriding variables already
// present in the process environment. A missing file is not an error.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clarion.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a job needs. The engine workspace
// is created by the engine itself when it loads.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the rotating log file under paths.log_dir.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "clarion.log")
}

// FFmpegBinary returns the ffmpeg executable name used as the media engine.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.Engine.FFmpegBinary); binary != "" {
		return binary
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for input inspection.
func (c *Config) FFprobeBinary() string {
	if binary := strings.TrimSpace(c.Engine.FFprobeBinary); binary != "" {
		return binary
	}
	return defaultFFprobeBinary
}

// TelemetryDBPath returns the history database location.
func (c *Config) TelemetryDBPath() string {
	if path := strings.TrimSpace(c.Telemetry.DBPath); path != "" {
		return path
	}
	return filepath.Join(c.Paths.LogDir, "history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultWorkDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "clarion", "work")
	}
	return "~/.cache/clarion/work"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
