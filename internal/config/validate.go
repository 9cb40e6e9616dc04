package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"clarion/internal/filterplan"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.WorkDir == c.Paths.OutputDir {
		return errors.New("paths.work_dir and paths.output_dir must differ; staged files are removed after every job")
	}
	for _, p := range []struct{ key, path string }{
		{"paths.output_dir", c.Paths.OutputDir},
		{"paths.log_dir", c.Paths.LogDir},
		{"output.save_dir", c.Output.SaveDir},
		{"telemetry.db_path", c.TelemetryDBPath()},
	} {
		if withinDir(c.Paths.WorkDir, p.path) {
			return fmt.Errorf("%s %q must not be inside paths.work_dir %q", p.key, p.path, c.Paths.WorkDir)
		}
	}
	return nil
}

// withinDir reports whether path is dir itself or lies beneath it.
func withinDir(dir, path string) bool {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(path) == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (c *Config) validateEngine() error {
	if c.Engine.MinFreeMiB < 0 {
		return errors.New("engine.min_free_mib must be zero or positive")
	}
	return nil
}

func (c *Config) validateFilters() error {
	switch c.Filters.DenoiseMethod {
	case DenoiseFFT:
	case DenoiseRNN:
		if c.Filters.DenoiseModel == "" {
			return fmt.Errorf("filters.denoise_model is required when filters.denoise_method is %q", DenoiseRNN)
		}
	default:
		return fmt.Errorf("filters.denoise_method: unsupported value %q (expected %s or %s)", c.Filters.DenoiseMethod, DenoiseFFT, DenoiseRNN)
	}
	if c.Filters.DeharshFrequency <= 0 || c.Filters.DeharshFrequency >= 24000 {
		return errors.New("filters.deharsh_frequency must be between 0 and 24000 Hz")
	}
	if c.Filters.DeharshWidth <= 0 {
		return errors.New("filters.deharsh_width must be positive")
	}
	if c.Filters.DeharshGain >= 0 {
		return errors.New("filters.deharsh_gain must be negative; the stage attenuates")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if _, err := filterplan.ParseFormat(c.Output.DefaultFormat); err != nil {
		return fmt.Errorf("output.default_format: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	if c.Telemetry.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Telemetry.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("telemetry.ntfy_topic must be an http(s) URL, got %q", c.Telemetry.NtfyTopic)
	}
	return nil
}
