package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeFilters()
	c.normalizeOutput()
	c.normalizeLogging()
	c.normalizeTelemetry()
	return nil
}

// applyEnvOverrides lets CLARION_* variables (including those imported from
// paths.env_file) override file values.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"CLARION_FFMPEG", &c.Engine.FFmpegBinary},
		{"CLARION_FFPROBE", &c.Engine.FFprobeBinary},
		{"CLARION_WORK_DIR", &c.Paths.WorkDir},
		{"CLARION_OUTPUT_DIR", &c.Paths.OutputDir},
		{"CLARION_LOG_LEVEL", &c.Logging.Level},
		{"CLARION_LOG_FORMAT", &c.Logging.Format},
		{"CLARION_DEFAULT_FORMAT", &c.Output.DefaultFormat},
		{"CLARION_NTFY_TOPIC", &c.Telemetry.NtfyTopic},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(value) != "" {
			*o.target = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.EnvFile, err = expandPath(strings.TrimSpace(c.Paths.EnvFile)); err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	c.Engine.FFprobeBinary = strings.TrimSpace(c.Engine.FFprobeBinary)
	if c.Engine.LoadTimeoutSeconds <= 0 {
		c.Engine.LoadTimeoutSeconds = defaultLoadTimeoutSeconds
	}
	if c.Engine.StderrTailLines <= 0 {
		c.Engine.StderrTailLines = defaultStderrTailLines
	}
	if strings.HasPrefix(c.Filters.DenoiseModel, "~") {
		expanded, err := expandPath(c.Filters.DenoiseModel)
		if err != nil {
			return fmt.Errorf("filters.denoise_model: %w", err)
		}
		c.Filters.DenoiseModel = expanded
	}
	return nil
}

func (c *Config) normalizeFilters() {
	c.Filters.NormalizeFilter = strings.TrimSpace(c.Filters.NormalizeFilter)
	if c.Filters.NormalizeFilter == "" {
		c.Filters.NormalizeFilter = defaultNormalizeFilter
	}
	c.Filters.NormalizeParams = strings.TrimSpace(c.Filters.NormalizeParams)
	c.Filters.DenoiseMethod = strings.ToLower(strings.TrimSpace(c.Filters.DenoiseMethod))
	if c.Filters.DenoiseMethod == "" {
		c.Filters.DenoiseMethod = defaultDenoiseMethod
	}
	c.Filters.DenoiseParams = strings.TrimSpace(c.Filters.DenoiseParams)
	c.Filters.DenoiseModel = strings.TrimSpace(c.Filters.DenoiseModel)
}

func (c *Config) normalizeOutput() {
	c.Output.DefaultFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Output.DefaultFormat), "."))
	if c.Output.DefaultFormat == "" {
		c.Output.DefaultFormat = defaultOutputFormat
	}
	c.Output.SaveDir = strings.TrimSpace(c.Output.SaveDir)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if c.Logging.MaxSizeMiB <= 0 {
		c.Logging.MaxSizeMiB = defaultLogMaxSizeMiB
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeTelemetry() {
	if c.Telemetry.BufferSize <= 0 {
		c.Telemetry.BufferSize = defaultTelemetryBuffer
	}
	if c.Telemetry.NtfyTimeoutSeconds <= 0 {
		c.Telemetry.NtfyTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	c.Telemetry.NtfyTopic = strings.TrimSpace(c.Telemetry.NtfyTopic)
	c.Telemetry.DBPath = strings.TrimSpace(c.Telemetry.DBPath)
	if strings.HasPrefix(c.Telemetry.DBPath, "~") {
		if expanded, err := expandPath(c.Telemetry.DBPath); err == nil {
			c.Telemetry.DBPath = expanded
		}
	}
}
