package deps

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clarion/internal/config"
	"clarion/internal/engine"
	"clarion/internal/filterplan"
	"clarion/internal/services"
)

// CheckEncoders reports, per output format, whether ffmpeg was built with the
// encoder that format needs.
func CheckEncoders(ctx context.Context, ffmpegBinary string) ([]Status, error) {
	out, err := commandContext(ctx, ffmpegBinary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "deps", "list encoders", "", err)
	}
	available := parseEncoders(string(out))

	formats := filterplan.Formats()
	results := make([]Status, 0, len(formats))
	for _, format := range formats {
		codec := format.Encoder().Codec
		status := Status{
			Name:        strings.ToUpper(format.String()),
			Command:     codec,
			Description: fmt.Sprintf("Encoder for %s output", format),
			Optional:    format != filterplan.DefaultFormat,
			Available:   available[codec],
		}
		if !status.Available {
			status.Detail = fmt.Sprintf("ffmpeg lacks the %s encoder", codec)
		}
		results = append(results, status)
	}
	return results, nil
}

// parseEncoders reads `ffmpeg -encoders` output. Encoder lines start with a
// six-character capability field followed by the encoder name; audio
// encoders have 'A' in the first column.
func parseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	inList := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "------") {
			inList = true
			continue
		}
		if !inList {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0][0] != 'A' {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}

// CheckEngine attempts a full engine load against cfg, including the
// workspace lock, and releases it again.
func CheckEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) Status {
	status := Status{
		Name:        "Engine",
		Command:     cfg.FFmpegBinary(),
		Description: fmt.Sprintf("Workspace %s", cfg.Paths.WorkDir),
	}
	eng := engine.NewFromConfig(cfg, logger)
	defer eng.Close()
	if err := eng.EnsureLoaded(ctx); err != nil {
		status.Detail = services.Message(err)
		if status.Detail == "" {
			status.Detail = err.Error()
		}
		return status
	}
	status.Available = true
	status.Detail = eng.Version()
	return status
}
