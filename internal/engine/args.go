package engine

import (
	"strconv"

	"clarion/internal/filterplan"
)

// BuildArgs renders plan as ffmpeg arguments. The combined filter graph is a
// single -af argument so stage order inside the graph is the plan order; the
// channel override and encoder parameters follow it.
func BuildArgs(plan filterplan.Plan, inputPath, outputPath string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
	}
	if graph := plan.FilterGraph(); graph != "" {
		args = append(args, "-af", graph)
	}
	if plan.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(plan.Channels))
	}
	args = append(args, plan.Encoder.Flags()...)
	args = append(args, "-progress", "pipe:1", "-nostats", outputPath)
	return args
}
