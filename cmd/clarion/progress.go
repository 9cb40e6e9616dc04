package main

import (
	"fmt"
	"io"
	"strings"

	"clarion/internal/job"
	"clarion/internal/logging"
)

const progressBarWidth = 30

// progressRenderer draws job snapshots. On a terminal it redraws one line in
// place; otherwise it prints a line per status change and per 10% bucket.
type progressRenderer struct {
	out     io.Writer
	inPlace bool
	sampler *logging.ProgressSampler
	lastLen int
}

func newProgressRenderer(out io.Writer, inPlace bool) *progressRenderer {
	return &progressRenderer{
		out:     out,
		inPlace: inPlace,
		sampler: logging.NewProgressSampler(10),
	}
}

func (r *progressRenderer) Render(state job.State) {
	if !state.Live() {
		return
	}
	if r.inPlace {
		line := formatProgressLine(state)
		pad := ""
		if r.lastLen > len(line) {
			pad = strings.Repeat(" ", r.lastLen-len(line))
		}
		fmt.Fprintf(r.out, "\r%s%s", line, pad)
		r.lastLen = len(line)
		return
	}
	percent := -1.0
	if state.Progress != nil {
		percent = *state.Progress
	}
	if r.sampler.ShouldLog(percent, string(state.Status)) {
		fmt.Fprintln(r.out, formatProgressText(state))
	}
}

// Finish terminates an in-place line.
func (r *progressRenderer) Finish() {
	if r.inPlace && r.lastLen > 0 {
		fmt.Fprintln(r.out)
		r.lastLen = 0
	}
}

func formatProgressLine(state job.State) string {
	if state.Status == job.StatusLoading {
		return "Loading engine..."
	}
	if state.Progress == nil {
		return fmt.Sprintf("[%s] processing", strings.Repeat("~", progressBarWidth))
	}
	filled := int(*state.Progress / 100 * progressBarWidth)
	filled = max(0, min(progressBarWidth, filled))
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressBarWidth-filled)
	return fmt.Sprintf("[%s] %3.0f%%", bar, *state.Progress)
}

func formatProgressText(state job.State) string {
	switch {
	case state.Status == job.StatusLoading:
		return "Loading engine..."
	case state.Progress == nil:
		return "Processing..."
	default:
		return fmt.Sprintf("Processing %.0f%%", *state.Progress)
	}
}
