package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clarion/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, its encoders, the engine and the data directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := false

			printSection(out, "Binaries", colorize)
			binaries := deps.CheckBinaries(deps.Requirements(cfg))
			for _, status := range binaries {
				failed = printStatus(out, status, colorize) || failed
			}

			printSection(out, "Encoders", colorize)
			encoders, err := deps.CheckEncoders(cmd.Context(), cfg.FFmpegBinary())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("ffmpeg", statusError, err.Error(), colorize))
				failed = true
			}
			for _, status := range encoders {
				failed = printStatus(out, status, colorize) || failed
			}

			printSection(out, "Engine", colorize)
			engineStatus := deps.CheckEngine(cmd.Context(), cfg, ctx.logger())
			failed = printStatus(out, engineStatus, colorize) || failed

			printSection(out, "Directories", colorize)
			for _, status := range deps.CheckDirectories(cfg) {
				failed = printStatus(out, status, colorize) || failed
			}

			if failed {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

// printStatus writes one dependency line and reports whether it is a
// required dependency that is unavailable.
func printStatus(out io.Writer, status deps.Status, colorize bool) bool {
	switch {
	case status.Available:
		fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Detail, colorize))
		return false
	case status.Optional:
		fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
		return false
	default:
		fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
		return true
	}
}
