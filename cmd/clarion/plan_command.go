package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clarion/internal/engine"
	"clarion/internal/filterplan"
)

type planOutput struct {
	Format      string             `json:"format"`
	Stages      []filterplan.Stage `json:"stages"`
	FilterGraph string             `json:"filter_graph"`
	Channels    int                `json:"channels"`
	Codec       string             `json:"codec"`
	Arguments   []string           `json:"arguments"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var toggles toggleFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the filter graph and engine arguments for a set of options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			format := cfg.DefaultFormat()
			if strings.TrimSpace(toggles.format) != "" {
				format, err = filterplan.ParseFormat(toggles.format)
				if err != nil {
					return err
				}
			}
			opts := filterplan.Options{
				NormalizeVolume:        toggles.all || toggles.normalize,
				ReduceNoise:            toggles.all || toggles.denoise,
				ReduceHarshFrequencies: toggles.all || toggles.deharsh,
				ConvertToMono:          toggles.all || toggles.mono,
			}
			plan, err := cfg.FilterPolicy().Build(opts, format)
			if err != nil {
				return err
			}

			out := planOutput{
				Format:      plan.Format.String(),
				Stages:      plan.Stages,
				FilterGraph: plan.FilterGraph(),
				Channels:    plan.Channels,
				Codec:       plan.Encoder.Codec,
				Arguments:   engine.BuildArgs(plan, "<input>", "<output>"),
			}
			if out.Stages == nil {
				out.Stages = []filterplan.Stage{}
			}
			if asJSON {
				return writeJSON(cmd, out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlan(out))
			return nil
		},
	}

	toggles.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderPlan(out planOutput) string {
	var b strings.Builder
	if len(out.Stages) == 0 {
		b.WriteString("No filters selected; the input is only re-encoded.\n")
	} else {
		rows := make([][]string, 0, len(out.Stages))
		for i, stage := range out.Stages {
			params := stage.Params
			if params == "" {
				params = "-"
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), stage.Name, params})
		}
		b.WriteString(renderTable([]string{"#", "Filter", "Parameters"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
		b.WriteString("\n")
	}
	channels := "keep"
	if out.Channels > 0 {
		channels = strconv.Itoa(out.Channels)
	}
	fmt.Fprintf(&b, "Format:   %s (%s)\n", out.Format, out.Codec)
	fmt.Fprintf(&b, "Channels: %s\n", channels)
	fmt.Fprintf(&b, "Command:  ffmpeg %s", strings.Join(out.Arguments, " "))
	return b.String()
}
