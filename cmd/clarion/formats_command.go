package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clarion/internal/filterplan"
)

type formatInfo struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	MIMEType  string `json:"mime_type"`
	Codec     string `json:"codec"`
	Settings  string `json:"settings"`
	Lossless  bool   `json:"lossless"`
	Default   bool   `json:"default"`
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			current := cfg.DefaultFormat()

			infos := make([]formatInfo, 0, len(filterplan.Formats()))
			for _, format := range filterplan.Formats() {
				encoder := format.Encoder()
				settings := make([]string, 0, len(encoder.Args))
				for _, arg := range encoder.Args {
					settings = append(settings, arg.Flag+" "+arg.Value)
				}
				infos = append(infos, formatInfo{
					Name:      format.String(),
					Extension: format.Extension(),
					MIMEType:  format.MIMEType(),
					Codec:     encoder.Codec,
					Settings:  strings.Join(settings, " "),
					Lossless:  format.Lossless(),
					Default:   format == current,
				})
			}
			if asJSON {
				return writeJSON(cmd, infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				name := info.Name
				if info.Default {
					name += " *"
				}
				rows = append(rows, []string{name, info.Extension, info.MIMEType, info.Codec, info.Settings, yesNo(info.Lossless)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Format", "Extension", "MIME", "Codec", "Settings", "Lossless"},
				rows, nil,
			))
			fmt.Fprintln(cmd.OutOrStdout(), "* default format")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
