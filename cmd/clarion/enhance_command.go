package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"clarion/internal/job"
	"clarion/internal/packager"
	"clarion/internal/services"
	"clarion/internal/session"
)

type toggleFlags struct {
	normalize bool
	denoise   bool
	deharsh   bool
	mono      bool
	all       bool
	format    string
}

func (f *toggleFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.normalize, "normalize", false, "Normalize loudness")
	flags.BoolVar(&f.denoise, "denoise", false, "Reduce background noise")
	flags.BoolVar(&f.deharsh, "deharsh", false, "Soften harsh high frequencies")
	flags.BoolVar(&f.mono, "mono", false, "Downmix to a single channel")
	flags.BoolVar(&f.all, "all", false, "Enable every enhancement")
	flags.StringVarP(&f.format, "format", "f", "", "Output format (mp3, ogg, opus, m4a, flac, wav)")
}

func (f *toggleFlags) apply(s *session.Session) error {
	enabled := map[string]bool{
		session.ToggleNormalize: f.normalize,
		session.ToggleDenoise:   f.denoise,
		session.ToggleDeharsh:   f.deharsh,
		session.ToggleMono:      f.mono,
	}
	for _, name := range session.Toggles() {
		if err := s.Toggle(name, f.all || enabled[name]); err != nil {
			return err
		}
	}
	if strings.TrimSpace(f.format) != "" {
		if err := s.SetFormat(f.format); err != nil {
			return err
		}
	}
	return nil
}

type enhanceResult struct {
	JobID                   string   `json:"job_id"`
	Input                   string   `json:"input"`
	Output                  string   `json:"output"`
	Format                  string   `json:"format"`
	MIMEType                string   `json:"mime_type"`
	Stages                  []string `json:"stages"`
	OriginalSizeBytes       int64    `json:"original_size_bytes"`
	ProcessedSizeBytes      int64    `json:"processed_size_bytes"`
	CompressionRatioPercent *float64 `json:"compression_ratio_percent"`
}

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var toggles toggleFlags
	var output string
	var keep bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "enhance <file>",
		Short: "Clean up an audio file and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			s := rt.session
			if err := s.SelectFile(args[0]); err != nil {
				return err
			}
			if err := toggles.apply(s); err != nil {
				return err
			}
			plan, err := s.Plan()
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			var renderer *progressRenderer
			if !asJSON {
				renderer = newProgressRenderer(stderr, isTerminal(stderr))
			}
			updates, unsubscribe := s.Subscribe(16)
			drained := make(chan struct{})
			go func() {
				defer close(drained)
				for state := range updates {
					if renderer != nil {
						renderer.Render(state)
					}
				}
			}()

			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			startErr := s.Start(runCtx)
			if startErr == nil {
				s.Wait()
			}
			unsubscribe()
			<-drained
			if renderer != nil {
				renderer.Finish()
			}
			if startErr != nil {
				return startErr
			}

			view := s.Snapshot()
			if view.Job.Status != job.StatusSucceeded {
				return jobFailure(view.Job)
			}

			dest := strings.TrimSpace(output)
			if dest == "" {
				dest = rt.cfg.Output.SaveDir
			}
			if dest == "" {
				dest = filepath.Dir(view.Input.Path)
			}
			saved, err := s.Save(dest)
			if err != nil {
				return err
			}

			metrics := packager.Metrics{}
			if view.Metrics != nil {
				metrics = *view.Metrics
			}
			result := enhanceResult{
				JobID:                   view.Job.JobID,
				Input:                   view.Input.Path,
				Output:                  saved,
				Format:                  view.Job.Artifact.Format.String(),
				MIMEType:                view.Job.Artifact.MIMEType,
				Stages:                  plan.StageNames(),
				OriginalSizeBytes:       metrics.OriginalSizeBytes,
				ProcessedSizeBytes:      metrics.ProcessedSizeBytes,
				CompressionRatioPercent: metrics.CompressionRatioPercent,
			}
			if !keep {
				if err := s.Reset(); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEnhanceResult(result))
			return nil
		},
	}

	toggles.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file or directory (defaults to output.save_dir, then the input's directory)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the artifact in the output directory after saving")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func jobFailure(state job.State) error {
	if state.Err == nil {
		return errors.New(job.MessageGeneric)
	}
	if state.Err.Kind == nil {
		return errors.New(state.Err.Message)
	}
	return services.Wrap(state.Err.Kind, "enhance", "", state.Err.Message, nil)
}

func renderEnhanceResult(result enhanceResult) string {
	stages := "none"
	if len(result.Stages) > 0 {
		stages = strings.Join(result.Stages, ", ")
	}
	return renderKeyValues([][2]string{
		{"Input", result.Input},
		{"Saved to", result.Output},
		{"Format", fmt.Sprintf("%s (%s)", result.Format, result.MIMEType)},
		{"Filters", stages},
		{"Original size", humanize.IBytes(uint64(max(result.OriginalSizeBytes, 0)))},
		{"Processed size", humanize.IBytes(uint64(max(result.ProcessedSizeBytes, 0)))},
		{"Size reduction", formatRatio(result.CompressionRatioPercent)},
	})
}
