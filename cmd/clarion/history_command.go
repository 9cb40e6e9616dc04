package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clarion/internal/telemetry"
)

type historyEntry struct {
	ID                      int64     `json:"id"`
	Event                   string    `json:"event"`
	JobID                   string    `json:"job_id,omitempty"`
	Format                  string    `json:"format,omitempty"`
	OriginalSizeBytes       int64     `json:"original_size_bytes"`
	ProcessedSizeBytes      int64     `json:"processed_size_bytes"`
	CompressionRatioPercent *float64  `json:"compression_ratio_percent"`
	Message                 string    `json:"message,omitempty"`
	At                      time.Time `json:"at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent processing events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			entries := make([]historyEntry, 0, len(records))
			for _, record := range records {
				entries = append(entries, historyEntry{
					ID:                      record.ID,
					Event:                   record.Name,
					JobID:                   record.JobID,
					Format:                  record.Format,
					OriginalSizeBytes:       record.OriginalSize,
					ProcessedSizeBytes:      record.ProcessedSize,
					CompressionRatioPercent: record.Ratio,
					Message:                 record.Message,
					At:                      record.At,
				})
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					humanize.Time(entry.At),
					entry.Event,
					shortJobID(entry.JobID),
					dashIfEmpty(entry.Format),
					sizeOrDash(entry.OriginalSizeBytes),
					sizeOrDash(entry.ProcessedSizeBytes),
					formatRatio(entry.CompressionRatioPercent),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "When", "Event", "Job", "Format", "Original", "Processed", "Reduction"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d event(s)\n", removed)
			return nil
		},
	})
	return cmd
}

func (c *commandContext) openHistory() (*telemetry.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return telemetry.OpenStore(cfg)
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return dashIfEmpty(id)
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func sizeOrDash(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}
