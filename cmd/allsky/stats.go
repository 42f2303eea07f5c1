package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/station"
)

var statsFlags struct {
	output string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show image store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runStats(cmd *cobra.Command, args []string) error {
	return withStation(cmd, func(ctx context.Context, st *station.Station) error {
		stats, err := st.Statistics()
		if err != nil {
			return err
		}
		if statsFlags.output == string(cli.FormatJSON) {
			return printOutput(cmd, statsFlags.output, stats)
		}
		return printOutput(cmd, statsFlags.output, statsTable(stats))
	})
}

func statsTable(s station.Statistics) cli.KeyValues {
	ceiling := "unlimited"
	if s.Storage.Ceiling > 0 {
		ceiling = strconv.Itoa(s.Storage.Ceiling)
	}
	return cli.KeyValues{
		{"period", s.Period},
		{"total_images", strconv.Itoa(s.TotalImages)},
		{"recent_24h", strconv.Itoa(s.Recent24h)},
		{"oldest", formatOptionalTime(s.Oldest)},
		{"newest", formatOptionalTime(s.Newest)},
		{"current_files", strconv.Itoa(s.Storage.CurrentFiles)},
		{"current_size", cli.HumanBytes(s.Storage.CurrentSize)},
		{"archive_files", strconv.Itoa(s.Storage.ArchiveFiles)},
		{"archive_size", cli.HumanBytes(s.Storage.ArchiveSize)},
		{"ceiling", ceiling},
		{"usage", fmt.Sprintf("%.1f%%", s.Storage.UsagePercent)},
		{"total_errors", strconv.FormatUint(s.Errors.TotalErrors, 10)},
	}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
