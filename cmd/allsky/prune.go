package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/imagestore/retention"
	"github.com/rockets-cn/allsky/pkg/station"
)

var pruneFlags struct {
	dryRun bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Enforce retention now",
	Long: `Evict the oldest images beyond retention.max_images, archiving them when
archiving is enabled, and drop index entries older than the storage horizon.

Use --dry-run to list what would be evicted without changing anything.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVar(&pruneFlags.dryRun, "dry-run", false, "show the eviction plan without applying it")
}

func runPrune(cmd *cobra.Command, args []string) error {
	return withStation(cmd, func(ctx context.Context, st *station.Station) error {
		result, err := st.Prune(ctx, pruneFlags.dryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.Plan != nil {
			printPlan(out, *result.Plan)
			return nil
		}
		if a := result.Applied; a != nil {
			fmt.Fprintf(out, "Archived %d, deleted %d, failed %d\n", a.Archived, a.Deleted, a.Failed)
		}
		fmt.Fprintf(out, "Dropped %d index entries past the horizon\n", result.AgePruned)
		return nil
	})
}

func printPlan(w io.Writer, plan retention.Decision) {
	if plan.Empty() {
		fmt.Fprintln(w, "Nothing to evict")
		return
	}
	fmt.Fprintf(w, "Would evict %d images:\n", len(plan.Evictions))
	for _, ev := range plan.Evictions {
		fmt.Fprintf(w, "  %-7s %s\n", ev.Action, ev.Record.Path)
	}
}
