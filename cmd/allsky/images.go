package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/station"
)

var imagesFlags struct {
	since  string
	until  string
	limit  int
	output string
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List stored images",
	Long: `List indexed images, newest first, optionally bounded by capture time.

Examples:
  # The 20 newest images
  allsky images --limit 20

  # Everything captured on a given night, as CSV
  allsky images --since 2024-06-21T18:00:00+08:00 --until 2024-06-22T07:00:00+08:00 -o csv`,
	Args: cobra.NoArgs,
	RunE: listImages,
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.Flags().StringVar(&imagesFlags.since, "since", "", "earliest capture time (RFC 3339 or YYYY-MM-DD)")
	imagesCmd.Flags().StringVar(&imagesFlags.until, "until", "", "latest capture time (RFC 3339 or YYYY-MM-DD)")
	imagesCmd.Flags().IntVarP(&imagesFlags.limit, "limit", "n", 0, "maximum number of images (0 for all)")
	imagesCmd.Flags().StringVarP(&imagesFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func listImages(cmd *cobra.Command, args []string) error {
	return withStation(cmd, func(ctx context.Context, st *station.Station) error {
		loc := st.Location().TZ
		since, err := parseTimeFlag("since", imagesFlags.since, loc)
		if err != nil {
			return err
		}
		until, err := parseTimeFlag("until", imagesFlags.until, loc)
		if err != nil {
			return err
		}

		records, err := st.Store().Query(ctx, since, until, imagesFlags.limit)
		if err != nil {
			return err
		}
		return printOutput(cmd, imagesFlags.output, cli.ImageTable(records))
	})
}
