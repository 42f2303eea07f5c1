package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/station"
)

var captureFlags struct {
	output string
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take one picture now",
	Long: `Take one picture with the parameters of the current lighting period, store
it and enforce retention. The capture is not gated on night hours or weather.`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	return withStation(cmd, func(ctx context.Context, st *station.Station) error {
		rec, err := st.CaptureOnce(ctx)
		if err != nil {
			return err
		}
		return printOutput(cmd, captureFlags.output, cli.ImageTable{rec})
	})
}
