package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/station"
)

var importFlags struct {
	quiet bool
}

var importCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Import existing images into the store",
	Long: `Copy every image file named, or found under a named directory, into the
store. The capture time comes from EXIF
or the file's modification time, and each image is labelled with the lighting
period and parameters in effect at that time. Retention is enforced once all
files are imported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVarP(&importFlags.quiet, "quiet", "q", false, "do not report progress")
}

func runImport(cmd *cobra.Command, args []string) error {
	var files []string
	for _, arg := range args {
		found, err := findImages(arg)
		if err != nil {
			return cli.NewCommandError("import", err)
		}
		files = append(files, found...)
	}

	return withStation(cmd, func(ctx context.Context, st *station.Station) error {
		w := cmd.ErrOrStderr()
		if importFlags.quiet {
			w = nil
		}
		progress := cli.NewProgress(w, "Importing")
		progress.Start(len(files))

		for _, src := range files {
			if err := ctx.Err(); err != nil {
				progress.Finish()
				return err
			}
			_, err := importOne(ctx, st, src)
			if err != nil {
				slog.Warn("import failed", "path", src, "error", err)
			}
			progress.Step(src, err)
		}
		tally := progress.Finish()

		result, err := st.Policy().Enforce(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d of %d images (%d failed)\n", tally.Succeeded(), tally.Total, tally.Failed)
		if n := result.Archived + result.Deleted; n > 0 {
			fmt.Fprintf(out, "Retention evicted %d images (%d archived, %d deleted)\n",
				n, result.Archived, result.Deleted)
		}
		return nil
	})
}

func importOne(ctx context.Context, st *station.Station, src string) (imagestore.Record, error) {
	captured, err := imagestore.CaptureTimeOf(src)
	if err != nil {
		return imagestore.Record{}, err
	}
	res := st.Period(captured)
	return st.Store().Import(ctx, src, imagestore.ExposureSettings{
		Period:   res.Period.String(),
		Exposure: res.Parameters.Exposure,
		Gain:     res.Parameters.Gain,
	})
}

// findImages lists the image files under root in lexical order. A root
// that is itself a file is returned if it is an image.
func findImages(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imagestore.IsImageFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}
