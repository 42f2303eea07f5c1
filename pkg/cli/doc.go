/*
Package cli provides helpers shared by the allsky commands.

Output Formatting:

Command results render as an aligned table, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatText)
	if err := formatter.FormatTo(os.Stdout, cli.ImageTable(records)); err != nil {
		return err
	}

Values implementing Tabular render as tables in text and CSV form; any
other value prints with %v in text form and is rejected by CSV.

Progress Reporting:

Long operations such as importing a directory of images report progress:

	progress := cli.NewProgress(os.Stderr, "Importing")
	progress.Start(len(files))
	for _, f := range files {
		_, err := store.Import(ctx, f, settings)
		progress.Step(f, err)
	}
	tally := progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
