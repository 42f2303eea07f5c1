package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/station"
)

// withStation opens a station for a one-shot command. Nothing runs in the
// background and only warnings are logged.
func withStation(cmd *cobra.Command, fn func(ctx context.Context, st *station.Station) error) error {
	store, _, err := loadStore(cmd)
	if err != nil {
		return err
	}
	if err := installLogger(store.Config().Telemetry.Logging, "warn"); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	st, err := openStation(ctx, store, nil, nil)
	if err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	defer st.Close()

	if err := fn(ctx, st); err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	return nil
}

func printOutput(cmd *cobra.Command, format string, data any) error {
	f, err := cli.ParseFormat(format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(f).FormatTo(cmd.OutOrStdout(), data)
}

// parseTimeFlag accepts RFC 3339 timestamps and plain dates. Dates are
// midnight in loc. An empty value yields nil.
func parseTimeFlag(name, value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, cli.NewConfigError(name, "expected an RFC 3339 time or a YYYY-MM-DD date, got "+value)
	}
	return &t, nil
}
