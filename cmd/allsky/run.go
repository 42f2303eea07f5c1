package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/server"
	"github.com/rockets-cn/allsky/pkg/telemetry/metrics"
	"github.com/rockets-cn/allsky/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	autoCapture   bool
	noWatch       bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the station",
	Long: `Start the station: the capture scheduler, retention maintenance and the
HTTP API. The configuration file is watched and applied on change.

Examples:
  # Start with default config
  allsky run

  # Start with custom config
  allsky run --config /etc/allsky/config.yaml

  # Override listen address and start capturing immediately
  allsky run --listen 0.0.0.0:8080 --auto-capture

  # Validate config without starting
  allsky run --dry-run`,
	RunE: runStation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.autoCapture, "auto-capture", false, "start the capture scheduler regardless of configuration")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file when it changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runStation(cmd *cobra.Command, args []string) error {
	store, path, err := loadStore(cmd)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" || runFlags.autoCapture {
		if _, err := store.Update(func(c *config.Config) error {
			if runFlags.listenAddress != "" {
				c.Server.ListenAddress = runFlags.listenAddress
			}
			if runFlags.autoCapture {
				c.Capture.AutoCapture = true
			}
			return nil
		}); err != nil {
			return err
		}
	}
	cfg := store.Config()

	if err := installLogger(cfg.Telemetry.Logging, runFlags.logLevel); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintf(out, "Configuration valid (%s)\n", describeConfig(path))
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())
	st, err := openStation(ctx, store, collector, tracer)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer st.Close()

	if err := st.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	if path != "" && !runFlags.noWatch {
		watcher, err := config.NewWatcher(path, store, 0)
		if err != nil {
			slog.Warn("config hot reload disabled", "error", err)
		} else {
			watcher.OnReload = func(snap *config.Snapshot, err error) {
				if err == nil {
					slog.Info("config reloaded", "path", path, "version", snap.Version)
				}
			}
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					slog.Warn("config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	srv, err := server.New(server.Options{
		Station:   st,
		Metrics:   collector,
		Tracer:    tracer,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "allsky %s\n", Version)
	fmt.Fprintf(out, "Configuration: %s\n", describeConfig(path))
	fmt.Fprintf(out, "Station %q at %.4f, %.4f (%s)\n",
		cfg.Station.Name, cfg.Station.Latitude, cfg.Station.Longitude, st.CurrentPeriod().Period)
	fmt.Fprintf(out, "Listening on %s, press Ctrl+C to stop\n", cfg.Server.ListenAddress)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "Station stopped")
	return nil
}
