package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/config"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "allsky",
	Short: "All-sky camera station",
	Long: `Allsky drives an all-sky camera. It works out the current lighting period
(day, civil, nautical, astronomical twilight or night) from the sun's position,
captures images with exposure and gain tuned for that period, and keeps a
bounded, indexed image store with optional archiving.

Environment variables prefixed with ALLSKY_ override the configuration file.
They may also be placed in an env file (default .env).`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "file of ALLSKY_* environment overrides")
}

// loadEnvFile loads --env-file into the process environment. Variables
// already set win. A missing default file is not an error.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	err := godotenv.Load(envFile)
	if err == nil {
		slog.Debug("loaded environment file", "path", envFile)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !flagChanged(cmd, "env-file") {
		return nil
	}
	return cli.NewConfigError("env-file", err.Error())
}

// loadStore loads --config leniently and installs it as the global store.
// The default path is optional; when it does not exist the built-in
// defaults are used. It returns the path that was loaded, empty for
// defaults.
func loadStore(cmd *cobra.Command) (*config.Store, string, error) {
	path := cfgFile
	if path == defaultConfigFile && !flagChanged(cmd, "config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	store, problems, err := config.Initialize(path)
	if err != nil {
		return nil, "", cli.NewConfigError("config", err.Error())
	}
	for _, p := range problems {
		slog.Warn("configuration section reset to defaults",
			"section", p.Section(),
			"field", p.Field,
			"reason", p.Message,
		)
	}
	return store, path, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

func describeConfig(path string) string {
	if path == "" {
		return "built-in defaults"
	}
	return fmt.Sprintf("%q", path)
}
