package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file strictly",
	Long: `Load --config with ALLSKY_* environment overrides and report every invalid
field. Unlike run, which resets invalid sections to their defaults and keeps
going, validate fails when any field is invalid.`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadConfigWithEnvOverrides(cfgFile); err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			out := cmd.ErrOrStderr()
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  %s\n", fe.Error())
			}
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", cfgFile)
	return nil
}
