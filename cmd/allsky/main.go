// Allsky runs an all-sky camera station.
//
// It classifies the sky into lighting periods from the sun's elevation,
// captures images with per-period exposure and gain, keeps a bounded image
// store and serves the station over HTTP.
//
// Usage:
//
//	# Start the station with the default configuration
//	allsky run
//
//	# Start with a custom configuration file and environment file
//	allsky run --config /etc/allsky/config.yaml --env-file /etc/allsky/allsky.env
//
//	# Take one picture now
//	allsky capture
//
//	# List last night's images as CSV
//	allsky images --since 2024-06-21T18:00:00Z --output csv
//
//	# Import existing images
//	allsky import /mnt/old-camera
//
//	# Show what retention would evict
//	allsky prune --dry-run
//
//	# Check a configuration file
//	allsky config validate
package main

import (
	"fmt"
	"os"

	"github.com/rockets-cn/allsky/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
