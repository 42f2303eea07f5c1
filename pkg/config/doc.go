// Package config provides configuration management for the all-sky camera
// station.
//
// Configuration is loaded from a YAML file, completed with defaults and
// overridden by environment variables. Validation collects every problem
// at once as a ValidationError.
//
// # Configuration Loading
//
//  1. Strict, for tooling such as `allsky config validate`:
//     cfg, err := config.LoadConfigWithEnvOverrides("allsky.yaml")
//
//  2. Lenient, for the running station:
//     cfg, problems, err := config.LoadSanitized("allsky.yaml")
//
// LoadSanitized resets each invalid section to its defaults and reports the
// field errors instead of failing, so a typo in the weather section does not
// keep the camera from capturing.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ALLSKY_SECTION_FIELD:
//
//   - ALLSKY_STATION_LATITUDE overrides station.latitude
//   - ALLSKY_CAPTURE_INTERVAL overrides capture.interval
//   - ALLSKY_WEATHER_OPENWEATHERMAP_API_KEY overrides weather.openweathermap_api_key
//
// # Secret References
//
// weather.openweathermap_api_key and retention.s3.bucket may be written as
// ${secret:name}. The value comes from ALLSKY_SECRET_NAME or, when
// secrets.directory is set, from the file of that name in the directory.
//
// # Snapshots and Hot Reload
//
// A Store holds the active configuration as an immutable, versioned
// Snapshot. Components read Current() and subscribe to changes; updates
// always publish a fresh snapshot and never mutate a published one.
// A Watcher reloads the file into the Store when it changes on disk.
package config
