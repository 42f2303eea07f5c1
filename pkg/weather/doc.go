// Package weather fetches local weather conditions for the capture overlay,
// the image metadata and the clear-sky capture gate.
//
// Providers return a Snapshot, a flat map of display keys such as
// "Cloud Cover" or "Temperature" to formatted values. The Service caches
// snapshots per rounded location for five minutes and degrades to the
// last known snapshot, or to an all "N/A" snapshot, when the provider
// fails.
package weather
