// Package station wires the all-sky camera components together.
//
// A Station owns exactly one of each component: the serialized capture
// device, the sun boundary cache, the weather and astronomy services, the
// image store, the retention policy with its maintenance schedule, the
// capture scheduler and the error recorder. Components never reach each
// other through globals; everything flows through the Station.
//
// CaptureOnce is the capture pipeline:
//
//	classify -> configure + read (device lock, retried) -> context fetch
//	-> overlay hook -> save -> retention
//
// The station follows the configuration store: a published snapshot is
// applied to the running components (scheduler settings, weather provider,
// retention ceiling, station location) without a restart. Storage layout
// and index changes take effect on the next start.
package station
