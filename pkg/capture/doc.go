// Package capture drives the camera: a serialized device wrapper that applies
// exposure and gain before each read, a gate that decides whether a scheduled
// capture may run, and a background scheduler that triggers captures at a
// fixed cadence.
//
// # Scheduler Lifecycle
//
//	Stopped --Start()--> Running --Stop()--> Stopped
//
// Start is refused when the scheduler is already running or auto capture is
// disabled. Stop cancels the loop, which wakes from its interval wait
// immediately, and waits up to JoinTimeout for it to exit. A capture already
// in progress finishes; no new one starts after cancellation is observed.
//
// A failing capture never stops the loop. The error is recorded and the next
// attempt waits min(interval, MaxBackoff).
package capture
