// Package health implements the station's liveness and readiness probes.
//
// Liveness only reports that the process is serving. Readiness runs every
// registered check concurrently, each under its own timeout. Checks are
// either critical or advisory:
//
//   - a failing critical check (camera, storage) makes the station
//     "unhealthy" and the readiness endpoint answers 503
//   - a failing advisory check (weather provider, scheduler staleness)
//     makes it "degraded" and the endpoint still answers 200
//
// Ready-made checks for the station's components live in checks.go.
package health
