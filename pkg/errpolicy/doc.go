// Package errpolicy provides the error taxonomy, retry-with-backoff and error
// aggregation shared by the capture, storage and data-fetch components.
//
// # Error Kinds
//
// Every failure that crosses a component boundary is reported as an *Error
// carrying one of the following kinds:
//
//   - KindDevice - capture device unavailable or frame read failed
//   - KindDataFetch - weather, astronomy or ephemeris lookup failed
//   - KindStorage - file I/O or index corruption
//   - KindConfiguration - invalid configuration values
//
// # Retry
//
// Retry re-invokes an operation on failure with exponential backoff:
//
//	err := errpolicy.Retry(ctx, func(ctx context.Context) error {
//	    return device.Read(ctx)
//	}, errpolicy.RetryOptions{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, Exponential: true})
//
// # Recording
//
// A Recorder counts errors and keeps a bounded ring of the most recent ones:
//
//	rec := errpolicy.NewRecorder(50)
//	e := rec.Record(err, map[string]any{"operation": "capture"})
//	stats := rec.Stats()
package errpolicy
