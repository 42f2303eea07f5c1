// Package logging configures the process-wide structured logger.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text and console output selected from configuration
//   - Redaction of credentials such as weather API keys and cloud secrets
//   - Context fields (request and capture identifiers) added to every record
//     logged with a *Context method
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithCaptureID(ctx, id)
//	slog.InfoContext(ctx, "image saved", "path", path) // includes capture_id
//
// Components derive their own loggers with
// slog.Default().With("component", "<name>").
package logging
