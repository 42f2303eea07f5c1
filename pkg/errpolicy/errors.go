package errpolicy

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure.
type Kind string

const (
	// KindDevice indicates the capture device is unavailable or a read failed.
	KindDevice Kind = "device_error"

	// KindDataFetch indicates a weather, astronomy or ephemeris lookup failed.
	KindDataFetch Kind = "data_fetch_error"

	// KindStorage indicates a file I/O failure or a corrupt index.
	KindStorage Kind = "storage_error"

	// KindConfiguration indicates an invalid configuration value.
	KindConfiguration Kind = "configuration_error"

	// KindUnexpected is used for errors that carry no kind of their own.
	KindUnexpected Kind = "unexpected_error"
)

// Error is the structured error description passed across component
// boundaries. It serializes as {kind, message, details, timestamp}.
type Error struct {
	ID        string         `json:"id,omitempty"`
	Kind      Kind           `json:"kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Cause     error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. This lets callers
// match on kind with errors.Is(err, &Error{Kind: KindStorage}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error, details map[string]any) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewDeviceError creates a device error.
func NewDeviceError(message string, cause error) *Error {
	return New(KindDevice, message, cause, nil)
}

// NewDataFetchError creates a data fetch error tagged with its source
// ("weather", "astronomy", "ephemeris").
func NewDataFetchError(source, message string, cause error) *Error {
	return New(KindDataFetch, message, cause, map[string]any{"source": source})
}

// NewStorageError creates a storage error for the given operation and path.
func NewStorageError(operation, path string, cause error) *Error {
	details := map[string]any{"operation": operation}
	if path != "" {
		details["path"] = path
	}
	return New(KindStorage, operation+" failed", cause, details)
}

// NewConfigurationError creates a configuration error for a single field.
func NewConfigurationError(field, message string) *Error {
	return New(KindConfiguration, message, nil, map[string]any{"field": field})
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
