package errpolicy

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRecentCapacity is the number of recent errors a Recorder keeps.
const DefaultRecentCapacity = 50

// Stats is the error statistics surface.
type Stats struct {
	TotalErrors      uint64 `json:"total_errors"`
	RecentErrorCount int    `json:"recent_error_count"`
	LastError        *Error `json:"last_error"`
}

// Recorder counts errors and keeps a bounded ring of recent ones.
// It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	total    uint64
	ring     []*Error
	next     int // index the next record is written to
	size     int // number of valid entries in ring
	observer func(*Error)
	logger   *slog.Logger
}

// NewRecorder creates a Recorder holding up to capacity recent errors.
// A non-positive capacity uses DefaultRecentCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &Recorder{
		ring:   make([]*Error, capacity),
		logger: slog.Default().With("component", "errpolicy"),
	}
}

// OnRecord registers fn to be called with every recorded error, outside the
// recorder lock. Used to feed metrics.
func (r *Recorder) OnRecord(fn func(*Error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// Record annotates err with context, stores it and returns the structured
// description. Errors that are already *Error keep their kind; context keys
// are merged into a copy of their details.
func (r *Recorder) Record(err error, context map[string]any) *Error {
	if err == nil {
		return nil
	}

	rec := describe(err, context)
	rec.ID = uuid.NewString()

	r.mu.Lock()
	r.total++
	r.ring[r.next] = rec
	r.next = (r.next + 1) % len(r.ring)
	if r.size < len(r.ring) {
		r.size++
	}
	observer := r.observer
	r.mu.Unlock()

	r.logger.Error("error recorded",
		"kind", rec.Kind,
		"message", rec.Message,
		"details", rec.Details,
		"error", err,
	)

	if observer != nil {
		observer(rec)
	}
	return rec
}

// Stats returns the current totals and the most recent error.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		TotalErrors:      r.total,
		RecentErrorCount: r.size,
	}
	if r.size > 0 {
		last := (r.next - 1 + len(r.ring)) % len(r.ring)
		stats.LastError = r.ring[last]
	}
	return stats
}

// Recent returns the retained errors, oldest first.
func (r *Recorder) Recent() []*Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Error, 0, r.size)
	start := (r.next - r.size + len(r.ring)) % len(r.ring)
	for i := 0; i < r.size; i++ {
		out = append(out, r.ring[(start+i)%len(r.ring)])
	}
	return out
}

// Clear drops the retained errors. The total count is monotonic and is kept.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ring {
		r.ring[i] = nil
	}
	r.next = 0
	r.size = 0
}

func describe(err error, context map[string]any) *Error {
	var typed *Error
	if !errors.As(err, &typed) {
		return &Error{
			Kind:      KindUnexpected,
			Message:   err.Error(),
			Details:   context,
			Timestamp: time.Now(),
			Cause:     err,
		}
	}

	details := make(map[string]any, len(typed.Details)+len(context))
	for k, v := range typed.Details {
		details[k] = v
	}
	for k, v := range context {
		details[k] = v
	}

	message := typed.Message
	if typed.Cause != nil {
		message = message + ": " + typed.Cause.Error()
	}

	ts := typed.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &Error{
		Kind:      typed.Kind,
		Message:   message,
		Details:   details,
		Timestamp: ts,
		Cause:     err,
	}
}
