package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys in the allsky.* namespace.
const (
	AttrCaptureID = "allsky.capture.id"
	AttrPeriod    = "allsky.period"
	AttrExposure  = "allsky.exposure"
	AttrGain      = "allsky.gain"

	AttrImagePath = "allsky.image.path"
	AttrImageSize = "allsky.image.size"

	AttrArchived = "allsky.retention.archived"
	AttrDeleted  = "allsky.retention.deleted"
	AttrFailed   = "allsky.retention.failed"

	AttrRequestID = "allsky.request_id"
)

// SetCaptureAttributes records which period and parameters a capture used.
func SetCaptureAttributes(span trace.Span, id, period string, exposure, gain int) {
	span.SetAttributes(
		attribute.String(AttrCaptureID, id),
		attribute.String(AttrPeriod, period),
		attribute.Int(AttrExposure, exposure),
		attribute.Int(AttrGain, gain),
	)
}

// SetImageAttributes records the stored image.
func SetImageAttributes(span trace.Span, path string, size int64) {
	span.SetAttributes(
		attribute.String(AttrImagePath, path),
		attribute.Int64(AttrImageSize, size),
	)
}

// SetRetentionAttributes records the outcome of an enforcement pass.
func SetRetentionAttributes(span trace.Span, archived, deleted, failed int) {
	span.SetAttributes(
		attribute.Int(AttrArchived, archived),
		attribute.Int(AttrDeleted, deleted),
		attribute.Int(AttrFailed, failed),
	)
}
