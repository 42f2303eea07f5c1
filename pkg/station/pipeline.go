package station

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/imagestore/retention"
	"github.com/rockets-cn/allsky/pkg/telemetry/logging"
	"github.com/rockets-cn/allsky/pkg/telemetry/tracing"
	"github.com/rockets-cn/allsky/pkg/twilight"
	"github.com/rockets-cn/allsky/pkg/weather"
)

// CaptureInfo is the context a frame was captured in.
type CaptureInfo struct {
	ID          string
	StationName string
	Time        time.Time
	Resolution  twilight.Resolution
	Weather     weather.Snapshot
	Astronomy   map[string]any
}

// Overlay annotates an encoded frame. Returning an error keeps the
// original frame.
type Overlay func(ctx context.Context, frame capture.Frame, info CaptureInfo) (capture.Frame, error)

// CaptureOnce takes one picture now: classify, configure and read the
// device, gather weather and sky context, run the overlay, save and enforce
// retention. Failures are recorded and returned.
func (s *Station) CaptureOnce(ctx context.Context) (imagestore.Record, error) {
	start := time.Now()
	rec, err := s.capture(ctx)
	s.metrics.RecordCapture(err, time.Since(start))
	if err != nil {
		e := s.recorder.Record(err, map[string]any{"operation": "manual_capture"})
		s.events.Publish(Event{Type: EventCaptureFailed, Time: s.now(), Error: e})
	}
	return rec, err
}

// scheduledCapture is the scheduler callback. The scheduler records the
// error itself.
func (s *Station) scheduledCapture(ctx context.Context) error {
	_, err := s.capture(ctx)
	if err != nil {
		s.events.Publish(Event{Type: EventCaptureFailed, Time: s.now(), Data: map[string]any{"error": err.Error()}})
	}
	return err
}

func (s *Station) capture(ctx context.Context) (rec imagestore.Record, err error) {
	ctx, span := s.tracer.Start(ctx, "station.capture")
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	cfg := s.config.Config()
	now := s.now()
	info := CaptureInfo{
		ID:          uuid.NewString(),
		StationName: cfg.Station.Name,
		Time:        now,
		Resolution:  s.Period(now),
	}
	s.notePeriod(info.Resolution.Period)

	ctx = logging.WithCaptureID(ctx, info.ID)
	ctx = logging.WithPeriod(ctx, info.Resolution.Period.String())
	tracing.SetCaptureAttributes(span, info.ID, info.Resolution.Period.String(),
		info.Resolution.Parameters.Exposure, info.Resolution.Parameters.Gain)

	frame, err := s.readFrame(ctx, info.Resolution.Parameters)
	if err != nil {
		return imagestore.Record{}, err
	}

	info.Weather, info.Astronomy = s.captureContext(ctx)

	if s.overlay != nil {
		annotated, err := s.overlay(ctx, frame, info)
		if err != nil {
			s.logger.WarnContext(ctx, "overlay failed, saving unannotated frame", "error", err)
		} else {
			frame = annotated
		}
	}

	rec, err = s.save(ctx, imagestore.Capture{
		Data:        frame.Data,
		Format:      frame.Format,
		CaptureTime: now,
		Resolution:  imagestore.Resolution{Width: frame.Width, Height: frame.Height},
		Settings: imagestore.ExposureSettings{
			Period:   info.Resolution.Period.String(),
			Exposure: info.Resolution.Parameters.Exposure,
			Gain:     info.Resolution.Parameters.Gain,
		},
		Weather:   info.Weather,
		Astronomy: info.Astronomy,
	})
	if err != nil {
		return imagestore.Record{}, err
	}
	s.logger.InfoContext(ctx, "image captured",
		"image_path", rec.Path,
		"file_size", rec.FileSize,
		"exposure", rec.Settings.Exposure,
		"gain", rec.Settings.Gain,
	)

	s.enforceRetention(ctx)
	s.refreshStorageMetrics()

	s.events.Publish(Event{Type: EventCapture, Time: now, Record: &rec, Period: rec.Settings.Period})
	return rec, nil
}

func (s *Station) readFrame(ctx context.Context, params twilight.Parameters) (capture.Frame, error) {
	ctx, span := s.tracer.Start(ctx, "camera.capture")
	defer span.End()
	frame, err := s.device.Capture(ctx, params)
	tracing.SetStatus(span, err)
	return frame, err
}

func (s *Station) save(ctx context.Context, c imagestore.Capture) (imagestore.Record, error) {
	ctx, span := s.tracer.Start(ctx, "imagestore.save")
	defer span.End()
	rec, err := s.store.Save(ctx, c)
	if err == nil {
		tracing.SetImageAttributes(span, rec.Path, rec.FileSize)
	}
	tracing.SetStatus(span, err)
	return rec, err
}

func (s *Station) enforceRetention(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "retention.enforce")
	defer span.End()
	res, err := s.policy.Enforce(ctx)
	tracing.SetRetentionAttributes(span, res.Archived, res.Deleted, res.Failed)
	tracing.SetStatus(span, err)
	if err != nil {
		s.recorder.Record(err, map[string]any{"operation": "retention"})
	}
}

// captureContext fetches weather and sky data concurrently. Both degrade
// to their unavailable forms.
func (s *Station) captureContext(ctx context.Context) (weather.Snapshot, map[string]any) {
	loc := s.Location()

	var snap weather.Snapshot
	var sky map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap = s.weather.Get(gctx, loc.Latitude, loc.Longitude)
		return nil
	})
	g.Go(func() error {
		sky = s.astronomy.Snapshot(gctx, loc.Latitude, loc.Longitude)
		return nil
	})
	_ = g.Wait()
	return snap, sky
}

func (s *Station) notePeriod(p twilight.Period) {
	s.mu.Lock()
	changed := !s.hasPeriod || s.lastPeriod != p
	previous := s.lastPeriod
	s.lastPeriod, s.hasPeriod = p, true
	s.mu.Unlock()

	s.metrics.SetPeriod(p.String())
	if changed {
		s.logger.Info("lighting period changed", "period", p.String(), "previous", previous.String())
		s.events.Publish(Event{Type: EventPeriodChange, Time: s.now(), Period: p.String()})
	}
}

func (s *Station) onEviction(action retention.Action, err error) {
	s.metrics.RecordEviction(string(action), err)
	ev := Event{Type: EventEviction, Time: s.now(), Data: map[string]any{"action": string(action)}}
	if err != nil {
		var e *errpolicy.Error
		if errors.As(err, &e) {
			ev.Error = e
		}
	}
	s.events.Publish(ev)
}

func (s *Station) refreshStorageMetrics() {
	if !s.metrics.Enabled() {
		return
	}
	stats, err := s.store.Stats(s.policy.Config().MaxImages)
	if err != nil {
		s.logger.Warn("failed to read storage usage", "error", err)
		return
	}
	s.metrics.UpdateStorage(s.store.Count(), stats.CurrentSize, stats.ArchiveFiles, stats.ArchiveSize)
}
