package station

import (
	"context"
	"time"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/imagestore/retention"
)

// Statistics is the combined station statistics surface.
type Statistics struct {
	TotalImages int                     `json:"total_images"`
	Recent24h   int                     `json:"recent_24h"`
	Oldest      *time.Time              `json:"oldest,omitempty"`
	Newest      *time.Time              `json:"newest,omitempty"`
	Storage     imagestore.StorageStats `json:"storage"`
	Scheduler   capture.Status          `json:"scheduler"`
	Errors      errpolicy.Stats         `json:"errors"`
	Period      string                  `json:"period"`
}

// Statistics collects index, storage, scheduler and error statistics.
func (s *Station) Statistics() (Statistics, error) {
	st, err := s.store.Statistics(s.policy.Config().MaxImages)
	out := Statistics{
		TotalImages: st.TotalImages,
		Recent24h:   st.Recent24h,
		Oldest:      st.Oldest,
		Newest:      st.Newest,
		Storage:     st.Storage,
		Scheduler:   s.scheduler.Status(),
		Errors:      s.recorder.Stats(),
		Period:      s.Period(s.now()).Period.String(),
	}
	if err != nil {
		s.recorder.Record(err, map[string]any{"operation": "statistics"})
		return out, err
	}
	return out, nil
}

// StorageStats returns the storage statistics surface.
func (s *Station) StorageStats() (imagestore.StorageStats, error) {
	return s.store.Stats(s.policy.Config().MaxImages)
}

// PruneResult reports a manual maintenance run.
type PruneResult struct {
	// Plan is set for dry runs.
	Plan *retention.Decision `json:"plan,omitempty"`

	// Applied is set when the plan was carried out.
	Applied   *retention.Result `json:"applied,omitempty"`
	AgePruned int               `json:"age_pruned"`
}

// Prune enforces retention for the current corpus and drops index entries
// older than the horizon. A dry run only reports the plan.
func (s *Station) Prune(ctx context.Context, dryRun bool) (PruneResult, error) {
	if dryRun {
		plan, err := s.policy.Plan(ctx)
		if err != nil {
			return PruneResult{}, err
		}
		return PruneResult{Plan: &plan}, nil
	}

	res, err := s.policy.Enforce(ctx)
	out := PruneResult{Applied: &res}
	if err != nil {
		return out, err
	}

	out.AgePruned, err = s.store.PruneOlderThan(ctx, s.store.Cutoff())
	s.refreshStorageMetrics()
	return out, err
}
