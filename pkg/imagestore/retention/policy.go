package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// Action is what happens to an evicted image.
type Action string

const (
	ActionArchive Action = "archive"
	ActionDelete  Action = "delete"
)

// Eviction is one record selected for eviction.
type Eviction struct {
	Record imagestore.Record `json:"record"`
	Action Action            `json:"action"`
}

// Decision is the ordered set of evictions, oldest first.
type Decision struct {
	Evictions []Eviction `json:"evictions"`
}

// Empty reports whether nothing needs evicting.
func (d Decision) Empty() bool {
	return len(d.Evictions) == 0
}

// PlanEviction selects the oldest len(records)-ceiling records, ordered by
// capture time with ties broken by lexical path order. Each is marked
// ActionArchive when archive is set, else ActionDelete. A non-positive
// ceiling means unlimited.
func PlanEviction(records []imagestore.Record, ceiling int, archive bool) Decision {
	if ceiling <= 0 || len(records) <= ceiling {
		return Decision{}
	}

	sorted := make([]imagestore.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		ta, tb := sorted[a].CaptureTime, sorted[b].CaptureTime
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return sorted[a].Path < sorted[b].Path
	})

	action := ActionDelete
	if archive {
		action = ActionArchive
	}

	excess := len(sorted) - ceiling
	d := Decision{Evictions: make([]Eviction, excess)}
	for i := 0; i < excess; i++ {
		d.Evictions[i] = Eviction{Record: sorted[i], Action: action}
	}
	return d
}

// Store is the part of the metadata store the policy needs.
type Store interface {
	LoadAll(ctx context.Context) ([]imagestore.Record, error)
	Forget(ctx context.Context, paths ...string) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Cutoff is the oldest capture time the index keeps.
	Cutoff() time.Time
}

// Config contains configuration for the retention policy.
type Config struct {
	// MaxImages is the retention ceiling. 0 means unlimited.
	MaxImages int

	// ArchiveEnabled archives evicted images instead of deleting them.
	ArchiveEnabled bool
}

// Result summarizes one Apply.
type Result struct {
	Archived int                `json:"archived"`
	Deleted  int                `json:"deleted"`
	Failed   int                `json:"failed"`
	Evicted  []string           `json:"evicted,omitempty"`
	Errors   []*errpolicy.Error `json:"errors,omitempty"`
}

// Policy applies eviction decisions.
type Policy struct {
	store    Store
	archiver Archiver
	manifest *Manifest
	recorder *errpolicy.Recorder
	logger   *slog.Logger

	// OnEviction is called once per processed entry. Optional.
	OnEviction func(action Action, err error)

	// sweep serializes Enforce.
	sweep sync.Mutex

	mu     sync.RWMutex
	config Config
}

// NewPolicy creates a retention policy. archiver may be nil when archiving
// is disabled; manifest may be nil to skip the eviction manifest.
func NewPolicy(store Store, config Config, archiver Archiver, manifest *Manifest, recorder *errpolicy.Recorder) *Policy {
	if recorder == nil {
		recorder = errpolicy.NewRecorder(errpolicy.DefaultRecentCapacity)
	}
	return &Policy{
		store:    store,
		config:   config,
		archiver: archiver,
		manifest: manifest,
		recorder: recorder,
		logger:   slog.Default().With("component", "imagestore.retention"),
	}
}

// Config returns the policy configuration.
func (p *Policy) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// SetConfig replaces the configuration used by later plans.
func (p *Policy) SetConfig(c Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = c
}

// Plan reconciles the store against disk and computes the decision for
// what remains.
func (p *Policy) Plan(ctx context.Context) (Decision, error) {
	records, err := p.store.LoadAll(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load records: %w", err)
	}
	cfg := p.Config()
	archive := cfg.ArchiveEnabled && p.archiver != nil
	return PlanEviction(records, cfg.MaxImages, archive), nil
}

// Enforce plans and applies eviction for the current corpus.
func (p *Policy) Enforce(ctx context.Context) (Result, error) {
	p.sweep.Lock()
	defer p.sweep.Unlock()

	d, err := p.Plan(ctx)
	if err != nil || d.Empty() {
		return Result{}, err
	}
	return p.Apply(ctx, d)
}

// Apply processes every eviction independently. A failure is recorded and
// the sweep moves on; the failed record stays indexed. Successfully evicted
// records are then dropped from the store. The returned error is non-nil
// only when the store itself could not be updated.
func (p *Policy) Apply(ctx context.Context, d Decision) (Result, error) {
	var res Result
	var entries []ManifestEntry

	for _, ev := range d.Evictions {
		if err := ctx.Err(); err != nil {
			break
		}

		dest, err := p.evict(ctx, ev)
		if p.OnEviction != nil {
			p.OnEviction(ev.Action, err)
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, p.recorder.Record(err, map[string]any{
				"operation": "retention_" + string(ev.Action),
				"path":      ev.Record.Path,
			}))
			continue
		}

		switch ev.Action {
		case ActionArchive:
			res.Archived++
		case ActionDelete:
			res.Deleted++
		}
		res.Evicted = append(res.Evicted, ev.Record.Path)
		entries = append(entries, ManifestEntry{
			Record:      ev.Record,
			Action:      ev.Action,
			Destination: dest,
			EvictedAt:   time.Now().UTC(),
		})
	}

	if p.manifest != nil && len(entries) > 0 {
		if err := p.manifest.Append(entries); err != nil {
			p.recorder.Record(err, map[string]any{"operation": "retention_manifest"})
		}
	}

	p.logger.Info("retention sweep complete",
		"archived", res.Archived,
		"deleted", res.Deleted,
		"failed", res.Failed,
	)

	if len(res.Evicted) > 0 {
		if err := p.store.Forget(ctx, res.Evicted...); err != nil {
			return res, fmt.Errorf("failed to drop evicted records from index: %w", err)
		}
	}
	return res, nil
}

func (p *Policy) evict(ctx context.Context, ev Eviction) (string, error) {
	switch ev.Action {
	case ActionArchive:
		if p.archiver == nil {
			return "", errpolicy.NewStorageError("archive", ev.Record.Path, errors.New("no archiver configured"))
		}
		dest, err := p.archiver.Archive(ctx, ev.Record)
		if err != nil {
			return "", errpolicy.NewStorageError("archive", ev.Record.Path, err)
		}
		return dest, nil
	case ActionDelete:
		if err := os.Remove(ev.Record.Path); err != nil && !os.IsNotExist(err) {
			return "", errpolicy.NewStorageError("delete", ev.Record.Path, err)
		}
		return "", nil
	default:
		return "", errpolicy.NewStorageError("evict", ev.Record.Path, fmt.Errorf("unknown action %q", ev.Action))
	}
}
