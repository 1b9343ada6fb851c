// Package harvest drives the Places client over work keys and records each
// key's outcome in the on-disk ledger.
package harvest

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/artifact"
	"github.com/sells-group/gmaps-contacts/internal/metrics"
	"github.com/sells-group/gmaps-contacts/internal/model"
	"github.com/sells-group/gmaps-contacts/internal/planner"
	"github.com/sells-group/gmaps-contacts/internal/store"
	"github.com/sells-group/gmaps-contacts/pkg/google"
)

// KeyStatus is what happened to one work key.
type KeyStatus int

const (
	// KeyCompleted means an artifact was written.
	KeyCompleted KeyStatus = iota
	// KeyEmpty means the key was added to the skip log.
	KeyEmpty
	// KeySkipped means the key was already done and was not fetched.
	KeySkipped
)

func (s KeyStatus) String() string {
	switch s {
	case KeyCompleted:
		return metrics.OutcomeCompleted
	case KeyEmpty:
		return metrics.OutcomeEmpty
	case KeySkipped:
		return metrics.OutcomeSkipped
	default:
		return "unknown"
	}
}

// KeyOutcome reports one processed key.
type KeyOutcome struct {
	Key    model.WorkKey
	Status KeyStatus
	Path   string // artifact path, set when Status is KeyCompleted
	Places int    // distinct place ids found
	Rows   int    // rows written after the postal filter
}

// Report summarizes a multi-key harvest.
type Report struct {
	RunID    string
	Outcomes []KeyOutcome
	Counts   model.RunCounts
}

func (r *Report) add(o KeyOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case KeyCompleted:
		r.Counts.Completed++
		r.Counts.Rows += o.Rows
	case KeyEmpty:
		r.Counts.Empty++
	case KeySkipped:
		r.Counts.Skipped++
	}
}

// Harvester fetches establishments for work keys. Keys are processed one at
// a time.
type Harvester struct {
	places   google.Client
	root     string
	store    store.Store
	placeTTL time.Duration
	metrics  *metrics.Recorder
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithStore enables the place-details cache and the run ledger. Cached rows
// older than ttl are fetched again; a non-positive ttl never expires.
func WithStore(st store.Store, ttl time.Duration) Option {
	return func(h *Harvester) {
		h.store = st
		h.placeTTL = ttl
	}
}

// WithMetrics records key and cache counters on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(h *Harvester) { h.metrics = rec }
}

// New creates a Harvester writing under root.
func New(places google.Client, root string, opts ...Option) *Harvester {
	h := &Harvester{places: places, root: root}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Layout returns the file layout for a category and country.
func (h *Harvester) Layout(category, country string) planner.Layout {
	return planner.Layout{Root: h.root, Category: category, Country: country}
}

// HarvestKey fetches one key and records its outcome, even when the key was
// done before.
func (h *Harvester) HarvestKey(ctx context.Context, key model.WorkKey, country string) (KeyOutcome, error) {
	country, err := model.NormalizeCountryCode(country)
	if err != nil {
		return KeyOutcome{Key: key}, err
	}
	ledger := planner.NewLedger(h.Layout(key.Category, country))
	return h.harvestKey(ctx, ledger, key, country)
}

func (h *Harvester) harvestKey(ctx context.Context, ledger *planner.Ledger, key model.WorkKey, country string) (KeyOutcome, error) {
	log := zap.L().With(zap.String("component", "harvest"), zap.Stringer("key", key))
	out := KeyOutcome{Key: key}

	coords, err := h.places.Geocode(ctx, key.PostalCode, country)
	if err != nil {
		return out, eris.Wrapf(err, "harvest: geocode %s", key)
	}
	if coords == nil {
		log.Info("postal code not geocoded, recording as empty")
		return h.recordEmpty(ledger, out)
	}

	ids, err := h.places.NearbySearch(ctx, key.Category, *coords)
	if err != nil {
		return out, eris.Wrapf(err, "harvest: nearby search %s", key)
	}
	ids = artifact.DedupePlaces(ids)
	out.Places = len(ids)
	log.Debug("found places", zap.Int("places", len(ids)), zap.Float64("radius_m", coords.Radius))

	rows := make([]model.Row, 0, len(ids))
	for _, id := range ids {
		row, err := h.details(ctx, id)
		if err != nil {
			return out, eris.Wrapf(err, "harvest: details %s for %s", id, key)
		}
		rows = append(rows, *row)
	}

	rows = artifact.FilterByPostal(rows, key.PostalCode)
	if len(rows) == 0 {
		log.Info("no establishments in postal code, recording as empty", zap.Int("places", out.Places))
		return h.recordEmpty(ledger, out)
	}

	path, err := ledger.RecordArtifact(key, rows)
	if err != nil {
		return out, err
	}
	out.Status = KeyCompleted
	out.Path = path
	out.Rows = len(rows)
	h.metrics.Key(out.Status.String())
	log.Info("wrote artifact", zap.String("path", path), zap.Int("rows", out.Rows))
	return out, nil
}

func (h *Harvester) recordEmpty(ledger *planner.Ledger, out KeyOutcome) (KeyOutcome, error) {
	if err := ledger.RecordEmpty(out.Key); err != nil {
		return out, err
	}
	out.Status = KeyEmpty
	h.metrics.Key(out.Status.String())
	return out, nil
}

// details returns a place's row, from the cache when possible. Cache
// failures are logged and fall through to the API.
func (h *Harvester) details(ctx context.Context, placeID string) (*model.Row, error) {
	if h.store != nil {
		row, err := h.store.GetPlace(ctx, placeID, h.placeTTL)
		if err != nil {
			zap.L().Warn("harvest: place cache read failed", zap.String("place_id", placeID), zap.Error(err))
		} else if row != nil {
			h.metrics.PlaceCache(true)
			return row, nil
		}
		h.metrics.PlaceCache(false)
	}

	row, err := h.places.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if h.store != nil {
		if err := h.store.PutPlace(ctx, placeID, *row); err != nil {
			zap.L().Warn("harvest: place cache write failed", zap.String("place_id", placeID), zap.Error(err))
		}
	}
	return row, nil
}

// HarvestPostalCodes fetches every category in every postal code. Keys that
// already have an artifact or a skip-log entry are reported as skipped.
func (h *Harvester) HarvestPostalCodes(ctx context.Context, categories, postals []string, country string) (*Report, error) {
	keys := make([]model.WorkKey, 0, len(categories)*len(postals))
	for _, c := range categories {
		for _, p := range postals {
			k, err := model.NewWorkKey(c, p)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
	}
	country, err := model.NormalizeCountryCode(country)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	region := strings.Join(categories, ",") + "/" + strings.Join(postals, ",")
	report.RunID = h.startRun(ctx, model.RunKindPostal, region)

	for _, k := range keys {
		ledger := planner.NewLedger(h.Layout(k.Category, country))
		done, err := alreadyDone(ledger, k)
		if err != nil {
			h.finishRun(ctx, report, err)
			return report, err
		}
		if done {
			zap.L().Info("key already harvested, skipping", zap.Stringer("key", k))
			h.metrics.Key(metrics.OutcomeSkipped)
			report.add(KeyOutcome{Key: k, Status: KeySkipped, Path: existingArtifact(ledger, k)})
			continue
		}

		out, err := h.harvestKey(ctx, ledger, k, country)
		if err != nil {
			h.finishRun(ctx, report, err)
			return report, err
		}
		report.add(out)
	}

	h.finishRun(ctx, report, nil)
	return report, nil
}

func alreadyDone(ledger *planner.Ledger, k model.WorkKey) (bool, error) {
	has, err := ledger.HasArtifact(k)
	if err != nil || has {
		return has, err
	}
	return ledger.IsSkipped(k)
}

func existingArtifact(ledger *planner.Ledger, k model.WorkKey) string {
	if has, _ := ledger.HasArtifact(k); has {
		return ledger.Layout().ArtifactPath(k.PostalCode)
	}
	return ""
}

// startRun opens a run in the ledger. Store failures are logged and yield
// an empty id.
func (h *Harvester) startRun(ctx context.Context, kind model.RunKind, region string) string {
	if h.store == nil {
		return ""
	}
	run, err := h.store.CreateRun(ctx, kind, region)
	if err != nil {
		zap.L().Warn("harvest: create run failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func (h *Harvester) finishRun(ctx context.Context, report *Report, cause error) {
	if h.store == nil || report.RunID == "" {
		return
	}
	// The run context may already be cancelled; record the outcome anyway.
	ctx = context.WithoutCancel(ctx)
	var err error
	if cause != nil {
		err = h.store.FailRun(ctx, report.RunID, cause)
	} else {
		err = h.store.CompleteRun(ctx, report.RunID, report.Counts)
	}
	if err != nil {
		zap.L().Warn("harvest: close run failed", zap.String("run_id", report.RunID), zap.Error(err))
	}
}
