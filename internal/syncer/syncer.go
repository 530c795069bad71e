// Package syncer pulls workouts from a vendor adapter and stores the ones
// not already recorded.
package syncer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/metrics"
	"github.com/taishi0307/RumHabit/internal/model"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

// Store is the persistence the coordinator needs.
type Store interface {
	FindWorkoutsInRange(ctx context.Context, start, end string) ([]model.Workout, error)
	CreateWorkout(ctx context.Context, w *model.Workout) (uint, error)
}

// Registry resolves adapters by brand.
type Registry interface {
	Get(brand string) (smartwatch.Adapter, error)
}

// Reporter receives errors that should reach an operator.
type Reporter interface {
	CaptureException(err error, tags map[string]string)
}

// Result summarizes one Sync call. Records holds every normalized record,
// including skipped ones.
type Result struct {
	SyncID         string                     `json:"syncId"`
	Brand          string                     `json:"brand"`
	RequestedCount int                        `json:"requestedCount"`
	SavedCount     int                        `json:"savedCount"`
	SkippedCount   int                        `json:"skippedCount"`
	FailedCount    int                        `json:"failedCount"`
	Placeholder    bool                       `json:"placeholder"`
	Records        []smartwatch.WorkoutRecord `json:"workouts"`
}

type Coordinator struct {
	registry Registry
	store    Store
	log      logrus.FieldLogger
	reporter Reporter
	status   StatusStore
	now      func() time.Time
}

type Option func(*Coordinator)

// WithStatusStore records the outcome of every sync in s.
func WithStatusStore(s StatusStore) Option {
	return func(c *Coordinator) { c.status = s }
}

// WithReporter sends persist failures to r.
func WithReporter(r Reporter) Option {
	return func(c *Coordinator) { c.reporter = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func New(registry Registry, store Store, log logrus.FieldLogger, opts ...Option) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{registry: registry, store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync fetches brand's workouts in dr and persists the net-new ones. An
// unknown brand fails before any network call. A fetch error fails the
// whole call; a storage error only fails its record.
func (c *Coordinator) Sync(ctx context.Context, brand, accessToken string, dr smartwatch.DateRange) (*Result, error) {
	adapter, err := c.registry.Get(brand)
	if err != nil {
		return nil, err
	}
	brand = adapter.Brand()

	started := c.now()
	res := &Result{SyncID: uuid.NewString(), Brand: brand}
	log := c.log.WithFields(logrus.Fields{"sync_id": res.SyncID, "brand": brand})

	batch, err := adapter.FetchWorkouts(ctx, accessToken, dr)
	if err != nil {
		log.WithError(err).Error("fetching workouts")
		metrics.ObserveSync(brand, metrics.ResultError, c.now().Sub(started))
		c.saveStatus(ctx, newStatus(res, started, err))
		return nil, err
	}

	res.Records = batch.Records
	res.RequestedCount = len(batch.Records)
	res.Placeholder = batch.Placeholder

	if res.Placeholder {
		log.WithField("count", res.RequestedCount).Warn("vendor returned placeholder workouts, nothing persisted")
		metrics.ObserveSync(brand, metrics.ResultPlaceholder, c.now().Sub(started))
		c.saveStatus(ctx, newStatus(res, started, nil))
		return res, nil
	}

	// Once fetched, the batch is persisted in full even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)

	fresh := Dedup(batch.Records)
	res.SkippedCount = len(batch.Records) - len(fresh)

	existing := map[string][]model.Workout{}
	for _, rec := range fresh {
		day, ok := existing[rec.Date]
		if !ok {
			day, err = c.store.FindWorkoutsInRange(persistCtx, rec.Date, rec.Date)
			if err != nil {
				c.persistFailed(log, res, &smartwatch.PersistError{ExternalID: rec.ExternalID, Err: err})
				continue
			}
			existing[rec.Date] = day
		}

		if IsDuplicate(rec, brand, day) {
			res.SkippedCount++
			continue
		}

		w := ToWorkout(rec, brand)
		if _, err := c.store.CreateWorkout(persistCtx, w); err != nil {
			if errors.Is(err, model.ErrDuplicateWorkout) {
				res.SkippedCount++
				continue
			}
			c.persistFailed(log, res, &smartwatch.PersistError{ExternalID: rec.ExternalID, Err: err})
			continue
		}
		res.SavedCount++
		existing[rec.Date] = append(day, *w)
	}

	metrics.AddRecords(brand, "saved", res.SavedCount)
	metrics.AddRecords(brand, "skipped", res.SkippedCount)
	metrics.AddRecords(brand, "failed", res.FailedCount)
	metrics.ObserveSync(brand, metrics.ResultOK, c.now().Sub(started))

	log.WithFields(logrus.Fields{
		"requested": res.RequestedCount,
		"saved":     res.SavedCount,
		"skipped":   res.SkippedCount,
		"failed":    res.FailedCount,
	}).Info("synced workouts")

	c.saveStatus(ctx, newStatus(res, started, nil))
	return res, nil
}

func (c *Coordinator) persistFailed(log logrus.FieldLogger, res *Result, err *smartwatch.PersistError) {
	res.FailedCount++
	log.WithError(err).WithField("external_id", err.ExternalID).Error("persisting workout")
	if c.reporter != nil {
		c.reporter.CaptureException(err, map[string]string{"brand": res.Brand, "sync_id": res.SyncID})
	}
}

func (c *Coordinator) saveStatus(ctx context.Context, st Status) {
	if c.status == nil {
		return
	}
	// The request may already be cancelled; the status is still worth keeping.
	ctx = context.WithoutCancel(ctx)
	if err := c.status.SaveStatus(ctx, st); err != nil {
		c.log.WithError(err).WithField("brand", st.Brand).Warn("saving sync status")
	}
}

// Dedup drops records whose ExternalID was already seen; the first wins.
func Dedup(records []smartwatch.WorkoutRecord) []smartwatch.WorkoutRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]smartwatch.WorkoutRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ExternalID]; ok {
			continue
		}
		seen[r.ExternalID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// IsDuplicate reports whether rec is already stored: either the same
// (date, time, distance, heart rate) or the same (source, external id).
// Calories are not compared.
func IsDuplicate(rec smartwatch.WorkoutRecord, source string, existing []model.Workout) bool {
	for _, w := range existing {
		if w.Date == rec.Date && w.Time == rec.Time &&
			math.Abs(w.Distance-rec.DistanceKm) < 0.005 && w.HeartRate == rec.HeartRateBPM {
			return true
		}
		if w.ExternalID != nil && *w.ExternalID == rec.ExternalID && w.Source == source {
			return true
		}
	}
	return false
}

// ToWorkout converts a record into its persisted form. The raw payload is
// not stored.
func ToWorkout(rec smartwatch.WorkoutRecord, source string) *model.Workout {
	w := &model.Workout{
		Date:      rec.Date,
		Time:      rec.Time,
		Distance:  rec.DistanceKm,
		HeartRate: rec.HeartRateBPM,
		Duration:  rec.DurationSeconds,
		Calories:  rec.Calories,
		Source:    source,
	}
	if rec.ExternalID != "" {
		id := rec.ExternalID
		w.ExternalID = &id
	}
	return w
}
