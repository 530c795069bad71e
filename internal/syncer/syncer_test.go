package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/cache"
	"github.com/taishi0307/RumHabit/internal/model"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

type fakeAdapter struct {
	brand string
	batch *smartwatch.Batch
	err   error
	calls int
}

func (f *fakeAdapter) Brand() string     { return f.brand }
func (f *fakeAdapter) IsAvailable() bool { return true }

func (f *fakeAdapter) Authenticate(context.Context, smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	return &smartwatch.AuthResult{}, nil
}

func (f *fakeAdapter) FetchWorkouts(context.Context, string, smartwatch.DateRange) (*smartwatch.Batch, error) {
	f.calls++
	return f.batch, f.err
}

type fakeStore struct {
	workouts  []model.Workout
	createErr map[string]error
	findErr   error
	finds     int
}

func (s *fakeStore) FindWorkoutsInRange(_ context.Context, start, end string) ([]model.Workout, error) {
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Workout
	for _, w := range s.workouts {
		if w.Date >= start && w.Date <= end {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateWorkout(_ context.Context, w *model.Workout) (uint, error) {
	if w.ExternalID != nil {
		if err, ok := s.createErr[*w.ExternalID]; ok {
			return 0, err
		}
	}
	w.ID = uint(len(s.workouts) + 1)
	s.workouts = append(s.workouts, *w)
	return w.ID, nil
}

type fakeReporter struct {
	errs []error
}

func (r *fakeReporter) CaptureException(err error, _ map[string]string) {
	r.errs = append(r.errs, err)
}

type memoryStatus struct {
	saved []Status
}

func (m *memoryStatus) SaveStatus(_ context.Context, st Status) error {
	m.saved = append(m.saved, st)
	return nil
}

func (m *memoryStatus) LoadStatus(context.Context, string) (*Status, error) { return nil, nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func record(id, date, clock string, km float64, hr, calories int) smartwatch.WorkoutRecord {
	return smartwatch.NewWorkoutRecord(smartwatch.WorkoutRecord{
		ExternalID:   id,
		Date:         date,
		Time:         clock,
		DistanceKm:   km,
		HeartRateBPM: hr,
		Calories:     calories,
	})
}

var july = smartwatch.DateRange{Start: "2025-07-01", End: "2025-07-31"}

func TestSync(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{Records: []smartwatch.WorkoutRecord{
		record("1", "2025-07-10", "07:00:00", 5.0, 150, 300),
		record("1", "2025-07-10", "07:00:00", 5.0, 150, 300),
		record("2", "2025-07-10", "18:00:00", 3.0, 130, 200),
		record("3", "2025-07-11", "07:00:00", 6.0, 155, 400),
	}}}
	store := &fakeStore{}
	status := &memoryStatus{}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger(), WithStatusStore(status))

	res, err := c.Sync(context.Background(), "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SyncID == "" {
		t.Error("expected a sync id")
	}
	if res.RequestedCount != 4 || res.SavedCount != 3 || res.SkippedCount != 1 || res.FailedCount != 0 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(res.Records) != 4 {
		t.Errorf("expected every fetched record to be returned, got %d records", len(res.Records))
	}
	if store.finds != 2 {
		t.Errorf("expected one storage lookup per date, got %d", store.finds)
	}
	if len(store.workouts) != 3 || store.workouts[0].Source != "Fitbit" || *store.workouts[0].ExternalID != "1" {
		t.Errorf("unexpected stored workouts %+v", store.workouts)
	}

	if len(status.saved) != 1 || status.saved[0].Result != "ok" || status.saved[0].SavedCount != 3 {
		t.Errorf("unexpected status %+v", status.saved)
	}

	again, err := c.Sync(context.Background(), "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.SavedCount != 0 || again.SkippedCount != 4 {
		t.Errorf("expected a repeated sync to skip everything, got %+v", again)
	}
}

func TestSyncSkipsStoredTupleIgnoringCalories(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{Records: []smartwatch.WorkoutRecord{
		record("new-id", "2025-07-10", "07:00:00", 5.0, 150, 999),
		record("other", "2025-07-10", "07:00:00", 5.0, 151, 300),
	}}}
	store := &fakeStore{workouts: []model.Workout{
		{Date: "2025-07-10", Time: "07:00:00", Distance: 5.0, HeartRate: 150, Calories: 300, Source: "manual"},
	}}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger())

	res, err := c.Sync(context.Background(), "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SkippedCount != 1 || res.SavedCount != 1 {
		t.Errorf("expected 1 skipped and 1 saved, got %+v", res)
	}
	if len(res.Records) != 2 {
		t.Errorf("expected skipped records to be returned, got %d", len(res.Records))
	}
}

func TestSyncPlaceholderNeverPersisted(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{
		Placeholder: true,
		Records: []smartwatch.WorkoutRecord{
			record("placeholder-1", "2025-07-14", "07:30:00", 5.2, 155, 320),
			record("placeholder-2", "2025-07-15", "18:45:00", 3.8, 142, 280),
			record("placeholder-3", "2025-07-16", "06:15:00", 6.1, 160, 410),
		},
	}}
	store := &fakeStore{}
	status := &memoryStatus{}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger(), WithStatusStore(status))

	res, err := c.Sync(context.Background(), "Fitbit", "expired", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Placeholder || res.RequestedCount != 3 || res.SavedCount != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(store.workouts) != 0 || store.finds != 0 {
		t.Errorf("expected storage to be untouched, got %d workouts and %d lookups", len(store.workouts), store.finds)
	}
	if len(status.saved) != 1 || status.saved[0].Result != "placeholder" {
		t.Errorf("unexpected status %+v", status.saved)
	}
}

func TestSyncUnsupportedBrand(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{}}
	store := &fakeStore{}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger())

	_, err := c.Sync(context.Background(), "Polar", "tok", july)
	var uerr *smartwatch.UnsupportedVendorError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnsupportedVendorError, got %v", err)
	}
	if adapter.calls != 0 || store.finds != 0 {
		t.Errorf("expected no vendor or storage calls, got %d and %d", adapter.calls, store.finds)
	}
}

func TestSyncFetchError(t *testing.T) {
	fetchErr := &smartwatch.VendorFetchError{Brand: "Fitbit", StatusCode: 500}
	adapter := &fakeAdapter{brand: "Fitbit", err: fetchErr}
	status := &memoryStatus{}
	c := New(smartwatch.NewRegistry(adapter), &fakeStore{}, quietLogger(), WithStatusStore(status))

	_, err := c.Sync(context.Background(), "fitbit", "tok", july)
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error, got %v", err)
	}
	if len(status.saved) != 1 || status.saved[0].Result != "error" || status.saved[0].Error == "" {
		t.Errorf("unexpected status %+v", status.saved)
	}
}

func TestSyncPersistErrors(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{Records: []smartwatch.WorkoutRecord{
		record("1", "2025-07-10", "07:00:00", 5.0, 150, 300),
		record("2", "2025-07-10", "08:00:00", 5.0, 150, 300),
		record("3", "2025-07-10", "09:00:00", 5.0, 150, 300),
	}}}
	store := &fakeStore{createErr: map[string]error{
		"1": errors.New("connection reset"),
		"2": model.ErrDuplicateWorkout,
	}}
	reporter := &fakeReporter{}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger(), WithReporter(reporter))

	res, err := c.Sync(context.Background(), "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FailedCount != 1 || res.SkippedCount != 1 || res.SavedCount != 1 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(reporter.errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reporter.errs))
	}
	var perr *smartwatch.PersistError
	if !errors.As(reporter.errs[0], &perr) || perr.ExternalID != "1" {
		t.Errorf("expected PersistError for record 1, got %v", reporter.errs[0])
	}
}

func TestSyncLookupError(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{Records: []smartwatch.WorkoutRecord{
		record("1", "2025-07-10", "07:00:00", 5.0, 150, 300),
	}}}
	store := &fakeStore{findErr: errors.New("db down")}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger())

	res, err := c.Sync(context.Background(), "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FailedCount != 1 || len(store.workouts) != 0 {
		t.Errorf("expected the record to fail without being stored, got %+v", res)
	}
}

// cancellingStore cancels the request context once the first workout lands.
type cancellingStore struct {
	*fakeStore
	cancel context.CancelFunc
}

func (s *cancellingStore) CreateWorkout(ctx context.Context, w *model.Workout) (uint, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	id, err := s.fakeStore.CreateWorkout(ctx, w)
	s.cancel()
	return id, err
}

func TestSyncCancelledMidBatch(t *testing.T) {
	adapter := &fakeAdapter{brand: "Fitbit", batch: &smartwatch.Batch{Records: []smartwatch.WorkoutRecord{
		record("1", "2025-07-10", "07:00:00", 5.0, 150, 300),
		record("2", "2025-07-10", "18:00:00", 3.0, 130, 200),
		record("3", "2025-07-11", "07:00:00", 6.0, 155, 400),
	}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancellingStore{fakeStore: &fakeStore{}, cancel: cancel}
	status := &memoryStatus{}
	c := New(smartwatch.NewRegistry(adapter), store, quietLogger(), WithStatusStore(status))

	res, err := c.Sync(ctx, "Fitbit", "tok", july)
	if err != nil {
		t.Fatalf("expected the batch to complete, got %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("expected the request context to be cancelled during the sync")
	}
	if res.RequestedCount != 3 || res.SavedCount != 3 || res.FailedCount != 0 {
		t.Errorf("unexpected counts %+v", res)
	}
	if len(store.workouts) != 3 {
		t.Errorf("expected 3 stored workouts, got %d", len(store.workouts))
	}
	if len(status.saved) != 1 || status.saved[0].Result != "ok" || status.saved[0].SavedCount != 3 {
		t.Errorf("unexpected status %+v", status.saved)
	}
}

func TestDedup(t *testing.T) {
	in := []smartwatch.WorkoutRecord{
		{ExternalID: "a", Calories: 1},
		{ExternalID: "b"},
		{ExternalID: "a", Calories: 2},
	}
	got := Dedup(in)
	if len(got) != 2 || got[0].Calories != 1 || got[1].ExternalID != "b" {
		t.Errorf("unexpected dedup result %+v", got)
	}
}

func TestIsDuplicate(t *testing.T) {
	ext := "101"
	existing := []model.Workout{
		{Date: "2025-07-10", Time: "07:00:00", Distance: 5.0, HeartRate: 150, Calories: 300},
		{Date: "2025-07-10", Time: "12:00:00", Source: "Fitbit", ExternalID: &ext},
	}

	tests := []struct {
		name   string
		rec    smartwatch.WorkoutRecord
		source string
		want   bool
	}{
		{"same tuple different calories", record("x", "2025-07-10", "07:00:00", 5.0, 150, 999), "Fitbit", true},
		{"different heart rate", record("x", "2025-07-10", "07:00:00", 5.0, 149, 300), "Fitbit", false},
		{"different time", record("x", "2025-07-10", "07:00:01", 5.0, 150, 300), "Fitbit", false},
		{"same external id and source", record("101", "2025-07-10", "13:00:00", 1.0, 90, 0), "Fitbit", true},
		{"same external id other source", record("101", "2025-07-10", "13:00:00", 1.0, 90, 0), "Garmin", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicate(tc.rec, tc.source, existing); got != tc.want {
				t.Errorf("expected %t, got %t", tc.want, got)
			}
		})
	}
}

func TestCacheStatusStore(t *testing.T) {
	r := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), fmt.Sprintf("redis://%s", r.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	store := NewCacheStatusStore(c)
	ctx := context.Background()

	missing, err := store.LoadStatus(ctx, "Fitbit")
	if err != nil || missing != nil {
		t.Fatalf("expected no status, got %+v, %v", missing, err)
	}

	at := time.Date(2025, 7, 20, 6, 0, 0, 0, time.UTC)
	want := Status{SyncID: "abc", Brand: "Fitbit", SyncedAt: at, Result: "ok", RequestedCount: 3, SavedCount: 2, SkippedCount: 1}
	if err := store.SaveStatus(ctx, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Exists("smartwatch_sync_status:fitbit") {
		t.Error("expected status under lower-case brand key")
	}

	got, err := store.LoadStatus(ctx, "Fitbit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !got.SyncedAt.Equal(at) {
		t.Fatalf("expected status synced at %s, got %+v", at, got)
	}
	got.SyncedAt = want.SyncedAt
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}
