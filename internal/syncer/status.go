package syncer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/taishi0307/RumHabit/internal/cache"
	"github.com/taishi0307/RumHabit/internal/metrics"
)

// Status is the last recorded outcome of a sync for one brand.
type Status struct {
	SyncID         string    `json:"syncId"`
	Brand          string    `json:"brand"`
	SyncedAt       time.Time `json:"syncedAt"`
	Result         string    `json:"result"`
	RequestedCount int       `json:"requestedCount"`
	SavedCount     int       `json:"savedCount"`
	SkippedCount   int       `json:"skippedCount"`
	FailedCount    int       `json:"failedCount"`
	Error          string    `json:"error,omitempty"`
}

type StatusStore interface {
	SaveStatus(ctx context.Context, st Status) error
	// LoadStatus returns nil without error when brand was never synced.
	LoadStatus(ctx context.Context, brand string) (*Status, error)
}

func newStatus(res *Result, at time.Time, err error) Status {
	st := Status{
		SyncID:         res.SyncID,
		Brand:          res.Brand,
		SyncedAt:       at.UTC(),
		Result:         metrics.ResultOK,
		RequestedCount: res.RequestedCount,
		SavedCount:     res.SavedCount,
		SkippedCount:   res.SkippedCount,
		FailedCount:    res.FailedCount,
	}
	switch {
	case err != nil:
		st.Result = metrics.ResultError
		st.Error = err.Error()
	case res.Placeholder:
		st.Result = metrics.ResultPlaceholder
	}
	return st
}

// CacheStatusStore keeps statuses as JSON in the cache.
type CacheStatusStore struct {
	cache cache.Cache
}

func NewCacheStatusStore(c cache.Cache) *CacheStatusStore {
	return &CacheStatusStore{cache: c}
}

// StatusKey is the cache key for brand's status.
func StatusKey(brand string) string {
	return "smartwatch_sync_status:" + strings.ToLower(brand)
}

func (s *CacheStatusStore) SaveStatus(ctx context.Context, st Status) error {
	return s.cache.SetJSON(ctx, StatusKey(st.Brand), st)
}

func (s *CacheStatusStore) LoadStatus(ctx context.Context, brand string) (*Status, error) {
	var st Status
	if err := s.cache.GetJSON(ctx, StatusKey(brand), &st); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}
