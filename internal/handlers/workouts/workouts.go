// Package workouts implements the workout sync trigger.
package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/cache"
	"github.com/taishi0307/RumHabit/internal/handlers/respond"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
	"github.com/taishi0307/RumHabit/internal/syncer"
)

// Syncer runs one sync for a brand.
type Syncer interface {
	Sync(ctx context.Context, brand, accessToken string, dr smartwatch.DateRange) (*syncer.Result, error)
}

type Handler struct {
	syncer Syncer
	cache  cache.Cache
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewHandler returns the sync handler. c may be nil, in which case requests
// must carry their own access token.
func NewHandler(s Syncer, c cache.Cache, log logrus.FieldLogger) *Handler {
	return &Handler{syncer: s, cache: c, log: log, now: time.Now}
}

type syncRequest struct {
	AccessToken string               `json:"accessToken"`
	DateRange   smartwatch.DateRange `json:"dateRange"`
}

type syncResponse struct {
	Success      bool                       `json:"success"`
	SyncID       string                     `json:"syncId"`
	WorkoutCount int                        `json:"workoutCount"`
	SavedCount   int                        `json:"savedCount"`
	SkippedCount int                        `json:"skippedCount"`
	FailedCount  int                        `json:"failedCount"`
	Placeholder  bool                       `json:"placeholder"`
	Workouts     []smartwatch.WorkoutRecord `json:"workouts"`
}

// Sync handles POST /smartwatch/sync/{brand}.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")

	var body syncRequest
	if r.Body == nil {
		respond.Error(w, h.log, http.StatusBadRequest, "missing request body")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.WithError(err).Warn("decoding sync request")
		respond.Error(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}

	dr := body.DateRange.WithDefaults(h.now())
	if err := dr.Validate(); err != nil {
		respond.Error(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	token := body.AccessToken
	if token == "" && h.cache != nil {
		cached, err := cache.GetString(r.Context(), h.cache, cache.TokenKey(brand))
		if err != nil {
			h.log.WithError(err).WithField("brand", brand).Warn("reading cached token")
		}
		token = cached
	}

	res, err := h.syncer.Sync(r.Context(), brand, token, dr)
	if err != nil {
		var uerr *smartwatch.UnsupportedVendorError
		if errors.As(err, &uerr) {
			respond.Error(w, h.log, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	workouts := res.Records
	if workouts == nil {
		workouts = []smartwatch.WorkoutRecord{}
	}
	respond.JSON(w, h.log, http.StatusOK, syncResponse{
		Success:      true,
		SyncID:       res.SyncID,
		WorkoutCount: res.RequestedCount,
		SavedCount:   res.SavedCount,
		SkippedCount: res.SkippedCount,
		FailedCount:  res.FailedCount,
		Placeholder:  res.Placeholder,
		Workouts:     workouts,
	})
}
