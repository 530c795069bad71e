// Package devices reports which vendors can be used and how their last
// sync went.
package devices

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/handlers/respond"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
	"github.com/taishi0307/RumHabit/internal/syncer"
)

type Registry interface {
	Get(brand string) (smartwatch.Adapter, error)
	All() []smartwatch.Adapter
}

type StatusLoader interface {
	LoadStatus(ctx context.Context, brand string) (*syncer.Status, error)
}

type Handler struct {
	registry Registry
	status   StatusLoader
	log      logrus.FieldLogger
}

// NewHandler returns the devices handler. status may be nil when no cache
// is configured.
func NewHandler(registry Registry, status StatusLoader, log logrus.FieldLogger) *Handler {
	return &Handler{registry: registry, status: status, log: log}
}

type device struct {
	Brand     string `json:"brand"`
	Available bool   `json:"available"`
}

// Available handles GET /smartwatch/available.
func (h *Handler) Available(w http.ResponseWriter, _ *http.Request) {
	all := h.registry.All()
	out := make([]device, 0, len(all))
	for _, a := range all {
		out = append(out, device{Brand: a.Brand(), Available: a.IsAvailable()})
	}
	respond.JSON(w, h.log, http.StatusOK, out)
}

// Status handles GET /smartwatch/status/{brand}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	adapter, err := h.registry.Get(chi.URLParam(r, "brand"))
	if err != nil {
		respond.Error(w, h.log, http.StatusBadRequest, "Unsupported brand")
		return
	}
	if h.status == nil {
		respond.Error(w, h.log, http.StatusNotFound, "no sync recorded")
		return
	}

	st, err := h.status.LoadStatus(r.Context(), adapter.Brand())
	if err != nil {
		h.log.WithError(err).WithField("brand", adapter.Brand()).Error("loading sync status")
		respond.Error(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	if st == nil {
		respond.Error(w, h.log, http.StatusNotFound, "no sync recorded")
		return
	}
	respond.JSON(w, h.log, http.StatusOK, st)
}
