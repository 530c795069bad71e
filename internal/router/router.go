// Package router wires the HTTP handlers onto a chi router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/handlers/auth"
	"github.com/taishi0307/RumHabit/internal/handlers/callback"
	"github.com/taishi0307/RumHabit/internal/handlers/devices"
	"github.com/taishi0307/RumHabit/internal/handlers/workouts"
	"github.com/taishi0307/RumHabit/internal/middleware"
)

type Handlers struct {
	Auth     *auth.Handler
	Callback *callback.Handler
	Workouts *workouts.Handler
	Devices  *devices.Handler
}

func New(h Handlers, log logrus.FieldLogger, reporter middleware.Reporter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log, reporter))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/smartwatch", func(r chi.Router) {
		r.Get("/available", h.Devices.Available)
		r.Get("/status/{brand}", h.Devices.Status)
		r.Post("/auth/{brand}", h.Auth.Authenticate)
		r.Post("/sync/{brand}", h.Workouts.Sync)
		r.Post("/fitbit/auth-url", h.Auth.FitbitAuthURL)
		r.Get("/fitbit/callback", h.Callback.FitbitCallback)
	})

	return r
}
