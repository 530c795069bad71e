// Package auth implements the vendor authorization handlers.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/handlers/respond"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

// CallbackPath is where Fitbit redirects back to when no redirect URI is
// configured.
const CallbackPath = "/smartwatch/fitbit/callback"

// FitbitAuth builds the Fitbit authorization URL.
type FitbitAuth interface {
	AuthURL(redirectURI string) (string, error)
	RedirectURI() string
}

type Registry interface {
	Get(brand string) (smartwatch.Adapter, error)
}

type Handler struct {
	fitbit   FitbitAuth
	registry Registry
	log      logrus.FieldLogger
}

func NewHandler(fitbit FitbitAuth, registry Registry, log logrus.FieldLogger) *Handler {
	return &Handler{fitbit: fitbit, registry: registry, log: log}
}

// RedirectURI returns the configured Fitbit redirect URI or derives one
// from the request.
func RedirectURI(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}
	return respond.BaseURL(r) + CallbackPath
}

// FitbitAuthURL handles POST /smartwatch/fitbit/auth-url.
func (h *Handler) FitbitAuthURL(w http.ResponseWriter, r *http.Request) {
	redirectURI := RedirectURI(r, h.fitbit.RedirectURI())
	u, err := h.fitbit.AuthURL(redirectURI)
	if err != nil {
		h.log.WithError(err).Error("building fitbit auth url")
		respond.JSON(w, h.log, http.StatusInternalServerError, respond.ErrorBody{
			Error:   "Failed to generate Fitbit auth URL",
			Details: err.Error(),
		})
		return
	}
	h.log.WithField("redirect_uri", redirectURI).Info("generated fitbit auth url")
	respond.JSON(w, h.log, http.StatusOK, map[string]string{"authUrl": u})
}

// Authenticate handles POST /smartwatch/auth/{brand}. The body is the
// credentials object; an empty body is allowed.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	adapter, err := h.registry.Get(chi.URLParam(r, "brand"))
	if err != nil {
		respond.Error(w, h.log, http.StatusBadRequest, "Unsupported brand")
		return
	}

	var creds smartwatch.Credentials
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			respond.Error(w, h.log, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := adapter.Authenticate(r.Context(), creds)
	if err != nil {
		var uerr *smartwatch.UnsupportedVendorError
		if errors.As(err, &uerr) {
			respond.Error(w, h.log, http.StatusBadRequest, err.Error())
			return
		}
		h.log.WithError(err).WithField("brand", adapter.Brand()).Error("authenticating")
		respond.Error(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}
	respond.JSON(w, h.log, http.StatusOK, res)
}
