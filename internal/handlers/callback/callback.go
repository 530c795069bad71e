// Package callback implements the Fitbit OAuth redirect handler.
package callback

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/cache"
	"github.com/taishi0307/RumHabit/internal/fitbit"
	"github.com/taishi0307/RumHabit/internal/handlers/auth"
	"github.com/taishi0307/RumHabit/internal/handlers/respond"
)

// Exchanger trades a Fitbit authorization code for an access token.
type Exchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (string, error)
	RedirectURI() string
}

type Handler struct {
	fitbit       Exchanger
	cache        cache.Cache
	settingsPath string
	log          logrus.FieldLogger
}

// NewHandler returns the callback handler. c may be nil, in which case
// tokens are not cached.
func NewHandler(fitbit Exchanger, c cache.Cache, settingsPath string, log logrus.FieldLogger) *Handler {
	return &Handler{fitbit: fitbit, cache: c, settingsPath: settingsPath, log: log}
}

// FitbitCallback handles GET /smartwatch/fitbit/callback. Failures after
// the code is present are sent back to the settings page rather than
// rendered as JSON.
func (h *Handler) FitbitCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if vendorErr := q.Get("error"); vendorErr != "" {
		msg := vendorErr
		if desc := q.Get("error_description"); desc != "" {
			msg += ": " + desc
		}
		h.log.WithField("error", msg).Warn("fitbit authorization denied")
		h.redirect(w, r, url.Values{"fitbit_error": {msg}})
		return
	}

	code := q.Get("code")
	if code == "" {
		respond.Error(w, h.log, http.StatusBadRequest, "authorization code not found")
		return
	}

	redirectURI := auth.RedirectURI(r, h.fitbit.RedirectURI())
	token, err := h.fitbit.Exchange(r.Context(), code, redirectURI)
	if err != nil {
		h.log.WithError(err).Error("fitbit token exchange failed")
		h.redirect(w, r, url.Values{"fitbit_error": {err.Error()}})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cache.TokenKey(fitbit.Brand), token); err != nil {
			h.log.WithError(err).Warn("caching fitbit token")
		}
	}

	h.log.Info("fitbit connected")
	// The token travels in the query string; the settings page stores it
	// client-side.
	h.redirect(w, r, url.Values{"fitbit_connected": {"true"}, "access_token": {token}})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, q url.Values) {
	http.Redirect(w, r, h.settingsPath+"?"+q.Encode(), http.StatusFound)
}
