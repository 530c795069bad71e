// Package respond holds the JSON response helpers shared by the handlers.
package respond

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, log logrus.FieldLogger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encoding response")
	}
}

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, log logrus.FieldLogger, status int, msg string) {
	JSON(w, log, status, ErrorBody{Error: msg})
}

// BaseURL returns scheme://host for r. X-Forwarded-Proto wins over the
// connection's own TLS state.
func BaseURL(r *http.Request) string {
	proto := r.Header.Get("X-Forwarded-Proto")
	// Proxy chains append, so the client-facing scheme comes first.
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	proto = strings.TrimSpace(proto)
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + r.Host
}
