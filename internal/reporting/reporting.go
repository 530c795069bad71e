// Package reporting sends unexpected errors to Sentry. Without a DSN every
// call is a no-op.
package reporting

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Reporter captures errors on a Sentry hub.
type Reporter struct {
	hub *sentry.Hub
}

// Init configures the global Sentry client and returns a Reporter bound to
// it. An empty DSN returns a Reporter that drops everything.
func Init(cfg Config, log logrus.FieldLogger) (*Reporter, error) {
	if cfg.DSN == "" {
		log.Warn("Sentry DSN not configured - error reporting disabled")
		return &Reporter{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend:  scrub,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}

	log.WithField("environment", cfg.Environment).Info("Sentry initialized")
	return &Reporter{hub: sentry.CurrentHub()}, nil
}

// NewReporter wraps an existing hub.
func NewReporter(hub *sentry.Hub) *Reporter {
	return &Reporter{hub: hub}
}

// CaptureException sends err with the given tags.
func (r *Reporter) CaptureException(err error, tags map[string]string) {
	if r == nil || r.hub == nil || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r == nil || r.hub == nil {
		return true
	}
	return r.hub.Flush(timeout)
}

// scrub removes credentials from request data before sending.
func scrub(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
		event.Request.QueryString = ""
	}
	return event
}
