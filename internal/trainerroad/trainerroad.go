// Package trainerroad turns TrainerRoad calendar entries from the ical feed
// into workout records.
package trainerroad

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/calendarevent"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const Brand = "TrainerRoad"

var BaseURL = "https://api.trainerroad.com/v1/calendar/ics"

type Config struct {
	BaseURL string
	CalID   string
}

type Adapter struct {
	cfg Config
	cal *calendarevent.CalendarService
	log logrus.FieldLogger
}

var _ smartwatch.Adapter = (*Adapter)(nil)

func New(cfg Config, hc calendarevent.HTTPClient, log logrus.FieldLogger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{
		cfg: cfg,
		cal: calendarevent.NewCalendarService(hc, cfg.BaseURL, cfg.CalID),
		log: log.WithField("brand", Brand),
	}
}

func (a *Adapter) Brand() string { return Brand }

// IsAvailable reports whether a calendar id is configured.
func (a *Adapter) IsAvailable() bool { return a.cfg.CalID != "" }

// Authenticate has nothing to exchange; the calendar id is the credential.
func (a *Adapter) Authenticate(_ context.Context, creds smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	if !a.IsAvailable() {
		return nil, fmt.Errorf("trainerroad calendar id: %w", smartwatch.ErrNotConfigured)
	}
	return &smartwatch.AuthResult{AccessToken: creds.AccessToken}, nil
}

// FetchWorkouts ignores the access token and reads calendar entries in the
// range.
func (a *Adapter) FetchWorkouts(ctx context.Context, _ string, dr smartwatch.DateRange) (*smartwatch.Batch, error) {
	if !a.IsAvailable() {
		return nil, fmt.Errorf("trainerroad calendar id: %w", smartwatch.ErrNotConfigured)
	}

	start, err := time.Parse(smartwatch.DateLayout, dr.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", dr.Start, err)
	}
	end := start
	if dr.End != "" {
		if end, err = time.Parse(smartwatch.DateLayout, dr.End); err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", dr.End, err)
		}
	}
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	events, err := a.cal.Events(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching trainerroad calendar: %w", err)
	}

	batch := &smartwatch.Batch{}
	for _, ev := range events {
		rec := smartwatch.NewWorkoutRecord(smartwatch.WorkoutRecord{
			ExternalID:      ev.UID,
			Date:            ev.Start.Format(smartwatch.DateLayout),
			Time:            ev.Start.Format(smartwatch.TimeLayout),
			DurationSeconds: int(ev.End.Sub(ev.Start).Seconds()),
			ActivityType:    parseSummary(ev.Summary),
			DeviceID:        Brand,
		})
		if !dr.Contains(rec.Date) {
			continue
		}
		batch.Records = append(batch.Records, rec)
	}

	a.log.WithField("count", batch.Len()).Info("fetched trainerroad calendar entries")
	return batch, nil
}

// parseSummary returns the workout name from a TrainerRoad event summary.
func parseSummary(summary string) string {
	if i := strings.Index(summary, " - "); i >= 0 {
		return summary[i+3:]
	}
	return summary
}
