package fitbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taishi0307/RumHabit/internal/client"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const (
	listLimit     = 100
	unknownName   = "Unknown"
	placeholderID = "placeholder-"
)

// ActivityList is the body returned by the activity log list endpoint.
// Activities is nil when the body had no activities field.
type ActivityList struct {
	Activities *[]json.RawMessage `json:"activities"`
}

// Activity holds the fields read from one activity log entry. Pointers
// distinguish absent fields from zero values.
type Activity struct {
	LogID            *int64   `json:"logId"`
	ActivityID       *int64   `json:"activityId"`
	ActiveDuration   *float64 `json:"activeDuration"`
	Duration         *float64 `json:"duration"`
	DurationInMillis *float64 `json:"durationInMillis"`
	OriginalDuration *float64 `json:"originalDuration"`
	ActiveMinutes    *float64 `json:"activeMinutes"`
	Distance         *float64 `json:"distance"`
	AverageHeartRate *float64 `json:"averageHeartRate"`
	HeartRate        *float64 `json:"heartRate"`
	Calories         *float64 `json:"calories"`
	CaloriesOut      *float64 `json:"caloriesOut"`
	ActivityName     *string  `json:"activityName"`
	Name             *string  `json:"name"`

	StartDate         string `json:"startDate"`
	StartTime         string `json:"startTime"`
	OriginalStartTime string `json:"originalStartTime"`
	Source            *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
}

// FetchWorkouts implements smartwatch.Adapter. A 401 from Fitbit yields a
// placeholder batch instead of an error so callers can prompt the user to
// re-authenticate.
func (a *Adapter) FetchWorkouts(ctx context.Context, accessToken string, dr smartwatch.DateRange) (*smartwatch.Batch, error) {
	path := fmt.Sprintf("/1/user/-/activities/list.json?afterDate=%s&sort=asc&limit=%d&offset=0",
		url.QueryEscape(dr.Start), listLimit)

	req, err := a.api.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fitbit activity list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var list ActivityList
	resp, err := a.api.Do(req, &list)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		var rerr *client.ResponseError
		if errors.As(err, &rerr) && rerr.StatusCode == http.StatusUnauthorized {
			a.log.Warn("fitbit rejected access token, returning placeholder workouts")
			return PlaceholderBatch(dr), nil
		}
		return nil, smartwatch.WrapFetchError(Brand, err)
	}

	if list.Activities == nil {
		return nil, &smartwatch.MalformedResponseError{Brand: Brand, Reason: "missing activities"}
	}

	activities := *list.Activities
	batch := &smartwatch.Batch{Records: make([]smartwatch.WorkoutRecord, 0, len(activities))}
	for i, raw := range activities {
		var act Activity
		if err := json.Unmarshal(raw, &act); err != nil {
			return nil, &smartwatch.MalformedResponseError{Brand: Brand, Reason: fmt.Sprintf("activity %d", i), Err: err}
		}
		rec := Normalize(act, raw, dr.Start)
		if !dr.Contains(rec.Date) {
			continue
		}
		batch.Records = append(batch.Records, rec)
	}

	a.log.WithField("count", len(batch.Records)).Info("fetched fitbit activities")
	return batch, nil
}

// Normalize maps a Fitbit activity onto the canonical record. Activities
// without any start date are placed on defaultDate.
func Normalize(act Activity, raw json.RawMessage, defaultDate string) smartwatch.WorkoutRecord {
	date, clock := startDateTime(act)
	if date == "" {
		date = defaultDate
	}

	rec := smartwatch.WorkoutRecord{
		Date:            date,
		Time:            clock,
		DurationSeconds: DurationSeconds(act),
		DistanceKm:      value(act.Distance),
		HeartRateBPM:    round(value(firstPresent(act.AverageHeartRate, act.HeartRate))),
		Calories:        round(value(firstPresent(act.Calories, act.CaloriesOut))),
		ActivityType:    unknownName,
		DeviceID:        Brand,
		RawPayload:      raw,
	}
	if name := firstString(act.ActivityName, act.Name); name != "" {
		rec.ActivityType = name
	}
	if act.Source != nil && act.Source.Name != "" {
		rec.DeviceID = act.Source.Name
	}
	switch {
	case act.LogID != nil:
		rec.ExternalID = strconv.FormatInt(*act.LogID, 10)
	case act.ActivityID != nil:
		rec.ExternalID = strconv.FormatInt(*act.ActivityID, 10)
	}

	return smartwatch.NewWorkoutRecord(rec)
}

// DurationSeconds returns the duration from the highest-priority field
// present: activeDuration, duration, durationInMillis, originalDuration
// (all milliseconds) and finally activeMinutes. No field yields zero.
func DurationSeconds(act Activity) int {
	for _, ms := range []*float64{act.ActiveDuration, act.Duration, act.DurationInMillis, act.OriginalDuration} {
		if ms != nil {
			return round(*ms / 1000)
		}
	}
	if act.ActiveMinutes != nil {
		return round(*act.ActiveMinutes * 60)
	}
	return 0
}

// PlaceholderBatch returns the fixed example workouts used when Fitbit
// rejects the access token. Dates start at the range start when it parses.
func PlaceholderBatch(dr smartwatch.DateRange) *smartwatch.Batch {
	base, err := time.Parse(smartwatch.DateLayout, dr.Start)
	if err != nil {
		base = time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)
	}

	samples := []struct {
		clock    string
		distance float64
		hr       int
		duration int
		calories int
		name     string
	}{
		{"07:30:00", 5.2, 155, 1800, 320, "Run"},
		{"18:45:00", 3.8, 142, 1200, 280, "Walk"},
		{"06:15:00", 6.1, 160, 2100, 410, "Run"},
	}

	batch := &smartwatch.Batch{Placeholder: true}
	for i, s := range samples {
		batch.Records = append(batch.Records, smartwatch.NewWorkoutRecord(smartwatch.WorkoutRecord{
			ExternalID:      placeholderID + strconv.Itoa(i+1),
			Date:            base.AddDate(0, 0, i).Format(smartwatch.DateLayout),
			Time:            s.clock,
			DurationSeconds: s.duration,
			DistanceKm:      s.distance,
			HeartRateBPM:    s.hr,
			Calories:        s.calories,
			ActivityType:    s.name,
			DeviceID:        Brand,
			Placeholder:     true,
		}))
	}
	return batch
}

func startDateTime(act Activity) (string, string) {
	for _, ts := range []string{act.StartTime, act.OriginalStartTime} {
		if strings.Contains(ts, "T") {
			return smartwatch.SplitTimestamp(ts)
		}
	}
	return act.StartDate, smartwatch.NormalizeClock(act.StartTime)
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round(f float64) int { return int(math.Round(f)) }
