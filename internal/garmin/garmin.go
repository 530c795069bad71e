// Package garmin integrates the Garmin Connect activity service. Tokens are
// obtained through Garmin's OAuth 1.0a flow outside this service and passed
// through as-is.
package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/client"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const Brand = "Garmin"

var BaseURL = "https://connectapi.garmin.com"

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string
}

type Adapter struct {
	cfg Config
	api *client.Client
	log logrus.FieldLogger
}

var _ smartwatch.Adapter = (*Adapter)(nil)

// Activity is the subset of a Garmin Connect activity summary that is read.
// Distance is in meters and duration in seconds.
type Activity struct {
	ActivityID     int64           `json:"activityId"`
	StartTimeLocal string          `json:"startTimeLocal"`
	Duration       float64         `json:"duration"`
	Distance       float64         `json:"distance"`
	AverageHR      float64         `json:"averageHR"`
	Calories       float64         `json:"calories"`
	DeviceID       json.RawMessage `json:"deviceId"`
	ActivityType   struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
}

type activityList struct {
	Activities []json.RawMessage `json:"activities"`
}

func New(cfg Config, hc *http.Client, log logrus.FieldLogger) (*Adapter, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing garmin base URL: %w", err)
	}
	return &Adapter{cfg: cfg, api: client.NewClient(base, hc), log: log.WithField("brand", Brand)}, nil
}

func (a *Adapter) Brand() string { return Brand }

func (a *Adapter) IsAvailable() bool {
	return a.cfg.ConsumerKey != "" && a.cfg.ConsumerSecret != ""
}

// Authenticate returns the OAuth 1.0a access token from creds unchanged.
func (a *Adapter) Authenticate(_ context.Context, creds smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("garmin: %w", smartwatch.ErrMissingToken)
	}
	return &smartwatch.AuthResult{AccessToken: creds.AccessToken}, nil
}

func (a *Adapter) FetchWorkouts(ctx context.Context, accessToken string, dr smartwatch.DateRange) (*smartwatch.Batch, error) {
	q := url.Values{}
	q.Set("startDate", dr.Start)
	q.Set("endDate", dr.End)

	req, err := a.api.NewRequest(ctx, http.MethodGet, "/activity-service/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating garmin activities request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	var list activityList
	resp, err := a.api.Do(req, &list)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, smartwatch.WrapFetchError(Brand, err)
	}

	batch := &smartwatch.Batch{}
	for i, raw := range list.Activities {
		var act Activity
		if err := json.Unmarshal(raw, &act); err != nil {
			return nil, &smartwatch.MalformedResponseError{Brand: Brand, Reason: fmt.Sprintf("activity %d", i), Err: err}
		}
		batch.Records = append(batch.Records, Normalize(act, raw))
	}

	a.log.WithField("count", batch.Len()).Info("fetched garmin activities")
	return batch, nil
}

// Normalize maps a Garmin activity onto the canonical record.
func Normalize(act Activity, raw json.RawMessage) smartwatch.WorkoutRecord {
	date, clock := smartwatch.SplitTimestamp(act.StartTimeLocal)

	var id string
	if act.ActivityID != 0 {
		id = fmt.Sprint(act.ActivityID)
	}

	return smartwatch.NewWorkoutRecord(smartwatch.WorkoutRecord{
		ExternalID:      id,
		Date:            date,
		Time:            clock,
		DurationSeconds: int(math.Round(act.Duration)),
		DistanceKm:      act.Distance / 1000,
		HeartRateBPM:    int(math.Round(act.AverageHR)),
		Calories:        int(math.Round(act.Calories)),
		ActivityType:    smartwatch.ActivityLabel(act.ActivityType.TypeKey),
		DeviceID:        strings.Trim(string(act.DeviceID), `"`),
		RawPayload:      raw,
	})
}
