// Package huawei integrates the Huawei Health Kit REST API.
package huawei

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/client"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const Brand = "Huawei"

var BaseURL = "https://health-api.cloud.huawei.com"

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type Adapter struct {
	cfg Config
	api *client.Client
	log logrus.FieldLogger
}

var _ smartwatch.Adapter = (*Adapter)(nil)

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type activityList struct {
	Activities []json.RawMessage `json:"activities"`
}

type activity struct {
	ID           string  `json:"id"`
	StartTime    string  `json:"startTime"`
	Duration     float64 `json:"duration"`
	Distance     float64 `json:"distance"`
	AvgHeartRate float64 `json:"avgHeartRate"`
	Calories     float64 `json:"calories"`
	Type         string  `json:"type"`
	DeviceID     string  `json:"deviceId"`
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
		return nil, fmt.Errorf("parsing huawei base URL: %w", err)
	}
	return &Adapter{cfg: cfg, api: client.NewClient(base, hc), log: log.WithField("brand", Brand)}, nil
}

func (a *Adapter) Brand() string { return Brand }

func (a *Adapter) IsAvailable() bool {
	return a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

// Authenticate exchanges creds.Code for an access token. Client id and
// secret default to the adapter configuration.
func (a *Adapter) Authenticate(ctx context.Context, creds smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	body := &tokenRequest{
		GrantType:    "authorization_code",
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Code:         creds.Code,
	}
	if body.ClientID == "" {
		body.ClientID = a.cfg.ClientID
	}
	if body.ClientSecret == "" {
		body.ClientSecret = a.cfg.ClientSecret
	}
	if body.ClientID == "" || body.ClientSecret == "" {
		return nil, fmt.Errorf("huawei client credentials: %w", smartwatch.ErrNotConfigured)
	}
	if body.Code == "" {
		return nil, fmt.Errorf("huawei: %w", smartwatch.ErrMissingCode)
	}

	req, err := a.api.NewRequest(ctx, http.MethodPost, "/auth/v2/token", body)
	if err != nil {
		return nil, fmt.Errorf("creating huawei token request: %w", err)
	}

	var tok tokenResponse
	resp, err := a.api.Do(req, &tok)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, smartwatch.WrapExchangeError(Brand, err)
	}
	if tok.AccessToken == "" {
		return nil, &smartwatch.MalformedResponseError{Brand: Brand, Reason: "missing access_token"}
	}
	return &smartwatch.AuthResult{AccessToken: tok.AccessToken}, nil
}

// FetchWorkouts lists activities between the range bounds. Distances are
// reported in meters.
func (a *Adapter) FetchWorkouts(ctx context.Context, accessToken string, dr smartwatch.DateRange) (*smartwatch.Batch, error) {
	q := url.Values{}
	q.Set("startTime", dr.Start)
	q.Set("endTime", dr.End)

	req, err := a.api.NewRequest(ctx, http.MethodGet, "/fitness/v1/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating huawei activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

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
		var act activity
		if err := json.Unmarshal(raw, &act); err != nil {
			return nil, &smartwatch.MalformedResponseError{Brand: Brand, Reason: fmt.Sprintf("activity %d", i), Err: err}
		}
		date, clock := smartwatch.SplitTimestamp(act.StartTime)
		batch.Records = append(batch.Records, smartwatch.NewWorkoutRecord(smartwatch.WorkoutRecord{
			ExternalID:      act.ID,
			Date:            date,
			Time:            clock,
			DurationSeconds: int(math.Round(act.Duration)),
			DistanceKm:      act.Distance / 1000,
			HeartRateBPM:    int(math.Round(act.AvgHeartRate)),
			Calories:        int(math.Round(act.Calories)),
			ActivityType:    smartwatch.ActivityLabel(act.Type),
			DeviceID:        act.DeviceID,
			RawPayload:      raw,
		}))
	}

	a.log.WithField("count", batch.Len()).Info("fetched huawei activities")
	return batch, nil
}
