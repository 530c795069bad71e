// Package xiaomi reads Mi Fitness workouts through Google Fit, which is the
// only published route to Xiaomi data.
package xiaomi

import (
	"context"
	"fmt"
	"strings"

	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const Brand = "Xiaomi"

// deviceMarker identifies Google Fit sessions written by Xiaomi apps.
const deviceMarker = "xiaomi"

// Adapter filters a Google Fit adapter down to Xiaomi sessions. It is never
// reported as available since there is no direct Xiaomi API.
type Adapter struct {
	fit smartwatch.Adapter
}

var _ smartwatch.Adapter = (*Adapter)(nil)

// New wraps the Google Fit adapter used for fetching.
func New(fit smartwatch.Adapter) *Adapter {
	return &Adapter{fit: fit}
}

func (a *Adapter) Brand() string { return Brand }

func (a *Adapter) IsAvailable() bool { return false }

// Authenticate passes the Google Fit access token through.
func (a *Adapter) Authenticate(_ context.Context, creds smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("xiaomi via google fit: %w", smartwatch.ErrMissingToken)
	}
	return &smartwatch.AuthResult{AccessToken: creds.AccessToken}, nil
}

func (a *Adapter) FetchWorkouts(ctx context.Context, accessToken string, dr smartwatch.DateRange) (*smartwatch.Batch, error) {
	all, err := a.fit.FetchWorkouts(ctx, accessToken, dr)
	if err != nil {
		return nil, fmt.Errorf("xiaomi via google fit: %w", err)
	}

	batch := &smartwatch.Batch{Placeholder: all.Placeholder}
	for _, r := range all.Records {
		if strings.Contains(strings.ToLower(r.DeviceID), deviceMarker) {
			batch.Records = append(batch.Records, r)
		}
	}
	return batch, nil
}
