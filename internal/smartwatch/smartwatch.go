// Package smartwatch defines the contract every fitness-device integration
// implements and the canonical workout record vendors are normalized into.
package smartwatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateLayout and TimeLayout are the canonical calendar day and clock formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// DefaultSyncWindow is used when a sync request has no start date.
const DefaultSyncWindow = 30 * 24 * time.Hour

// Adapter is implemented once per fitness-device brand.
type Adapter interface {
	// Brand is the stable identifier used for lookups and routing.
	Brand() string
	// Authenticate returns an authorization URL when no code is present in
	// creds, otherwise it exchanges the code (or passes through a token) and
	// returns an access token.
	Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error)
	// FetchWorkouts retrieves and normalizes the workouts in the range.
	FetchWorkouts(ctx context.Context, accessToken string, dr DateRange) (*Batch, error)
	// IsAvailable reports whether the vendor's required configuration is set.
	IsAvailable() bool
}

// Credentials is the union of the values vendors need to authenticate.
type Credentials struct {
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RedirectURI  string `json:"redirectUri,omitempty"`
	Code         string `json:"code,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	TokenSecret  string `json:"tokenSecret,omitempty"`
	UserID       string `json:"userId,omitempty"`
	DeviceID     string `json:"deviceId,omitempty"`
}

// AuthResult holds exactly one of an authorization URL or an access token.
type AuthResult struct {
	AuthURL     string `json:"authUrl,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// DateRange is an inclusive range of calendar days in DateLayout.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WithDefaults fills an empty start with the default sync window ending at
// now and an empty end with now.
func (dr DateRange) WithDefaults(now time.Time) DateRange {
	if dr.End == "" {
		dr.End = now.Format(DateLayout)
	}
	if dr.Start == "" {
		dr.Start = now.Add(-DefaultSyncWindow).Format(DateLayout)
	}
	return dr
}

// Validate checks both ends parse and are ordered.
func (dr DateRange) Validate() error {
	start, err := time.Parse(DateLayout, dr.Start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", dr.Start, err)
	}
	if dr.End == "" {
		return nil
	}
	end, err := time.Parse(DateLayout, dr.End)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", dr.End, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", dr.End, dr.Start)
	}
	return nil
}

// Contains reports whether date falls inside the range. Empty bounds are open.
func (dr DateRange) Contains(date string) bool {
	if dr.Start != "" && date < dr.Start {
		return false
	}
	if dr.End != "" && date > dr.End {
		return false
	}
	return true
}

// WorkoutRecord is the vendor-independent workout shape. Values are built
// with NewWorkoutRecord and treated as read-only afterwards.
type WorkoutRecord struct {
	ExternalID      string          `json:"id"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	DurationSeconds int             `json:"duration"`
	DistanceKm      float64         `json:"distance"`
	HeartRateBPM    int             `json:"heartRate"`
	Calories        int             `json:"calories"`
	ActivityType    string          `json:"activityType"`
	DeviceID        string          `json:"deviceId"`
	RawPayload      json.RawMessage `json:"rawData,omitempty"`
	// Placeholder marks example data returned instead of real vendor data.
	Placeholder bool `json:"placeholder"`
	// SyntheticID marks an ExternalID derived from content, not the vendor.
	SyntheticID bool `json:"syntheticId,omitempty"`
}

// NewWorkoutRecord normalizes vendor values: distance is rounded to two
// decimal places and negative numbers are clamped to zero. An empty
// ExternalID is replaced with a content hash.
func NewWorkoutRecord(r WorkoutRecord) WorkoutRecord {
	r.DistanceKm = RoundDistance(r.DistanceKm)
	r.DurationSeconds = max(r.DurationSeconds, 0)
	r.HeartRateBPM = max(r.HeartRateBPM, 0)
	r.Calories = max(r.Calories, 0)
	if r.ExternalID == "" {
		r.ExternalID = SyntheticID(r.Date, r.Time, r.DistanceKm, r.HeartRateBPM, r.DurationSeconds)
		r.SyntheticID = true
	}
	return r
}

// RoundDistance rounds km to two decimal places, clamping negatives to zero.
func RoundDistance(km float64) float64 {
	if km <= 0 || math.IsNaN(km) || math.IsInf(km, 0) {
		return 0
	}
	return math.Round(km*100) / 100
}

// SyntheticID derives a stable identifier from a workout's content so that
// retries of the same vendor item produce the same key.
func SyntheticID(date, clock string, distanceKm float64, heartRate, durationSeconds int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.2f|%d|%d", date, clock, distanceKm, heartRate, durationSeconds)))
	return "synthetic-" + hex.EncodeToString(sum[:8])
}

// Batch is the result of one FetchWorkouts call.
type Batch struct {
	Records []WorkoutRecord
	// Placeholder is set when Records are example data standing in for an
	// unauthorized vendor response.
	Placeholder bool
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}
