// Package apple registers Apple HealthKit. HealthKit has no web API; data
// only arrives from a companion iOS app, so this adapter never fetches.
package apple

import (
	"context"
	"errors"

	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

const Brand = "Apple"

// ErrRequiresIOSApp is returned by Authenticate.
var ErrRequiresIOSApp = errors.New("apple healthkit requires iOS app integration")

type Adapter struct{}

var _ smartwatch.Adapter = Adapter{}

func New() Adapter { return Adapter{} }

func (Adapter) Brand() string { return Brand }

// IsAvailable is always true; availability depends on the iOS app.
func (Adapter) IsAvailable() bool { return true }

func (Adapter) Authenticate(context.Context, smartwatch.Credentials) (*smartwatch.AuthResult, error) {
	return nil, ErrRequiresIOSApp
}

func (Adapter) FetchWorkouts(context.Context, string, smartwatch.DateRange) (*smartwatch.Batch, error) {
	return &smartwatch.Batch{}, nil
}
