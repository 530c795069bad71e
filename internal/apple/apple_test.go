package apple

import (
	"context"
	"errors"
	"testing"

	"github.com/taishi0307/RumHabit/internal/smartwatch"
)

func TestAdapter(t *testing.T) {
	a := New()
	if !a.IsAvailable() {
		t.Error("expected apple to be available")
	}
	if _, err := a.Authenticate(context.Background(), smartwatch.Credentials{UserID: "u1", DeviceID: "d1"}); !errors.Is(err, ErrRequiresIOSApp) {
		t.Errorf("expected ErrRequiresIOSApp, got %v", err)
	}
	batch, err := a.FetchWorkouts(context.Background(), "tok", smartwatch.DateRange{Start: "2025-07-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Len() != 0 || batch.Placeholder {
		t.Errorf("expected empty batch, got %+v", batch)
	}
}
