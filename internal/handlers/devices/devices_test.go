package devices

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/taishi0307/RumHabit/internal/apple"
	"github.com/taishi0307/RumHabit/internal/smartwatch"
	"github.com/taishi0307/RumHabit/internal/syncer"
	"github.com/taishi0307/RumHabit/internal/xiaomi"
)

type stubStatus struct {
	st  *syncer.Status
	err error
}

func (s stubStatus) LoadStatus(context.Context, string) (*syncer.Status, error) {
	return s.st, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func registry() *smartwatch.Registry {
	return smartwatch.NewRegistry(apple.New(), xiaomi.New(apple.New()))
}

func TestAvailable(t *testing.T) {
	h := NewHandler(registry(), nil, quietLogger())
	rr := httptest.NewRecorder()
	h.Available(rr, httptest.NewRequest(http.MethodGet, "/smartwatch/available", http.NoBody))

	want := `[{"brand":"Apple","available":true},{"brand":"Xiaomi","available":false}]` + "\n"
	if rr.Code != http.StatusOK || rr.Body.String() != want {
		t.Errorf("expected 200 %s, got %d %s", want, rr.Code, rr.Body.String())
	}
}

func TestStatus(t *testing.T) {
	synced := &syncer.Status{SyncID: "s1", Brand: "Apple", SyncedAt: time.Date(2025, 7, 20, 6, 0, 0, 0, time.UTC), Result: "ok", SavedCount: 2}

	tests := []struct {
		name       string
		path       string
		status     StatusLoader
		wantStatus int
		want       string
	}{
		{"recorded", "/smartwatch/status/apple", stubStatus{st: synced}, http.StatusOK, `"syncId":"s1"`},
		{"never synced", "/smartwatch/status/Apple", stubStatus{}, http.StatusNotFound, "no sync recorded"},
		{"no status store", "/smartwatch/status/Apple", nil, http.StatusNotFound, "no sync recorded"},
		{"unsupported brand", "/smartwatch/status/Polar", stubStatus{}, http.StatusBadRequest, "Unsupported brand"},
		{"load failure", "/smartwatch/status/Apple", stubStatus{err: errors.New("redis down")}, http.StatusInternalServerError, "redis down"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(registry(), tc.status, quietLogger())
			r := chi.NewRouter()
			r.Get("/smartwatch/status/{brand}", h.Status)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Errorf("expected %q in %s", tc.want, rr.Body.String())
			}
		})
	}
}

func TestStatusBody(t *testing.T) {
	synced := &syncer.Status{SyncID: "s1", Brand: "Apple", Result: "placeholder", RequestedCount: 3}
	h := NewHandler(registry(), stubStatus{st: synced}, quietLogger())
	r := chi.NewRouter()
	r.Get("/smartwatch/status/{brand}", h.Status)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/smartwatch/status/Apple", http.NoBody))

	var got syncer.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Result != "placeholder" || got.RequestedCount != 3 {
		t.Errorf("unexpected status %+v", got)
	}
}
