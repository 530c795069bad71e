package calendarevent

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type MockClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	return m.DoFunc(req)
}

func TestEvents(t *testing.T) {
	resp, _ := os.ReadFile("testdata/trainerroad.ics")
	mockClient := &MockClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.URL.String() != "https://api.trainerroad.com/v1/calendar/ics/foobar" {
				t.Errorf("unexpected URL %s", req.URL)
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(string(resp))),
			}, nil
		},
	}
	cs := NewCalendarService(mockClient, "https://api.trainerroad.com/v1/calendar/ics", "foobar")

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC)

	t.Run("should return events in range", func(t *testing.T) {
		events, err := cs.Events(context.Background(), start, end)
		if err != nil {
			t.Fatalf("unexpected error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events but got %d", len(events))
		}
		if events[0].UID != "tr-1001@trainerroad.com" {
			t.Errorf("expected UID tr-1001@trainerroad.com but got %v", events[0].UID)
		}
		if events[0].Summary != "1:00 - Truchas -3" {
			t.Errorf("expected summary 1:00 - Truchas -3 but got %v", events[0].Summary)
		}
		if got := events[0].End.Sub(events[0].Start); got != time.Hour {
			t.Errorf("expected a one hour event but got %v", got)
		}
	})

	t.Run("should return no events outside the feed", func(t *testing.T) {
		events, err := cs.Events(context.Background(), start.AddDate(1, 0, 0), end.AddDate(1, 0, 0))
		if err != nil {
			t.Fatalf("unexpected error = %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no events but got %v", events)
		}
	})

	t.Run("should return an error if the request fails", func(t *testing.T) {
		cs := NewCalendarService(&MockClient{
			DoFunc: func(*http.Request) (*http.Response, error) {
				return nil, http.ErrHandlerTimeout
			},
		}, "https://api.trainerroad.com/v1/calendar/ics", "foobar")

		if _, err := cs.Events(context.Background(), start, end); err == nil {
			t.Errorf("expected an error but got nil")
		}
	})

	t.Run("should return an error for a missing feed", func(t *testing.T) {
		cs := NewCalendarService(&MockClient{
			DoFunc: func(*http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Status:     "404 Not Found",
					Body:       io.NopCloser(strings.NewReader("")),
				}, nil
			},
		}, "https://api.trainerroad.com/v1/calendar/ics", "missing")

		if _, err := cs.Events(context.Background(), start, end); err == nil {
			t.Errorf("expected an error but got nil")
		}
	})
}
