// Package calendarevent implements methods to get events from ical feeds.
package calendarevent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apognu/gocal"
)

type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type CalendarService struct {
	Client  HTTPClient
	BaseURL string
	CalID   string
}

func NewCalendarService(client HTTPClient, baseURL, calID string) *CalendarService {
	if client == nil {
		client = http.DefaultClient
	}
	return &CalendarService{
		Client:  client,
		BaseURL: baseURL,
		CalID:   calID,
	}
}

// Events returns the events in the feed that overlap [start, end], in feed
// order.
func (cs CalendarService) Events(ctx context.Context, start, end time.Time) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", cs.BaseURL, cs.CalID), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := cs.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("calendar feed returned %s", resp.Status)
	}

	c := gocal.NewParser(resp.Body)
	c.Start, c.End = &start, &end

	if err := c.Parse(); err != nil {
		return nil, fmt.Errorf("parsing calendar feed: %w", err)
	}

	events := make([]Event, 0, len(c.Events))
	for i := 0; i < len(c.Events); i++ {
		component := c.Events[i]
		if component.Start == nil {
			continue
		}
		ev := Event{
			UID:         component.Uid,
			Summary:     component.Summary,
			Description: component.Description,
			Start:       *component.Start,
			End:         *component.Start,
		}
		if component.End != nil {
			ev.End = *component.End
		}
		events = append(events, ev)
	}

	return events, nil
}
