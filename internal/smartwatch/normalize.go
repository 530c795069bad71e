package smartwatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/taishi0307/RumHabit/internal/client"
)

// SplitTimestamp splits a vendor timestamp such as
// "2025-07-10T07:00:00.000+09:00" or "2025-07-10 07:00:00" into its calendar
// day and wall-clock parts. Fractional seconds and zone suffixes are dropped;
// no time zone conversion is applied.
func SplitTimestamp(ts string) (date, clock string) {
	i := strings.IndexAny(ts, "T ")
	if i < 0 {
		return ts, NormalizeClock("")
	}
	date, clock = ts[:i], ts[i+1:]
	if j := strings.IndexAny(clock, ".Z+-"); j >= 0 {
		clock = clock[:j]
	}
	return date, NormalizeClock(clock)
}

// NormalizeClock pads "HH:MM" to "HH:MM:SS". An empty clock is midnight.
func NormalizeClock(clock string) string {
	switch strings.Count(clock, ":") {
	case 0:
		if clock == "" {
			return "00:00:00"
		}
		return clock
	case 1:
		return clock + ":00"
	default:
		return clock
	}
}

// WrapFetchError maps a REST client error from a workout fetch onto the
// typed vendor errors.
func WrapFetchError(brand string, err error) error {
	var rerr *client.ResponseError
	if errors.As(err, &rerr) {
		return &VendorFetchError{Brand: brand, StatusCode: rerr.StatusCode, Body: TruncateBody(rerr.Body)}
	}
	var derr *client.DecodeError
	if errors.As(err, &derr) {
		return &MalformedResponseError{Brand: brand, Reason: "workout list", Err: derr.Err}
	}
	return fmt.Errorf("fetching %s workouts: %w", brand, err)
}

// WrapExchangeError maps a REST client error from a token request onto the
// typed vendor errors.
func WrapExchangeError(brand string, err error) error {
	var rerr *client.ResponseError
	if errors.As(err, &rerr) {
		return &AuthExchangeError{Brand: brand, StatusCode: rerr.StatusCode, Body: TruncateBody(rerr.Body)}
	}
	var derr *client.DecodeError
	if errors.As(err, &derr) {
		return &MalformedResponseError{Brand: brand, Reason: "token response", Err: derr.Err}
	}
	return fmt.Errorf("exchanging %s authorization code: %w", brand, err)
}

// WrapOAuth2Error maps an error from oauth2.Config.Exchange onto the typed
// vendor errors. Transport and context failures are wrapped unchanged.
func WrapOAuth2Error(brand string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		return &AuthExchangeError{Brand: brand, StatusCode: status, Body: TruncateBody(rerr.Body)}
	}

	var uerr *url.Error
	if errors.As(err, &uerr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("exchanging %s authorization code: %w", brand, err)
	}

	// What remains are 2xx responses that could not be parsed or carried no
	// access_token.
	return &MalformedResponseError{Brand: brand, Reason: "token response", Err: err}
}
