package smartwatch

import (
	"errors"
	"fmt"
)

// MaxErrorBodySize caps how much of a vendor response body is kept on errors.
const MaxErrorBodySize = 500

// ErrNotConfigured is returned when an operation needs vendor credentials
// that were not supplied.
var ErrNotConfigured = errors.New("vendor credentials not configured")

// ErrMissingCode is returned by adapters that cannot build an authorization
// URL when no code is supplied.
var ErrMissingCode = errors.New("authorization code is required")

// ErrMissingToken is returned by pass-through adapters when no access token
// is supplied.
var ErrMissingToken = errors.New("access token is required")

// UnsupportedVendorError is returned for a brand with no registered adapter.
type UnsupportedVendorError struct {
	Brand string
}

func (e *UnsupportedVendorError) Error() string {
	return fmt.Sprintf("unsupported brand: %s", e.Brand)
}

// AuthExchangeError is returned when the vendor rejects an authorization
// code exchange.
type AuthExchangeError struct {
	Brand      string
	StatusCode int
	Body       string
}

func (e *AuthExchangeError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s token exchange failed (status %d): %s", e.Brand, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s token exchange failed (status %d)", e.Brand, e.StatusCode)
}

// VendorFetchError is returned for non-2xx responses other than 401 when
// fetching workouts.
type VendorFetchError struct {
	Brand      string
	StatusCode int
	Body       string
}

func (e *VendorFetchError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s workout fetch failed (status %d): %s", e.Brand, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s workout fetch failed (status %d)", e.Brand, e.StatusCode)
}

// MalformedResponseError is returned when a vendor response cannot be parsed
// or lacks a required field.
type MalformedResponseError struct {
	Brand  string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Brand, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Brand, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// PersistError wraps a storage failure for a single record.
type PersistError struct {
	ExternalID string
	Err        error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting workout %s: %v", e.ExternalID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// TruncateBody shortens a vendor body to MaxErrorBodySize, adding "..." when
// cut.
func TruncateBody(body []byte) string {
	if len(body) <= MaxErrorBodySize {
		return string(body)
	}
	return string(body[:MaxErrorBodySize]) + "..."
}
