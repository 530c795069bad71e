// Package client implements a generic REST API client used by the vendor
// adapters.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var userAgent = "RumHabit/0.1"

// maxErrorBody caps the response body kept on a ResponseError.
const maxErrorBody = 500

// Client holds configuration items for the REST client and provides methods that interact with the REST API.
type Client struct {
	BaseURL *url.URL

	userAgent string
	client    *http.Client
}

// ResponseError is returned by Do for any non-2xx response.
type ResponseError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *ResponseError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body != "" {
		return fmt.Sprintf("%s (status %d): %s", http.StatusText(e.StatusCode), e.StatusCode, body)
	}
	return fmt.Sprintf("%s (status %d)", http.StatusText(e.StatusCode), e.StatusCode)
}

// DecodeError is returned by Do when a 2xx body cannot be decoded as JSON.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decoding response: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// NewClient returns a new REST API client. If a nil httpClient is
// provided, http.DefaultClient will be used. To use API methods which require
// authentication, set the Authorization header on the request returned by
// NewRequest or provide an http.Client that will perform the authentication
// for you (such as that provided by the golang.org/x/oauth2 library).
func NewClient(baseURL *url.URL, cc *http.Client) *Client {
	if cc == nil {
		cc = http.DefaultClient
	}

	c := &Client{BaseURL: baseURL, userAgent: userAgent, client: cc}
	return c
}

// NewRequest creates an HTTP Request. If a non-nil body is provided
// it will be JSON encoded and included in the request.
func (c *Client) NewRequest(ctx context.Context, method, urlStr string, body any) (*http.Request, error) {
	u, err := c.BaseURL.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	var buf io.ReadWriter
	if body != nil {
		buf = new(bytes.Buffer)
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		err = enc.Encode(body)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Do sends a request and returns the response. A *ResponseError is returned
// for any non-2xx response and a *DecodeError when a 2xx body is not valid
// JSON. On success the body is decoded into the value pointed to by v.
func (c *Client) Do(req *http.Request, v any) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	// Re-wrap the body so callers can still read it.
	resp.Body = io.NopCloser(bytes.NewReader(data))

	// Anything other than a HTTP 2xx response code is treated as an error.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &ResponseError{StatusCode: resp.StatusCode, Body: data, URL: req.URL.String()}
	}

	if v != nil && len(data) != 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return resp, &DecodeError{Body: data, Err: err}
		}
	}

	return resp, nil
}
