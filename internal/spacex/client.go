// Package spacex provides the read-only client for the external launch API.
package spacex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orbitalops/launchdash/internal/logger"
)

const (
	// DefaultTimeout bounds every call to the external API
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed point-fetch response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "launchdash/1.0"
)

// Source is the external launch source boundary consumed by the sync pipeline.
//
// StreamLaunches invokes fn once per launch record as it is decoded, so the
// caller never holds the full collection in memory. An error returned by fn
// aborts the stream and is returned unchanged.
type Source interface {
	StreamLaunches(ctx context.Context, fn func(LaunchRecord) error) error
	GetRocket(ctx context.Context, id string) (*RocketRecord, error)
	GetLaunchPad(ctx context.Context, id string) (*LaunchPadRecord, error)
}

// Client is the HTTP implementation of Source.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTimeout overrides the per-call timeout.
// If timeout is 0, DefaultTimeout is kept.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client for the launch API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	logger.Infof("Launch API client initialized with base URL: %s", baseURL)
	return c
}

// StreamLaunches fetches /v5/launches and decodes the response array one
// element at a time. A transport or status failure before the first element is
// returned to the caller (fatal for a sync pass); a malformed element is
// skipped and logged, matching the per-record containment contract.
func (c *Client) StreamLaunches(ctx context.Context, fn func(LaunchRecord) error) error {
	url := c.baseURL + "/v5/launches"

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	dec := json.NewDecoder(resp.Body)

	// Opening bracket of the launch array.
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode launch collection: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("unexpected launch collection payload: got token %v", tok)
	}

	for dec.More() {
		// Two-step decode: RawMessage accepts any syntactically valid element,
		// so a record that merely fails to fit LaunchRecord is skipped and the
		// rest of the array is still consumed.
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// The decoder cannot resynchronize inside syntactically broken
			// JSON; everything decoded so far has already been handed to fn.
			logger.Warnf("Broken launch collection, stopping stream: %v", err)
			return nil
		}

		var rec LaunchRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warnf("Skipping malformed launch record: %v", err)
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		logger.Warnf("Trailing data after launch collection: %v", err)
	}

	return nil
}

// GetRocket fetches one rocket by id.
func (c *Client) GetRocket(ctx context.Context, id string) (*RocketRecord, error) {
	var rec RocketRecord
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v4/rockets/%s", c.baseURL, id), &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("malformed rocket record for id %s: missing id", id)
	}
	return &rec, nil
}

// GetLaunchPad fetches one launch pad by id.
func (c *Client) GetLaunchPad(ctx context.Context, id string) (*LaunchPadRecord, error) {
	var rec LaunchPadRecord
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v4/launchpads/%s", c.baseURL, id), &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("malformed launchpad record for id %s: missing id", id)
	}
	return &rec, nil
}

// get performs an HTTP GET request and verifies the status code.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	return resp, nil
}

// getJSON performs a GET request and decodes a single JSON object with a size limit.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
