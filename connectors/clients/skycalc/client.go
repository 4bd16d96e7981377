// Package skycalc implements the client for a remote ephemeris service
// speaking a small JSON API: POST /v1/observability answers visibility
// requests, GET /healthz reports liveness. Transport failures and 5xx
// answers surface as visibility.ErrUnavailable so a scheduling pass aborts
// instead of silently skipping targets.
package skycalc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/peakobs/nightq/auth"
	"github.com/peakobs/nightq/connectors"
	"github.com/peakobs/nightq/core/visibility"
)

const defaultTimeout = 10 * time.Second

// Client talks to one skycalc endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	cred    *auth.ClientCred
}

// New builds a Client for the given base URL.
func New(baseURL string, opts ...connectors.Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.baseURL == "" {
		return nil, errors.New("skycalc: base url is required")
	}
	return c, nil
}

// Observable asks the service whether the target fits the window.
func (c *Client) Observable(ctx context.Context, req visibility.Request) (visibility.Result, error) {
	payload, err := json.Marshal(newObservabilityRequest(req))
	if err != nil {
		return visibility.Result{}, fmt.Errorf("skycalc: encode request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/observability", bytes.NewReader(payload))
	if err != nil {
		return visibility.Result{}, fmt.Errorf("skycalc: build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	if err := c.authorize(hreq); err != nil {
		return visibility.Result{}, err
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return visibility.Result{}, fmt.Errorf("skycalc: %v: %w", err, visibility.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return visibility.Result{}, fmt.Errorf("skycalc: status %d: %w",
			resp.StatusCode, visibility.ErrUnavailable)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return visibility.Result{}, fmt.Errorf("skycalc: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out observabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return visibility.Result{}, fmt.Errorf("skycalc: decode response: %w", err)
	}
	return out.toResult(), nil
}

// Health probes the service's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("skycalc: build request: %w", err)
	}
	if err := c.authorize(hreq); err != nil {
		return err
	}
	resp, err := c.http.Do(hreq)
	if err != nil {
		return fmt.Errorf("skycalc: %v: %w", err, visibility.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("skycalc: health status %d: %w", resp.StatusCode, visibility.ErrUnavailable)
	}
	return nil
}

// authorize stamps the request when the endpoint requires credentials. A
// token fetch failure counts as the service being unavailable.
func (c *Client) authorize(r *http.Request) error {
	if c.cred == nil {
		return nil
	}
	if err := c.cred.SetAuthHeader(r); err != nil {
		return fmt.Errorf("skycalc: auth: %v: %w", err, visibility.ErrUnavailable)
	}
	return nil
}
