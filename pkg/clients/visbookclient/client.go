package visbookclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/cabinwatch/cabinwatch/pkg/clients/breaker"
)

// Config configures the VisBook client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a read-only client for the public VisBook booking API
type Client struct {
	http    *breaker.Client
	baseURL string
}

// NewClient creates a client. Every request is bounded by cfg.Timeout.
func NewClient(cfg Config) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		http:    breaker.New("visbook", httpClient, breaker.Settings{}),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// getJSON fetches path (relative to the base URL) and decodes a JSON body into out.
// Requests are guarded by a breaker per location.
func (c *Client) getJSON(ctx context.Context, locationID, path string, out any) error {
	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.DoFor(locationID, req)
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("skipped GET %s, breaker for location %s is %s: %w", reqURL, locationID, c.http.State(locationID), err)
	}
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned status %d: %s", reqURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", reqURL, err)
	}
	return nil
}

func locationPath(locationID string) string {
	return "/" + url.PathEscape(locationID)
}
