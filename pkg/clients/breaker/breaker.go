// Package breaker wraps outbound HTTP calls in circuit breakers, one per key.
package breaker

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Settings for the breaker. Zero values take the defaults below.
type Settings struct {
	// ConsecutiveFailures trips the breaker once exceeded
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through
	OpenTimeout time.Duration
}

const (
	defaultConsecutiveFailures = 5
	defaultOpenTimeout         = 30 * time.Second
)

// Client sends requests through an *http.Client guarded by circuit breakers.
// Each key gets its own breaker, so a failing key never blocks another.
// 5xx and 429 responses count as failures; a request abandoned by its caller's
// context does not. There are no retries.
type Client struct {
	name     string
	http     *http.Client
	settings Settings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*http.Response]
}

// New returns a Client named name (used in breaker errors)
func New(name string, httpClient *http.Client, s Settings) *Client {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultConsecutiveFailures
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaultOpenTimeout
	}

	return &Client{
		name:     name,
		http:     httpClient,
		settings: s,
		breakers: make(map[string]*gobreaker.CircuitBreaker[*http.Response]),
	}
}

// StatusError is returned for responses the breaker counts as failures
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// canceledError marks a request whose caller gave up before it completed
type canceledError struct {
	err error
}

func (e *canceledError) Error() string { return e.err.Error() }
func (e *canceledError) Unwrap() error { return e.err }

func isSuccessful(err error) bool {
	var canceled *canceledError
	return err == nil || errors.As(err, &canceled)
}

// breakerFor returns the breaker for key, creating it on first use
func (c *Client) breakerFor(key string) *gobreaker.CircuitBreaker[*http.Response] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[key]; ok {
		return cb
	}

	name := c.name
	if key != "" {
		name = c.name + "/" + key
	}
	limit := c.settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     c.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > limit
		},
		IsSuccessful: isSuccessful,
	})
	c.breakers[key] = cb
	return cb
}

// Do executes req through the client's default breaker
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoFor("", req)
}

// DoFor executes req through the breaker for key.
// On a 5xx or 429 the body is closed and a *StatusError is returned.
// Other statuses are returned as-is for the caller to interpret.
// When the breaker is open, the error wraps gobreaker.ErrOpenState.
func (c *Client) DoFor(key string, req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	return c.breakerFor(key).Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, &canceledError{err: err}
			}
			return nil, err
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
}

// State reports the state of the breaker for key, for logging
func (c *Client) State(key string) string {
	return c.breakerFor(key).State().String()
}
