package sendgridclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cabinwatch/cabinwatch/pkg/clients/breaker"
)

const (
	defaultBaseURL = "https://api.sendgrid.com"
	sendTimeout    = 10 * time.Second
)

// Config configures the SendGrid client
type Config struct {
	APIKey string
	From   string
	// BaseURL overrides the SendGrid API host, for tests
	BaseURL string
}

// Client sends HTML email through the SendGrid v3 Mail Send API
type Client struct {
	http    *breaker.Client
	apiKey  string
	from    string
	baseURL string
}

// NewClient creates a SendGrid client with a 10s request timeout
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http:    breaker.New("sendgrid", &http.Client{Timeout: sendTimeout}, breaker.Settings{}),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type mailPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// SendEmail sends an HTML email to a single recipient
func (c *Client) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	payload := mailPayload{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from},
		Subject:          subject,
		Content:          []content{{Type: "text/html", Value: htmlBody}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, errorMessage(resp.Body))
}

// errorMessage extracts the first SendGrid error message, or the raw body
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable response body"
	}

	var sgErr errorResponse
	if err := json.Unmarshal(data, &sgErr); err == nil && len(sgErr.Errors) > 0 {
		return sgErr.Errors[0].Message
	}
	return strings.TrimSpace(string(data))
}
