package sendgridclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail(t *testing.T) {
	var received mailPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "SG.test", From: "no-reply@mapper.world", BaseURL: server.URL})

	err := client.SendEmail(context.Background(), "someone@example.com", "Hytta Update - Flokehyttene", "<p>Storehytta</p>")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@mapper.world", received.From.Email)
	assert.Equal(t, "Hytta Update - Flokehyttene", received.Subject)
	require.Len(t, received.Personalizations, 1)
	assert.Equal(t, []address{{Email: "someone@example.com"}}, received.Personalizations[0].To)
	assert.Equal(t, []content{{Type: "text/html", Value: "<p>Storehytta</p>"}}, received.Content)
}

func TestSendEmail_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		errContains string
	}{
		{
			name:        "sendgrid error body",
			status:      http.StatusUnauthorized,
			body:        `{"errors":[{"message":"The provided authorization grant is invalid"}]}`,
			errContains: "status 401: The provided authorization grant is invalid",
		},
		{
			name:        "plain body",
			status:      http.StatusBadRequest,
			body:        "bad request",
			errContains: "status 400: bad request",
		},
		{
			name:        "server error",
			status:      http.StatusServiceUnavailable,
			errContains: "upstream returned 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "SG.test", From: "no-reply@mapper.world", BaseURL: server.URL})

			err := client.SendEmail(context.Background(), "someone@example.com", "subject", "<p>body</p>")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
