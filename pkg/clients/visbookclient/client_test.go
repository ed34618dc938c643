package visbookclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/", Timeout: 2 * time.Second})
}

func TestListWebProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/6446/webproducts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"webProductId": 101, "unitName": "Storehytta", "extra": "ignored"},
			{"webProductId": 102, "unitName": "Veslehytta"}
		]`))
	})

	products, err := client.ListWebProducts(context.Background(), "6446")
	require.NoError(t, err)
	assert.Equal(t, []WebProduct{
		{WebProductID: 101, UnitName: "Storehytta"},
		{WebProductID: 102, UnitName: "Veslehytta"},
	}, products)
}

func TestGetMonthAvailability(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/6446/availability/101/2021-5", r.URL.Path)
		w.Write([]byte(`{"items": [
			{"date": "2021-05-01T00:00:00", "webProducts": [{"availability": {"available": true}}]},
			{"date": "2021-05-02T00:00:00", "webProducts": [{"availability": {"available": false}}]},
			{"date": "2021-05-03T00:00:00", "webProducts": [{"availability": {"available": null}}]},
			{"date": "2021-05-04T00:00:00", "webProducts": [{}]},
			{"date": "2021-05-05T00:00:00", "webProducts": []},
			{"date": "2021-05-06T00:00:00", "webProducts": [{"availability": {"available": false}}, {"availability": {"available": true}}]}
		]}`))
	})

	month, err := client.GetMonthAvailability(context.Background(), "6446", 101, 2021, time.May)
	require.NoError(t, err)
	require.Len(t, month.Items, 6)

	got := make([]bool, len(month.Items))
	for i, item := range month.Items {
		got[i] = item.IsAvailable()
	}
	assert.Equal(t, []bool{true, false, false, false, false, false}, got)
	assert.Equal(t, "2021-05-01T00:00:00", month.Items[0].Date)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		errContains string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such location", http.StatusNotFound)
			},
			errContains: "returned status 404: no such location",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			errContains: "upstream returned 500",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items": [`))
			},
			errContains: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.GetMonthAvailability(context.Background(), "6446", 101, 2021, time.June)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Contains(t, err.Error(), "unit 101 in 2021-06")
		})
	}
}

func TestClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := client.ListWebProducts(context.Background(), "6446")
	require.Error(t, err)
}

func TestClient_BreakerIsPerLocation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/6446/") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"webProductId": 201, "unitName": "Fjellstua"}]`))
	})

	var err error
	for i := 0; i < 7; i++ {
		_, err = client.ListWebProducts(context.Background(), "6446")
		require.Error(t, err)
	}
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "breaker for location 6446 is open")

	products, err := client.ListWebProducts(context.Background(), "7001")
	require.NoError(t, err)
	assert.Equal(t, []WebProduct{{WebProductID: 201, UnitName: "Fjellstua"}}, products)
}
