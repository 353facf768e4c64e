package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaning-session-backend/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.BookingConfig{
		BaseURL: url,
		APIKey:  "secret",
		Headers: map[string]string{"X-Client": "test"},
		Timeout: 5 * time.Second,
	})
}

func TestSubmitSession_Success(t *testing.T) {
	var got SessionPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "test", r.Header.Get("X-Client"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")
	result := client.SubmitSession(context.Background(), SessionPayload{
		PropertyID:     "p1",
		Duration:       1_200_000,
		HelperDuration: 300_000,
		Consumables:    map[string]int{"king_sheets": 3},
	})

	assert.Equal(t, Success{}, result)
	assert.Equal(t, "p1", got.PropertyID)
	assert.Equal(t, int64(1_200_000), got.Duration)
	assert.Equal(t, int64(300_000), got.HelperDuration)
	assert.Equal(t, 3, got.Consumables["king_sheets"])
}

func TestSubmitSession_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "application rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"error":"property not found"}`))
			},
			reason: "property not found",
		},
		{
			name: "server error with envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`{"success":false,"error":"upstream down"}`))
			},
			reason: "status 502: upstream down",
		},
		{
			name: "server error without envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			},
			reason: "received non-2xx status code: 500 boom",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			reason: "failed to unmarshal api response",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			ok, reason := Outcome(newTestClient(server.URL).SubmitSession(context.Background(), SessionPayload{PropertyID: "p1"}))
			assert.False(t, ok)
			assert.Contains(t, reason, tc.reason)
		})
	}
}

func TestSubmitSession_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	ok, reason := Outcome(newTestClient(url).SubmitSession(context.Background(), SessionPayload{}))
	assert.False(t, ok)
	assert.Contains(t, reason, "http request failed")
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient(config.BookingConfig{}).Configured())
	assert.False(t, NewClient(config.BookingConfig{BaseURL: "http://x"}).Configured())
	assert.True(t, NewClient(config.BookingConfig{BaseURL: "http://x", APIKey: "k"}).Configured())

	ok, reason := Outcome(NewClient(config.BookingConfig{}).SubmitSession(context.Background(), SessionPayload{}))
	assert.False(t, ok)
	assert.Equal(t, "booking system is not configured", reason)
}

func TestSubmitReport(t *testing.T) {
	var got ReportPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	result := newTestClient(server.URL).SubmitReport(context.Background(), ReportPayload{
		ReportID: "r1",
		Kind:     "maintenance",
		Photos:   []PhotoPayload{{FileName: "leak.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
	})
	assert.Equal(t, Success{}, result)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, []byte{0xff, 0xd8}, got.Photos[0].Data)
}
