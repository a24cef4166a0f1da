package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/metrics"
)

const sampleBody = `{
  "competitors": [
    {"id": "c1", "name": "Harbor Inn", "rates": [
      {"roomType": "STD", "amount": 129.5, "date": "2026-07-04"},
      {"roomType": "DLX", "amount": "199.00", "currency": "eur", "date": "2026-07-04", "available": false}
    ]},
    {"id": 42, "name": "Bay Suites", "rates": []}
  ]
}`

func testRequest() Request {
	return Request{
		PropertyID: "prop-1",
		Start:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		RoomTypes:  []string{"STD", "DLX"},
	}
}

func TestClient_FetchSendsRequestAndParses(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/competitor-rates", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	m := metrics.New(nil)
	c := NewClient(Config{BaseURL: server.URL + "/", APIToken: "secret-token"}, server.Client(), nil, m)

	obs, err := c.Fetch(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "prop-1", got.PropertyID)
	assert.Equal(t, "2026-07-01", got.StartDate)
	assert.Equal(t, "2026-07-31", got.EndDate)
	assert.Equal(t, []string{"STD", "DLX"}, got.RoomTypes)
	assert.True(t, got.IncludeCompetitors)
	assert.Equal(t, 100, got.MaxResults)

	require.Len(t, obs, 2)
	assert.Equal(t, "c1", obs[0].CompetitorID)
	assert.Equal(t, "Harbor Inn", obs[0].CompetitorName)
	assert.Equal(t, "129.5", obs[0].Rate.String())
	assert.Equal(t, "USD", obs[0].Currency)
	assert.True(t, obs[0].Available)
	assert.Equal(t, domain.SourceProvider, obs[0].Source)
	assert.Equal(t, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), obs[0].Date)

	assert.Equal(t, "EUR", obs[1].Currency)
	assert.False(t, obs[1].Available)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("ok")))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, nil, nil, nil)
	assert.False(t, c.Configured())
	_, err := c.Fetch(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	m := metrics.New(nil)
	c := NewClient(Config{BaseURL: server.URL}, server.Client(), nil, m)
	_, err := c.Fetch(context.Background(), testRequest())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, se.Body, "token expired")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("http_error")))
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL}, server.Client(), nil, nil)
	_, err := c.Fetch(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, server.Client(), nil, nil)
	start := time.Now()
	_, err := c.Fetch(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	m := metrics.New(nil)
	c := NewClient(Config{BaseURL: server.URL}, server.Client(), nil, m)

	for i := 0; i < 5; i++ {
		_, err := c.Fetch(context.Background(), testRequest())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))

	_, err := c.Fetch(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("breaker_open")))
}
