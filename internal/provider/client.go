// Package provider is the client for the live competitor-rate provider.
//
// A Client sends one bearer-authenticated POST per Fetch, bounded by a hard
// timeout, and parses the response strictly. Calls go through a circuit
// breaker so a failing provider is short-circuited instead of waited on.
package provider

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

	"github.com/sony/gobreaker/v2"

	"github.com/ignite/rate-intel/internal/domain"
	"github.com/ignite/rate-intel/internal/metrics"
	"github.com/ignite/rate-intel/internal/pkg/httpretry"
	"github.com/ignite/rate-intel/internal/pkg/logger"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 100
	ratesPath         = "/competitor-rates"
	maxBodyBytes      = 8 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	MaxResults int
	MaxRetries int
	Breaker    BreakerConfig
}

// Request is one collection window.
type Request struct {
	PropertyID string
	Start      time.Time
	End        time.Time
	RoomTypes  []string
}

type requestBody struct {
	PropertyID         string   `json:"propertyId"`
	StartDate          string   `json:"startDate"`
	EndDate            string   `json:"endDate"`
	RoomTypes          []string `json:"roomTypes,omitempty"`
	IncludeCompetitors bool     `json:"includeCompetitors"`
	MaxResults         int      `json:"maxResults"`
}

// Client calls the provider.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	maxResults int
	http       httpretry.HTTPDoer
	breaker    *gobreaker.CircuitBreaker[[]domain.CompetitorObservation]
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient builds a Client. doer may be nil, in which case a RetryClient
// over http.DefaultTransport with cfg.MaxRetries is used.
func NewClient(cfg Config, doer httpretry.HTTPDoer, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "provider")
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{}, cfg.MaxRetries, log)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.APIToken,
		timeout:    cfg.Timeout,
		maxResults: cfg.MaxResults,
		http:       doer,
		breaker:    newBreaker(cfg.Breaker, log, m),
		log:        log,
		metrics:    m,
	}
}

// Configured reports whether a live provider endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Fetch retrieves competitor observations for the window. The whole call,
// retries included, is bounded by the client timeout.
func (c *Client) Fetch(ctx context.Context, req Request) ([]domain.CompetitorObservation, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	obs, err := c.breaker.Execute(func() ([]domain.CompetitorObservation, error) {
		return c.fetch(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.RecordProviderRequest("breaker_open")
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.metrics.RecordProviderRequest(outcome(err))
		return nil, err
	}
	c.metrics.RecordProviderRequest("ok")
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, req Request) ([]domain.CompetitorObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(requestBody{
		PropertyID:         req.PropertyID,
		StartDate:          req.Start.Format(domain.DateLayout),
		EndDate:            req.End.Format(domain.DateLayout),
		RoomTypes:          req.RoomTypes,
		IncludeCompetitors: true,
		MaxResults:         c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ratesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("provider: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(snippet)}
	}

	obs, err := parseRates(body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("provider rates fetched", "property_id", req.PropertyID,
		"observations", len(obs), "elapsed", time.Since(start))
	return obs, nil
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return "http_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
