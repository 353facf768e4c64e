// Package booking is the HTTP client for the remote booking system.
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"cleaning-session-backend/config"
)

const maxErrorBody = 4 << 10

// Client submits sessions and reports to the booking system. Outbound calls
// are throttled so retry sweeps cannot flood the remote API.
type Client struct {
	cfg     config.BookingConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a booking client from configuration.
func NewClient(cfg config.BookingConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Booking client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	limit := rate.Limit(cfg.RateLimitPerSec)
	if cfg.RateLimitPerSec <= 0 {
		limit = rate.Inf
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether the booking system can be reached at all.
// Without it sessions are marked failed locally and never attempted.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != "" && c.cfg.APIKey != ""
}

// SubmitSession posts a completed session. It never returns an error:
// every failure becomes a Failure result.
func (c *Client) SubmitSession(ctx context.Context, p SessionPayload) SyncResult {
	return c.post(ctx, "/sessions", p)
}

// SubmitReport posts a lost property or maintenance report.
func (c *Client) SubmitReport(ctx context.Context, p ReportPayload) SyncResult {
	return c.post(ctx, "/reports", p)
}

func (c *Client) post(ctx context.Context, path string, body any) SyncResult {
	if !c.Configured() {
		return Failure{Reason: "booking system is not configured"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Failure{Reason: fmt.Sprintf("rate limiter: %v", err)}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Failure{Reason: fmt.Sprintf("failed to marshal request payload: %v", err)}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Failure{Reason: fmt.Sprintf("failed to create request: %v", err)}
	}

	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Failure{Reason: fmt.Sprintf("http request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Failure{Reason: fmt.Sprintf("failed to read response body: %v", err)}
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && apiResp.Error != "" {
			return Failure{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, apiResp.Error)}
		}
		return Failure{Reason: fmt.Sprintf("received non-2xx status code: %d %s", resp.StatusCode, truncate(respBody))}
	}
	if decodeErr != nil {
		return Failure{Reason: fmt.Sprintf("failed to unmarshal api response: %v", decodeErr)}
	}
	if !apiResp.Success {
		if apiResp.Error == "" {
			return Failure{Reason: "booking system rejected the submission"}
		}
		return Failure{Reason: apiResp.Error}
	}
	return Success{}
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
