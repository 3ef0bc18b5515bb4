// Package geoip resolves visitor IP addresses to an approximate location.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UnknownLocation is stored on a visit event when the lookup failed, timed
// out, or returned no usable city. Enrichment is best-effort: callers never
// see an error from this package.
const UnknownLocation = "Unknown Location"

// Resolver looks up an approximate location for an IP address.
// Implementations must respect ctx cancellation and must never block past it.
type Resolver interface {
	Locate(ctx context.Context, ip string) string
}

// Client resolves locations via the ip-api.com JSON endpoint
// (GET <endpoint>/<ip> returning {"status": "...", "city": "...", ...}).
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Geo-IP client. The timeout bounds every lookup
// independently of the caller's context; analytics workers rely on this to
// keep a slow lookup from stalling the visit pipeline.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type lookupResponse struct {
	Status  string `json:"status"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Locate returns the city for the given IP, or UnknownLocation on any failure.
func (c *Client) Locate(ctx context.Context, ip string) string {
	url := fmt.Sprintf("%s/%s", c.endpoint, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("geoip: failed to build request", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("geoip: lookup failed", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("geoip: unexpected status", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return UnknownLocation
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("geoip: failed to decode response", zap.String("ip", ip), zap.Error(err))
		return UnknownLocation
	}
	if body.City == "" {
		return UnknownLocation
	}
	return body.City
}
