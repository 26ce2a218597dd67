// Package asset is the Asset façade (spec §4.4): a read-only HTTP client
// to the externally owned asset inventory service. OpsConductor never
// writes assets, only reads them, and degrades gracefully (no platform
// filter) rather than failing the enclosing request when the inventory is
// unreachable.
package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opsconductor/core/pkg/models"
)

// Client is the read-only inventory contract Stage AB's asset enrichment
// step and the public /assets/* routes depend on.
type Client interface {
	CountAssets(ctx context.Context, filters models.AssetFilters) (int, error)
	SearchAssets(ctx context.Context, filters models.AssetFilters, limit int) ([]models.Asset, error)
	ConnectionProfile(ctx context.Context, host string) (models.ConnectionProfile, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient constructs a Client against baseURL. A circuit breaker wraps
// every outbound call (grounded on the teacher's MCP HTTP transport
// timeout/retry shape, generalized) so a sustained inventory outage fails
// fast instead of stacking up hung requests across concurrent Stage AB
// enrichments.
func NewClient(baseURL string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "asset-facade",
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("asset service returned %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFoundSentinel
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("asset service returned %d", resp.StatusCode)
		}
		if out != nil {
			return nil, json.NewDecoder(resp.Body).Decode(out)
		}
		return nil, nil
	})
	if err != nil {
		if err == errNotFoundSentinel {
			return errNotFoundSentinel
		}
		return fmt.Errorf("%w: %v", ErrAssetServiceUnavailable, err)
	}
	return nil
}

var errNotFoundSentinel = fmt.Errorf("asset: not found")

func filterQuery(filters models.AssetFilters, limit int) string {
	q := url.Values{}
	if filters.OS != "" {
		q.Set("os", filters.OS)
	}
	if filters.Hostname != "" {
		q.Set("hostname", filters.Hostname)
	}
	if filters.IP != "" {
		q.Set("ip", filters.IP)
	}
	if filters.Status != "" {
		q.Set("status", filters.Status)
	}
	if filters.Environment != "" {
		q.Set("environment", filters.Environment)
	}
	if filters.Tag != "" {
		q.Set("tag", filters.Tag)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	return q.Encode()
}

func (c *httpClient) CountAssets(ctx context.Context, filters models.AssetFilters) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	path := "/assets/count?" + filterQuery(filters, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *httpClient) SearchAssets(ctx context.Context, filters models.AssetFilters, limit int) ([]models.Asset, error) {
	var resp struct {
		Assets []models.Asset `json:"assets"`
	}
	path := "/assets/search?" + filterQuery(filters, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

func (c *httpClient) ConnectionProfile(ctx context.Context, host string) (models.ConnectionProfile, error) {
	var wire struct {
		Found          bool                   `json:"found"`
		OS             string                 `json:"os"`
		DefaultService *models.DefaultService `json:"default_service,omitempty"`
	}
	path := "/assets/connection-profile?" + url.Values{"host": {host}}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &wire)
	if err == errNotFoundSentinel {
		return models.ConnectionProfile{Found: false}, nil
	}
	if err != nil {
		return models.ConnectionProfile{}, err
	}
	if !wire.Found {
		return models.ConnectionProfile{Found: false}, nil
	}
	return models.ConnectionProfile{
		Found:          true,
		OS:             wire.OS,
		Platform:       NormalizePlatform(wire.OS),
		DefaultService: wire.DefaultService,
	}, nil
}
