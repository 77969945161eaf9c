// Package geojson fetches country outlines for the choropleth map.
package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/couchcryptid/medal-flow-etl/internal/observability"
)

// Fetcher retrieves the features of a GeoJSON FeatureCollection.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]domain.MapFeature, error)
}

// Client fetches GeoJSON over HTTP.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GeoJSON client with the given request timeout.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads and decodes a FeatureCollection. Features without a usable
// id are dropped since they cannot be joined to a country.
func (c *Client) Fetch(ctx context.Context, url string) ([]domain.MapFeature, error) {
	start := time.Now()
	features, err := c.doRequest(ctx, url)
	switch {
	case err != nil:
		c.metrics.GeoJSONRequests.WithLabelValues("error").Inc()
	case len(features) == 0:
		c.metrics.GeoJSONRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeoJSONRequests.WithLabelValues("success").Inc()
	}
	c.logger.Debug("geojson fetched", "url", url, "features", len(features), "duration", time.Since(start), "error", err)
	return features, err
}

func (c *Client) doRequest(ctx context.Context, url string) ([]domain.MapFeature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geojson request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geojson error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]domain.MapFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		id := f.featureID()
		if id == "" {
			continue
		}
		features = append(features, domain.MapFeature{
			ID:       id,
			Name:     f.Properties.Name,
			Geometry: f.Geometry,
		})
	}
	return features, nil
}

// GeoJSON wire types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         json.RawMessage `json:"id"` // string or number
	Properties properties      `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type properties struct {
	Name  string `json:"name"`
	ISOA3 string `json:"iso_a3"`
}

// featureID prefers the top-level id and falls back to properties.iso_a3.
func (f feature) featureID() string {
	raw := bytes.TrimSpace(f.ID)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
				return strconv.FormatInt(i, 10)
			}
		}
	}
	if f.Properties.ISOA3 != "-99" {
		return strings.TrimSpace(f.Properties.ISOA3)
	}
	return ""
}

// Source binds a Fetcher to one map URL. It implements domain.FeatureSource.
type Source struct {
	fetcher Fetcher
	url     string
}

// NewSource creates a feature source for url.
func NewSource(fetcher Fetcher, url string) *Source {
	return &Source{fetcher: fetcher, url: url}
}

// Features returns the map's features.
func (s *Source) Features(ctx context.Context) ([]domain.MapFeature, error) {
	return s.fetcher.Fetch(ctx, s.url)
}
