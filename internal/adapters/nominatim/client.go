// Package nominatim implements ports.Geocoder against the OSM Nominatim
// search API. Nominatim requires a descriptive User-Agent and at most one
// request per second, enforced here with a client-side limiter.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/safestreets/safestreets/internal/core/domain"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Config defines settings for the geocoder.
type Config struct {
	BaseURL        string
	UserAgent      string // required by the Nominatim usage policy
	RequestsPerSec float64
	Timeout        time.Duration
	Viewbox        domain.Bounds // advisory result constraint
}

// Client is a viewbox-bounded Nominatim search client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client with sane defaults for missing config values.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

type searchResult struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Class       string `json:"class"`
}

// Search geocodes a free-text query, returning up to limit candidates.
// The viewbox restricts results to the serviceable region, but Nominatim
// treats it as a hint; callers re-filter by containment.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
	if limit <= 0 {
		limit = 1
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vb := c.cfg.Viewbox
	params := url.Values{
		"q":       {query},
		"format":  {"json"},
		"limit":   {strconv.Itoa(limit)},
		"bounded": {"1"},
		// viewbox is <min lon>,<max lat>,<max lon>,<min lat>
		"viewbox": {fmt.Sprintf("%f,%f,%f,%f", vb.MinLon, vb.MaxLat, vb.MaxLon, vb.MinLat)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: HTTP %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	locations := make([]domain.ResolvedLocation, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		locations = append(locations, domain.ResolvedLocation{
			Name:     r.DisplayName,
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
			Source:   domain.SourceGeocoder,
		})
	}
	return locations, nil
}
