// Package postcodes implements ports.PostcodeDirectory against the keyless
// postcodes.io lookup API.
package postcodes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safestreets/safestreets/internal/core/domain"
)

const DefaultBaseURL = "https://api.postcodes.io"

// Client looks up postcode and outcode centroids.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. baseURL defaults to the public API.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type postcodeResult struct {
	Postcode      string  `json:"postcode"`
	Outcode       string  `json:"outcode"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	AdminDistrict string  `json:"admin_district"`
}

type outcodeResult struct {
	Outcode       string   `json:"outcode"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	AdminDistrict []string `json:"admin_district"`
}

// Postcode resolves a full postcode to its centroid.
// A 404 surfaces as domain.ErrNotFound.
func (c *Client) Postcode(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
	var payload struct {
		Status int             `json:"status"`
		Result *postcodeResult `json:"result"`
	}
	if err := c.get(ctx, "/postcodes/"+url.PathEscape(normalize(code)), &payload); err != nil {
		return nil, err
	}
	if payload.Result == nil {
		return nil, domain.ErrNotFound
	}

	name := payload.Result.Postcode
	if payload.Result.AdminDistrict != "" {
		name += ", " + payload.Result.AdminDistrict
	}
	return &domain.ResolvedLocation{
		Name:     name,
		Location: domain.GeoPoint{Lat: payload.Result.Latitude, Lon: payload.Result.Longitude},
		Source:   domain.SourcePostcode,
	}, nil
}

// Outcode resolves an outward code to the centroid of its area.
func (c *Client) Outcode(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
	var payload struct {
		Status int            `json:"status"`
		Result *outcodeResult `json:"result"`
	}
	if err := c.get(ctx, "/outcodes/"+url.PathEscape(normalize(code)), &payload); err != nil {
		return nil, err
	}
	if payload.Result == nil {
		return nil, domain.ErrNotFound
	}

	name := payload.Result.Outcode
	if len(payload.Result.AdminDistrict) > 0 {
		name += ", " + payload.Result.AdminDistrict[0]
	}
	return &domain.ResolvedLocation{
		Name:     name,
		Location: domain.GeoPoint{Lat: payload.Result.Latitude, Lon: payload.Result.Longitude},
		Source:   domain.SourceOutcode,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("postcode lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("postcode lookup: HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode postcode response: %w", err)
	}
	return nil
}

// normalize strips interior whitespace and uppercases, the canonical form
// the directory expects.
func normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(code, " ", ""))
}
