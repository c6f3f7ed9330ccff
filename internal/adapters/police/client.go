// Package police implements ports.CrimeAPI against the data.police.uk
// street-level crime endpoint.
package police

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/safestreets/safestreets/internal/core/domain"
)

const DefaultBaseURL = "https://data.police.uk/api"

// Client is a thin, retry-free client. Retry and pacing policy live in the
// dispatch queue, never here.
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
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// streetCrime mirrors the upstream JSON shape.
type streetCrime struct {
	ID           int64  `json:"id"`
	PersistentID string `json:"persistent_id"`
	Category     string `json:"category"`
	Month        string `json:"month"`
	Location     struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		Street    struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"street"`
	} `json:"location"`
	OutcomeStatus *struct {
		Category string `json:"category"`
		Date     string `json:"date"`
	} `json:"outcome_status"`
}

// StreetCrimes fetches all crimes recorded around a coordinate for the
// given reporting month. A 404 means no data for that cell and returns an
// empty result; a 429 returns domain.ErrThrottled for the queue to retry.
func (c *Client) StreetCrimes(ctx context.Context, lat, lon float64, month string) ([]domain.IncidentRecord, error) {
	params := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lng":  {strconv.FormatFloat(lon, 'f', 6, 64)},
		"date": {month},
	}
	endpoint := fmt.Sprintf("%s/crimes-street/all-crime?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("street crimes: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No data published for this coordinate/month.
		return []domain.IncidentRecord{}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrThrottled
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("street crimes: HTTP %d", resp.StatusCode)
	}

	var raw []streetCrime
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode street crimes: %w", err)
	}

	records := make([]domain.IncidentRecord, 0, len(raw))
	for _, sc := range raw {
		records = append(records, toRecord(sc))
	}
	return records, nil
}

func toRecord(sc streetCrime) domain.IncidentRecord {
	r := domain.IncidentRecord{
		PersistentID: sc.PersistentID,
		Category:     sc.Category,
		Street:       sc.Location.Street.Name,
		Latitude:     sc.Location.Latitude,
		Longitude:    sc.Location.Longitude,
		Month:        sc.Month,
	}
	// Recent months sometimes ship without persistent ids; the numeric id
	// is stable enough to dedup within one fetch.
	if r.PersistentID == "" {
		r.PersistentID = strconv.FormatInt(sc.ID, 10)
	}
	if sc.OutcomeStatus != nil {
		r.Outcome = &domain.OutcomeStatus{
			Category: sc.OutcomeStatus.Category,
			Date:     sc.OutcomeStatus.Date,
		}
	}
	return r
}
