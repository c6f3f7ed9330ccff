package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/safestreets/safestreets/internal/adapters/nominatim"
	"github.com/safestreets/safestreets/internal/core/domain"
)

func TestSearch_SendsPolicyHeadersAndViewbox(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "safestreets-test/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "Camden" || q.Get("format") != "json" || q.Get("bounded") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if q.Get("limit") != "3" {
			t.Errorf("limit = %s", q.Get("limit"))
		}
		// min lon, max lat, max lon, min lat
		vb := strings.Split(q.Get("viewbox"), ",")
		if len(vb) != 4 || !strings.HasPrefix(vb[0], "-8.65") || !strings.HasPrefix(vb[1], "60.9") {
			t.Errorf("viewbox = %s", q.Get("viewbox"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"place_id": 1, "lat": "51.539", "lon": "-0.142", "display_name": "Camden Town, London", "type": "suburb", "class": "place"},
			{"place_id": 2, "lat": "not-a-number", "lon": "-0.1", "display_name": "Broken entry", "type": "suburb", "class": "place"}
		]`))
	}))
	defer server.Close()

	client := nominatim.New(nominatim.Config{
		BaseURL:        server.URL,
		UserAgent:      "safestreets-test/1.0",
		RequestsPerSec: 1000,
		Viewbox:        domain.UKBounds,
	})

	locations, err := client.Search(context.Background(), "Camden", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Entries with unparseable coordinates are dropped.
	if len(locations) != 1 {
		t.Fatalf("got %d locations, want 1", len(locations))
	}
	loc := locations[0]
	if loc.Name != "Camden Town, London" || loc.Source != domain.SourceGeocoder {
		t.Errorf("location = %+v", loc)
	}
	if loc.Location.Lat != 51.539 || loc.Location.Lon != -0.142 {
		t.Errorf("coordinates = %+v", loc.Location)
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := nominatim.New(nominatim.Config{BaseURL: server.URL, UserAgent: "t", RequestsPerSec: 1000})
	locations, err := client.Search(context.Background(), "nowhere at all", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("got %d locations, want 0", len(locations))
	}
}

func TestSearch_NonPositiveLimitDefaultsToOne(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %s, want 1", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := nominatim.New(nominatim.Config{BaseURL: server.URL, UserAgent: "t", RequestsPerSec: 1000})
	if _, err := client.Search(context.Background(), "x", 0); err != nil {
		t.Fatalf("Search: %v", err)
	}
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := nominatim.New(nominatim.Config{BaseURL: server.URL, UserAgent: "t", RequestsPerSec: 1000})
	if _, err := client.Search(context.Background(), "Camden", 1); err == nil {
		t.Fatal("expected error for HTTP 503")
	}
}
