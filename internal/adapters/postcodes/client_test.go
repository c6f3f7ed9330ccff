package postcodes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safestreets/safestreets/internal/adapters/postcodes"
	"github.com/safestreets/safestreets/internal/core/domain"
)

func TestPostcode_ResolvesCentroid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Lookups use the canonical form: no spaces, uppercase.
		if r.URL.Path != "/postcodes/SW1A1AA" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200,
			"result": {
				"postcode": "SW1A 1AA",
				"outcode": "SW1A",
				"latitude": 51.501009,
				"longitude": -0.141588,
				"admin_district": "Westminster"
			}
		}`))
	}))
	defer server.Close()

	client := postcodes.New(server.URL, time.Second)
	loc, err := client.Postcode(context.Background(), "sw1a 1aa")
	if err != nil {
		t.Fatalf("Postcode: %v", err)
	}
	if loc.Name != "SW1A 1AA, Westminster" {
		t.Errorf("name = %s", loc.Name)
	}
	if loc.Location.Lat != 51.501009 || loc.Location.Lon != -0.141588 {
		t.Errorf("location = %+v", loc.Location)
	}
	if loc.Source != domain.SourcePostcode {
		t.Errorf("source = %s", loc.Source)
	}
}

func TestPostcode_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"error":"Postcode not found"}`))
	}))
	defer server.Close()

	client := postcodes.New(server.URL, time.Second)
	_, err := client.Postcode(context.Background(), "ZZ99 9ZZ")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOutcode_ResolvesAreaCentroid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/outcodes/SW1A" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200,
			"result": {
				"outcode": "SW1A",
				"latitude": 51.502,
				"longitude": -0.137,
				"admin_district": ["Westminster", "Wandsworth"]
			}
		}`))
	}))
	defer server.Close()

	client := postcodes.New(server.URL, time.Second)
	loc, err := client.Outcode(context.Background(), "sw1a")
	if err != nil {
		t.Fatalf("Outcode: %v", err)
	}
	if loc.Name != "SW1A, Westminster" {
		t.Errorf("name = %s", loc.Name)
	}
	if loc.Source != domain.SourceOutcode {
		t.Errorf("source = %s", loc.Source)
	}
}

func TestPostcode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := postcodes.New(server.URL, time.Second)
	_, err := client.Postcode(context.Background(), "SW1A 1AA")
	if err == nil {
		t.Fatal("expected error for HTTP 502")
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("server errors must not look like a missing postcode")
	}
}
