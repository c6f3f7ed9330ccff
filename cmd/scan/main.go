// Command scan runs the full pipeline once from the terminal:
// resolve a place, fetch crimes for the surrounding area, print the
// aggregate summary.
//
//	scan -q "SW1A 1AA" -radius 2
//	scan -q "Leeds" -radius 1 -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safestreets/safestreets/internal/adapters/nominatim"
	"github.com/safestreets/safestreets/internal/adapters/police"
	"github.com/safestreets/safestreets/internal/adapters/postcodes"
	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/usecases"
	"github.com/safestreets/safestreets/internal/pkg/config"
	"github.com/safestreets/safestreets/internal/pkg/dispatch"
	"github.com/safestreets/safestreets/internal/pkg/logging"
)

func main() {
	query := flag.String("q", "", "place to search: postcode, outcode, or free text")
	radius := flag.Float64("radius", 1, "search radius in kilometers")
	asJSON := flag.Bool("json", false, "emit the summary as JSON instead of text")
	flag.Parse()

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("safestreets-scan")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("warn", "text")

	if *radius <= 0 || *radius > cfg.Police.MaxRadiusKm {
		log.Fatalf("radius must be between 0 and %.0f km", cfg.Police.MaxRadiusKm)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	region := domain.Bounds{
		MinLat: cfg.Region.MinLat,
		MaxLat: cfg.Region.MaxLat,
		MinLon: cfg.Region.MinLon,
		MaxLon: cfg.Region.MaxLon,
	}

	postcodeDir := postcodes.New(cfg.Geocoding.PostcodesBaseURL, time.Duration(cfg.Geocoding.TimeoutSec)*time.Second)
	geocoder := nominatim.New(nominatim.Config{
		BaseURL:        cfg.Geocoding.NominatimBaseURL,
		UserAgent:      cfg.Geocoding.UserAgent,
		RequestsPerSec: cfg.Geocoding.RatePerSec,
		Timeout:        time.Duration(cfg.Geocoding.TimeoutSec) * time.Second,
		Viewbox:        region,
	})
	crimeAPI := police.New(cfg.Police.BaseURL, time.Duration(cfg.Police.TimeoutSec)*time.Second)

	queue := dispatch.New(crimeAPI, dispatch.Config{
		MinInterval: cfg.Police.MinInterval(),
		Cooldown:    cfg.Police.Cooldown(),
		BackoffStep: cfg.Police.BackoffStep(),
		MaxAttempts: cfg.Police.MaxAttempts,
	})
	go queue.Run(ctx)

	locations := usecases.NewLocationService(postcodeDir, geocoder, region, nil)
	fetcher := usecases.NewFetchService(queue, nil, cfg.Police.LagMonths)

	loc, err := locations.Resolve(ctx, *query)
	if err != nil {
		log.Fatalf("resolve %q: %v", *query, err)
	}
	fmt.Fprintf(os.Stderr, "resolved %q to %s (%.4f, %.4f)\n",
		*query, loc.Name, loc.Location.Lat, loc.Location.Lon)

	records, err := fetcher.FetchArea(ctx, loc.Location, *radius, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\rfetching %d/%d", completed, total)
		if completed == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		log.Fatalf("fetch area: %v", err)
	}

	summary := usecases.Aggregate(records)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			log.Fatalf("encode summary: %v", err)
		}
		return
	}

	fmt.Print(usecases.RenderSummary(loc.Name, summary))
}
