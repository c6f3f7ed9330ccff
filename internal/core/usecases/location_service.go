package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/ports"
	"github.com/safestreets/safestreets/internal/pkg/metrics"
)

const maxSuggestions = 5

// LocationService resolves free-text queries to coordinates through a chain
// of providers: the postcode directory for precise shapes, the general
// geocoder as a catch-all. The precise provider gives rooftop/centroid
// accuracy, so it goes first; the geocoder handles everything the directory
// cannot parse.
type LocationService struct {
	postcodes ports.PostcodeDirectory
	geocoder  ports.Geocoder
	region    domain.Bounds
	cache     ports.CacheService
}

// NewLocationService creates a new LocationService. cache may be nil.
func NewLocationService(postcodes ports.PostcodeDirectory, geocoder ports.Geocoder, region domain.Bounds, cache ports.CacheService) *LocationService {
	return &LocationService{postcodes: postcodes, geocoder: geocoder, region: region, cache: cache}
}

// Resolve turns a query into a single in-region location.
// Returns domain.ErrOutOfRegion when a precise provider locates the query
// outside the serviceable bounds (hard failure, no fallthrough: the
// directory is authoritative for codes it recognises), and
// domain.ErrNotFound when no provider produces an in-region match.
func (s *LocationService) Resolve(ctx context.Context, query string) (*domain.ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	cacheKey := "loc:resolve:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var loc domain.ResolvedLocation
			if err := json.Unmarshal(data, &loc); err == nil {
				metrics.CacheHits.WithLabelValues("resolve").Inc()
				return &loc, nil
			}
		} else {
			metrics.CacheMisses.WithLabelValues("resolve").Inc()
		}
	}

	switch ClassifyQuery(query) {
	case PostcodeQuery:
		loc, err := s.postcodes.Postcode(ctx, query)
		if err == nil {
			metrics.GeocodeLookups.WithLabelValues(domain.SourcePostcode).Inc()
			return s.admit(ctx, cacheKey, loc)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Debug("postcode lookup failed, trying geocoder", "query", query, "error", err)
		}
	case OutcodeQuery:
		loc, err := s.postcodes.Outcode(ctx, query)
		if err == nil {
			metrics.GeocodeLookups.WithLabelValues(domain.SourceOutcode).Inc()
			return s.admit(ctx, cacheKey, loc)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Debug("outcode lookup failed, trying geocoder", "query", query, "error", err)
		}
	}

	results, err := s.geocoder.Search(ctx, query, 1)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	metrics.GeocodeLookups.WithLabelValues(domain.SourceGeocoder).Inc()

	// The geocoder's bounding-box constraint is advisory; re-check here.
	for i := range results {
		loc := results[i]
		if s.region.Contains(loc.Location.Lat, loc.Location.Lon) {
			s.store(ctx, cacheKey, &loc)
			return &loc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Suggest returns up to five in-region candidates for interactive use.
// Precise shapes produce at most their single authoritative hit; free text
// falls through to the geocoder.
func (s *LocationService) Suggest(ctx context.Context, query string) ([]domain.ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	switch ClassifyQuery(query) {
	case PostcodeQuery, OutcodeQuery:
		loc, err := s.Resolve(ctx, query)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []domain.ResolvedLocation{*loc}, nil
	}

	results, err := s.geocoder.Search(ctx, query, maxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	candidates := make([]domain.ResolvedLocation, 0, len(results))
	for _, loc := range results {
		if s.region.Contains(loc.Location.Lat, loc.Location.Lon) {
			candidates = append(candidates, loc)
		}
	}
	return candidates, nil
}

// admit enforces region containment on an authoritative hit.
func (s *LocationService) admit(ctx context.Context, cacheKey string, loc *domain.ResolvedLocation) (*domain.ResolvedLocation, error) {
	if !s.region.Contains(loc.Location.Lat, loc.Location.Lon) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOutOfRegion, loc.Name)
	}
	s.store(ctx, cacheKey, loc)
	return loc, nil
}

func (s *LocationService) store(ctx context.Context, key string, loc *domain.ResolvedLocation) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(loc); err == nil {
		// Postcode centroids move essentially never; a day is conservative.
		_ = s.cache.Set(ctx, key, data, 86400)
	}
}
