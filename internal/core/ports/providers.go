package ports

import (
	"context"

	"github.com/safestreets/safestreets/internal/core/domain"
)

// PostcodeDirectory resolves UK postcodes and outward codes to centroids.
// Implementations return domain.ErrNotFound when the code does not exist;
// any other error is a transient provider failure.
type PostcodeDirectory interface {
	Postcode(ctx context.Context, code string) (*domain.ResolvedLocation, error)
	Outcode(ctx context.Context, code string) (*domain.ResolvedLocation, error)
}

// Geocoder resolves free-text place names. Results are hints constrained to
// the serviceable region by the provider, but the constraint is advisory:
// callers must re-check containment themselves.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error)
}

// CrimeAPI performs a single street-crime lookup for one coordinate and
// reporting month. A 404 from upstream means "no data here" and surfaces as
// an empty slice with a nil error; an explicit throttle surfaces as
// domain.ErrThrottled. Implementations do not retry; retry policy belongs
// to the dispatch queue.
type CrimeAPI interface {
	StreetCrimes(ctx context.Context, lat, lon float64, month string) ([]domain.IncidentRecord, error)
}
