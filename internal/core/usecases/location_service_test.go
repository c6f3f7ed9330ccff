package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/usecases"
)

type fakeDirectory struct {
	postcodeFn func(ctx context.Context, code string) (*domain.ResolvedLocation, error)
	outcodeFn  func(ctx context.Context, code string) (*domain.ResolvedLocation, error)
}

func (f *fakeDirectory) Postcode(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
	return f.postcodeFn(ctx, code)
}

func (f *fakeDirectory) Outcode(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
	return f.outcodeFn(ctx, code)
}

type fakeGeocoder struct {
	searchFn func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error)
}

func (f *fakeGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
	return f.searchFn(ctx, query, limit)
}

func resolved(name string, lat, lon float64, source string) *domain.ResolvedLocation {
	return &domain.ResolvedLocation{Name: name, Location: domain.GeoPoint{Lat: lat, Lon: lon}, Source: source}
}

func noDirectory(t *testing.T) *fakeDirectory {
	return &fakeDirectory{
		postcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			t.Fatal("postcode directory must not be consulted")
			return nil, nil
		},
		outcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			t.Fatal("outcode directory must not be consulted")
			return nil, nil
		},
	}
}

func noGeocoder(t *testing.T) *fakeGeocoder {
	return &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		t.Fatal("geocoder must not be consulted")
		return nil, nil
	}}
}

func TestClassifyQuery(t *testing.T) {
	cases := []struct {
		query string
		want  usecases.QueryKind
	}{
		{"SW1A 1AA", usecases.PostcodeQuery},
		{"sw1a1aa", usecases.PostcodeQuery},
		{"M1 1AE", usecases.PostcodeQuery},
		{"SW1A", usecases.OutcodeQuery},
		{"m1", usecases.OutcodeQuery},
		{"EC1A", usecases.OutcodeQuery},
		{"London", usecases.FreeTextQuery},
		{"221B Baker Street", usecases.FreeTextQuery},
		{"", usecases.FreeTextQuery},
	}
	for _, c := range cases {
		if got := usecases.ClassifyQuery(c.query); got != c.want {
			t.Errorf("ClassifyQuery(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

func TestResolve_PostcodeHit(t *testing.T) {
	dir := &fakeDirectory{
		postcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			return resolved("SW1A 1AA, Westminster", 51.501, -0.1416, domain.SourcePostcode), nil
		},
	}

	svc := usecases.NewLocationService(dir, noGeocoder(t), domain.UKBounds, nil)
	loc, err := svc.Resolve(context.Background(), "SW1A 1AA")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Source != domain.SourcePostcode {
		t.Errorf("source = %s, want postcode", loc.Source)
	}
	if loc.Location.Lat != 51.501 {
		t.Errorf("lat = %f", loc.Location.Lat)
	}
}

func TestResolve_OutOfRegionIsHardFailure(t *testing.T) {
	// A recognised postcode outside the region must fail outright, never
	// fall through to the geocoder.
	dir := &fakeDirectory{
		postcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			return resolved("Somewhere distant", 48.85, 2.35, domain.SourcePostcode), nil
		},
	}

	svc := usecases.NewLocationService(dir, noGeocoder(t), domain.UKBounds, nil)
	_, err := svc.Resolve(context.Background(), "SW1A 1AA")
	if !errors.Is(err, domain.ErrOutOfRegion) {
		t.Fatalf("expected ErrOutOfRegion, got %v", err)
	}
}

func TestResolve_UnknownPostcodeFallsToGeocoder(t *testing.T) {
	dir := &fakeDirectory{
		postcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			return nil, domain.ErrNotFound
		},
	}
	geo := &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		if limit != 1 {
			t.Errorf("resolve should geocode with limit 1, got %d", limit)
		}
		return []domain.ResolvedLocation{*resolved("Fallback", 52.0, -1.0, domain.SourceGeocoder)}, nil
	}}

	svc := usecases.NewLocationService(dir, geo, domain.UKBounds, nil)
	loc, err := svc.Resolve(context.Background(), "SW1A 1AA")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Source != domain.SourceGeocoder {
		t.Errorf("source = %s, want geocoder", loc.Source)
	}
}

func TestResolve_TransientDirectoryErrorFallsToGeocoder(t *testing.T) {
	dir := &fakeDirectory{
		outcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			return nil, errors.New("upstream timeout")
		},
	}
	geo := &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		return []domain.ResolvedLocation{*resolved("SW1A district", 51.5, -0.14, domain.SourceGeocoder)}, nil
	}}

	svc := usecases.NewLocationService(dir, geo, domain.UKBounds, nil)
	loc, err := svc.Resolve(context.Background(), "SW1A")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Name != "SW1A district" {
		t.Errorf("name = %s", loc.Name)
	}
}

func TestResolve_GeocoderResultsOutsideRegionAreFiltered(t *testing.T) {
	geo := &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		return []domain.ResolvedLocation{*resolved("Paris", 48.85, 2.35, domain.SourceGeocoder)}, nil
	}}

	svc := usecases.NewLocationService(noDirectory(t), geo, domain.UKBounds, nil)
	_, err := svc.Resolve(context.Background(), "Paris")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	svc := usecases.NewLocationService(noDirectory(t), noGeocoder(t), domain.UKBounds, nil)
	if _, err := svc.Resolve(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestSuggest_FreeTextFiltersAndCaps(t *testing.T) {
	geo := &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		if limit != 5 {
			t.Errorf("suggest limit = %d, want 5", limit)
		}
		return []domain.ResolvedLocation{
			*resolved("London", 51.5, -0.12, domain.SourceGeocoder),
			*resolved("Paris", 48.85, 2.35, domain.SourceGeocoder),
			*resolved("Londonderry", 55.0, -7.3, domain.SourceGeocoder),
		}, nil
	}}

	svc := usecases.NewLocationService(noDirectory(t), geo, domain.UKBounds, nil)
	got, err := svc.Suggest(context.Background(), "London")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2 (out-of-region dropped)", len(got))
	}
	if got[0].Name != "London" || got[1].Name != "Londonderry" {
		t.Errorf("suggestions = %+v", got)
	}
}

func TestSuggest_UnknownPostcodeYieldsEmpty(t *testing.T) {
	dir := &fakeDirectory{
		postcodeFn: func(ctx context.Context, code string) (*domain.ResolvedLocation, error) {
			return nil, domain.ErrNotFound
		},
	}
	geo := &fakeGeocoder{searchFn: func(ctx context.Context, query string, limit int) ([]domain.ResolvedLocation, error) {
		return nil, nil
	}}

	svc := usecases.NewLocationService(dir, geo, domain.UKBounds, nil)
	got, err := svc.Suggest(context.Background(), "ZZ99 9ZZ")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d suggestions, want 0", len(got))
	}
}
