package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/usecases"
	"github.com/safestreets/safestreets/internal/pkg/metrics"
)

// AreaCrimeReport is the response of a full pipeline run.
type AreaCrimeReport struct {
	Location *domain.ResolvedLocation `json:"location,omitempty"`
	Center   domain.GeoPoint          `json:"center"`
	RadiusKm float64                  `json:"radius_km"`
	Month    string                   `json:"month"`
	Summary  domain.CrimeSummary      `json:"summary"`
	Records  []domain.IncidentRecord  `json:"records,omitempty"`
}

// ResolveLocationHandler resolves a free-text query to coordinates.
func ResolveLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		loc, err := deps.Locations.Resolve(c.UserContext(), query)
		if err != nil {
			return mapDomainError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(loc)
	}
}

// SuggestLocationsHandler returns up to five candidates for a query.
func SuggestLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}

		candidates, err := deps.Locations.Suggest(c.UserContext(), query)
		if err != nil {
			return mapDomainError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(fiber.Map{"suggestions": candidates})
	}
}

// AreaCrimesHandler runs the whole pipeline: resolve (when q is given),
// grid, rate-limited fan-out, dedup, aggregate. Pass include=records to get
// the raw deduplicated records alongside the summary.
func AreaCrimesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := runAreaPipeline(c, deps)
		if err != nil {
			return err
		}
		if c.Query("include") != "records" {
			report.Records = nil
		}
		return c.JSON(report)
	}
}

// AreaReportHandler renders the same pipeline result as the deterministic
// plain-text block handed to the narrative provider.
func AreaReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := runAreaPipeline(c, deps)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("(%.4f, %.4f)", report.Center.Lat, report.Center.Lon)
		if report.Location != nil {
			name = report.Location.Name
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(usecases.RenderSummary(name, report.Summary))
	}
}

// runAreaPipeline parses the request, resolves the centre, and executes the
// fetch + aggregate pipeline with read-through caching of whole reports.
func runAreaPipeline(c *fiber.Ctx, deps *Dependencies) (*AreaCrimeReport, error) {
	ctx := c.UserContext()

	radius := c.QueryFloat("radius", 1)
	if radius <= 0 || radius > deps.MaxRadiusKm {
		return nil, errBadRequest(c, fmt.Sprintf("radius must be between 0 and %.0f km", deps.MaxRadiusKm))
	}

	var (
		center   domain.GeoPoint
		resolved *domain.ResolvedLocation
	)
	if query := c.Query("q"); query != "" {
		loc, err := deps.Locations.Resolve(ctx, query)
		if err != nil {
			return nil, mapDomainError(c, err)
		}
		resolved = loc
		center = loc.Location
	} else {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat == 0 && lon == 0 {
			return nil, errBadRequest(c, "either q or lat and lon are required")
		}
		if !deps.Region.Contains(lat, lon) {
			return nil, errOutOfRegion(c, "coordinates are outside the serviceable region")
		}
		center = domain.GeoPoint{Lat: lat, Lon: lon}
	}

	month := deps.Fetch.Month()
	cacheKey := fmt.Sprintf("crimes:area:%.4f:%.4f:%.1f:%s", center.Lat, center.Lon, radius, month)
	if deps.Cache != nil {
		if data, err := deps.Cache.Get(ctx, cacheKey); err == nil {
			var cached AreaCrimeReport
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("area").Inc()
				cached.Location = resolved
				return &cached, nil
			}
		} else {
			metrics.CacheMisses.WithLabelValues("area").Inc()
		}
	}

	records, err := deps.Fetch.FetchArea(ctx, center, radius, nil)
	if err != nil {
		return nil, mapDomainError(c, err)
	}

	report := &AreaCrimeReport{
		Location: resolved,
		Center:   center,
		RadiusKm: radius,
		Month:    month,
		Summary:  usecases.Aggregate(records),
		Records:  records,
	}

	if deps.Cache != nil {
		if data, err := json.Marshal(report); err == nil {
			// Upstream data only changes on monthly publication.
			_ = deps.Cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return report, nil
}
