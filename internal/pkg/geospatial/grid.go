package geospatial

import (
	"math"

	"github.com/safestreets/safestreets/internal/core/domain"
)

// Degree deltas per kilometer, calibrated for the UK latitude band.
// Longitude degrees shrink with latitude, so the two differ; the values are
// fixed rather than recomputed per call.
const (
	latDegreesPerKm = 0.0089
	lonDegreesPerKm = 0.0147
)

// SampleDisc tiles the disc around center into a lattice of sample points,
// one per upstream query. Candidates come from a square grid with ceil(r)
// steps per side and are kept when their great-circle distance from the
// center is within radiusKm. The center itself is always included for any
// positive radius; a non-positive radius yields no points.
func SampleDisc(center domain.GeoPoint, radiusKm float64) []domain.GeoPoint {
	if radiusKm <= 0 {
		return nil
	}

	steps := int(math.Ceil(radiusKm))
	points := make([]domain.GeoPoint, 0, (2*steps+1)*(2*steps+1))

	for latStep := -steps; latStep <= steps; latStep++ {
		for lonStep := -steps; lonStep <= steps; lonStep++ {
			candidate := domain.GeoPoint{
				Lat: center.Lat + float64(latStep)*latDegreesPerKm,
				Lon: center.Lon + float64(lonStep)*lonDegreesPerKm,
			}
			if Haversine(center.Lat, center.Lon, candidate.Lat, candidate.Lon) <= radiusKm {
				points = append(points, candidate)
			}
		}
	}

	return points
}
