package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box, edges inclusive.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// UKBounds is the serviceable region. The upstream street-crime data covers
// the United Kingdom only, so every search centre must fall inside this box.
var UKBounds = Bounds{MinLat: 49.8, MinLon: -8.65, MaxLat: 60.9, MaxLon: 1.78}

// Location source identifiers, in descending order of coordinate precision.
const (
	SourcePostcode = "postcode"
	SourceOutcode  = "outcode"
	SourceGeocoder = "geocoder"
)

// ResolvedLocation is the outcome of resolving a free-text place query.
type ResolvedLocation struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Source   string   `json:"source"`
}
