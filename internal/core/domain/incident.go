package domain

// OutcomeStatus is the latest recorded outcome of an incident, when known.
type OutcomeStatus struct {
	Category string `json:"category"`
	Date     string `json:"date"` // YYYY-MM
}

// IncidentRecord is a single street-level crime report. PersistentID is the
// stable identity: the same real-world incident returned by two overlapping
// grid samples carries the same PersistentID and must collapse to one record.
type IncidentRecord struct {
	PersistentID string         `json:"persistent_id"`
	Category     string         `json:"category"`
	Street       string         `json:"street"`
	Latitude     string         `json:"latitude"`
	Longitude    string         `json:"longitude"`
	Month        string         `json:"month"` // YYYY-MM
	Outcome      *OutcomeStatus `json:"outcome,omitempty"`
}

// StreetCount is one entry of a street hotspot ranking.
type StreetCount struct {
	Street string `json:"street"`
	Count  int    `json:"count"`
}

// TemporalDistribution buckets incidents over time.
type TemporalDistribution struct {
	ByMonth map[string]int `json:"by_month"`
}

// CrimeSummary is an immutable aggregate view over a deduplicated record
// set. It is computed fresh for every record set and never mutated in place.
type CrimeSummary struct {
	TotalCrimes    int                  `json:"total_crimes"`
	DateRange      string               `json:"date_range"`
	CategoryCounts map[string]int       `json:"category_counts"`
	TopStreets     []StreetCount        `json:"top_streets"`
	Temporal       TemporalDistribution `json:"temporal_distribution"`
}

// FetchProgress reports completion of an area fetch. Each fetch operation
// owns its own counter; Completed grows monotonically up to Total.
type FetchProgress struct {
	JobID     string `json:"job_id,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}
