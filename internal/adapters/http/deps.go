package http

import (
	"github.com/nats-io/nats.go"

	"github.com/safestreets/safestreets/internal/adapters/valkey"
	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locations *usecases.LocationService
	Fetch     *usecases.FetchService
	Region    domain.Bounds
	// MaxRadiusKm caps the disc a single request may fan out over.
	MaxRadiusKm float64
	NATS        *nats.Conn
	Cache       *valkey.Cache
}
