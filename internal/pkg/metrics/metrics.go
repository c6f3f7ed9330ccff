package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safestreets",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"method", "path"})

	// Upstream acquisition metrics
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Street-crime API calls by outcome (ok, throttled, error)",
	}, []string{"outcome"})

	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "upstream",
		Name:      "retries_total",
		Help:      "Retries performed by the dispatch queue",
	})

	RecordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "upstream",
		Name:      "records_fetched_total",
		Help:      "Incident records fetched before deduplication",
	})

	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "geocoding",
		Name:      "lookups_total",
		Help:      "Location resolutions by provider (postcode, outcode, geocoder)",
	}, []string{"provider"})

	AreaFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safestreets",
		Subsystem: "fetch",
		Name:      "area_duration_seconds",
		Help:      "Wall time of complete area fetch operations",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safestreets",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreets",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
