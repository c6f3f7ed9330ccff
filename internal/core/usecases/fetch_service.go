package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/ports"
	"github.com/safestreets/safestreets/internal/pkg/dispatch"
	"github.com/safestreets/safestreets/internal/pkg/geospatial"
	"github.com/safestreets/safestreets/internal/pkg/metrics"
)

// Submitter is the slice of the dispatch queue the orchestrator needs.
type Submitter interface {
	Submit(ctx context.Context, req dispatch.Request) ([]domain.IncidentRecord, error)
}

// ProgressFunc receives completion updates during an area fetch. It is
// called exactly once per sample point, in settlement order.
type ProgressFunc func(completed, total int)

// FetchService fans an area fetch out over the sampling grid, drives every
// sample through the shared rate-limited queue, and merges the partial
// results into one deduplicated record set.
type FetchService struct {
	queue     Submitter
	progress  ports.ProgressPublisher // optional, may be nil
	lagMonths int
	now       func() time.Time
}

// NewFetchService creates a FetchService. publisher may be nil.
// lagMonths is the upstream publication lag; data for the current month is
// never available yet.
func NewFetchService(queue Submitter, publisher ports.ProgressPublisher, lagMonths int) *FetchService {
	return &FetchService{
		queue:     queue,
		progress:  publisher,
		lagMonths: lagMonths,
		now:       time.Now,
	}
}

// ReportingMonth returns the most recent month with published data as
// YYYY-MM: the month of t rolled back by lagMonths with correct year
// rollover. Day-of-month never matters.
func ReportingMonth(t time.Time, lagMonths int) string {
	year, month := t.Year(), int(t.Month())
	month -= lagMonths
	for month <= 0 {
		month += 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Month returns the reporting month the next FetchArea call will target.
func (s *FetchService) Month() string {
	return ReportingMonth(s.now(), s.lagMonths)
}

// FetchArea fetches and deduplicates all incidents within radiusKm of
// center for the current reporting month. onProgress may be nil.
//
// All samples enter the shared queue immediately; the queue executes them
// serially. If any sample ultimately fails, the whole operation fails and
// the remaining queued samples are abandoned; partial results are never
// reported as success.
func (s *FetchService) FetchArea(ctx context.Context, center domain.GeoPoint, radiusKm float64, onProgress ProgressFunc) ([]domain.IncidentRecord, error) {
	grid := geospatial.SampleDisc(center, radiusKm)
	if len(grid) == 0 {
		return nil, fmt.Errorf("radius must be positive, got %.2f", radiusKm)
	}

	month := s.Month()
	jobID := uuid.NewString()
	total := len(grid)
	started := time.Now()

	slog.Info("area fetch starting",
		"job_id", jobID, "lat", center.Lat, "lon", center.Lon,
		"radius_km", radiusKm, "month", month, "samples", total)

	var (
		mu        sync.Mutex
		completed int
	)
	perSample := make([][]domain.IncidentRecord, total)

	eg, egCtx := errgroup.WithContext(ctx)
	for i, point := range grid {
		i, point := i, point
		eg.Go(func() error {
			records, err := s.queue.Submit(egCtx, dispatch.Request{
				Lat:   point.Lat,
				Lon:   point.Lon,
				Month: month,
			})
			if err != nil {
				return fmt.Errorf("sample (%.4f, %.4f): %w", point.Lat, point.Lon, err)
			}

			mu.Lock()
			perSample[i] = records
			completed++
			done := completed
			mu.Unlock()

			if onProgress != nil {
				onProgress(done, total)
			}
			s.publish(egCtx, domain.FetchProgress{JobID: jobID, Completed: done, Total: total})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Warn("area fetch failed", "job_id", jobID, "error", err)
		return nil, err
	}

	merged := dedupe(perSample)
	metrics.AreaFetchDuration.Observe(time.Since(started).Seconds())
	slog.Info("area fetch complete",
		"job_id", jobID, "samples", total,
		"records", len(merged), "elapsed", time.Since(started).String())
	return merged, nil
}

// dedupe merges per-sample result lists in grid order, keeping the first
// occurrence of each persistent id. Duplicates are expected where adjacent
// grid cells overlap.
func dedupe(perSample [][]domain.IncidentRecord) []domain.IncidentRecord {
	seen := make(map[string]struct{})
	merged := make([]domain.IncidentRecord, 0)
	for _, records := range perSample {
		for _, r := range records {
			if _, dup := seen[r.PersistentID]; dup {
				continue
			}
			seen[r.PersistentID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

func (s *FetchService) publish(ctx context.Context, progress domain.FetchProgress) {
	if s.progress == nil {
		return
	}
	if err := s.progress.PublishProgress(ctx, progress); err != nil {
		slog.Debug("progress publish failed", "job_id", progress.JobID, "error", err)
	}
}
