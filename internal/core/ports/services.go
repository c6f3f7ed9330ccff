package ports

import (
	"context"

	"github.com/safestreets/safestreets/internal/core/domain"
)

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ProgressPublisher pushes fetch progress to interested subscribers
// (e.g. a WebSocket relay). Publishing is best-effort.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, progress domain.FetchProgress) error
}
