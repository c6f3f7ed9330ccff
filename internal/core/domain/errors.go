package domain

import "errors"

// Error taxonomy for the acquisition pipeline. Callers match with errors.Is
// and map each sentinel to a distinct user-visible outcome.
var (
	// ErrOutOfRegion means a query resolved to coordinates outside the
	// serviceable bounds. Never retried, always surfaced.
	ErrOutOfRegion = errors.New("location is outside the serviceable region")

	// ErrNotFound means no geocoding provider produced a usable match.
	ErrNotFound = errors.New("no matching location found")

	// ErrThrottled is a single explicit 429 from an upstream. It is a retry
	// signal internal to the dispatch queue, not a terminal failure.
	ErrThrottled = errors.New("upstream throttled the request")

	// ErrRateLimited means upstream throttling survived every retry.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrFetchFailed means a network or server error survived every retry.
	ErrFetchFailed = errors.New("upstream fetch failed")
)
