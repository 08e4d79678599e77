package domain

import "errors"

var (
	// ErrInvalidQuery is returned when search parameters are invalid.
	// Raised before any network activity and never retried.
	ErrInvalidQuery = errors.New("invalid search parameters")

	// ErrRequestFailed is returned when a Wallapop API request fails
	// permanently or the retry budget is exhausted
	ErrRequestFailed = errors.New("wallapop API request failed")

	// ErrMalformedResponse is returned when a response body cannot be
	// parsed or lacks the expected listings payload
	ErrMalformedResponse = errors.New("malformed wallapop API response")

	// ErrRateLimited is returned when a caller exceeds the per-IP rate limit
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
