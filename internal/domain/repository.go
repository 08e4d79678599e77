package domain

import (
	"context"
	"time"
)

// ItemFunc consumes one raw item from a paginated fetch. Returning false
// stops pagination early; returning an error aborts it.
type ItemFunc func(item RawItem) (bool, error)

// FetchParams describes one paginated search against the Wallapop API
type FetchParams struct {
	ProductName string
	MinPrice    *float64
	MaxPrice    *float64
	OrderBy     string
	TimeFilter  string
}

// ItemFetcher defines the interface for streaming raw listings out of the
// Wallapop search API. Items are delivered in API order, one page at a
// time, page N+1 never requested before page N is fully consumed.
type ItemFetcher interface {
	FetchItems(ctx context.Context, params FetchParams, yield ItemFunc) error
}

// CacheRepository defines the interface for caching search results
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]Listing, error)
	Set(ctx context.Context, key string, listings []Listing, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
