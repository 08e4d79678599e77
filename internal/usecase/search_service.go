package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wallascan/backend/internal/domain"
)

const defaultMaxTotalItems = 100

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// SearchService orchestrates one marketplace search: validate the query,
// stream raw items out of the fetcher, normalize and filter each one, and
// stop as soon as enough listings are accepted
type SearchService struct {
	cache      domain.CacheRepository
	fetcher    domain.ItemFetcher
	normalizer *Normalizer
	cacheTTL   time.Duration
	debug      bool
}

// NewSearchService creates a search service with its dependencies
func NewSearchService(
	cache domain.CacheRepository,
	fetcher domain.ItemFetcher,
	normalizer *Normalizer,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &SearchService{
		cache:      cache,
		fetcher:    fetcher,
		normalizer: normalizer,
		cacheTTL:   cacheTTL,
		debug:      config.EnableDebugLogging,
	}
}

// Search runs one search and returns the matching listings in API order.
// No matching listings is a normal empty result, not an error.
func (s *SearchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	maxItems := req.MaxTotalItems
	if maxItems == 0 {
		maxItems = defaultMaxTotalItems
	}

	cacheKey := generateCacheKey(req, maxItems)

	// Try cache first
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if s.debug {
			log.Printf("[SEARCH] Cache hit for %q (%d listings)", req.ProductName, len(cached))
		}
		return &domain.SearchResult{
			Query:    req.ProductName,
			Count:    len(cached),
			Listings: cached,
			Source:   "Cache",
		}, nil
	}

	listings := make([]domain.Listing, 0, maxItems)
	seen := make(map[string]bool)
	rawCount := 0

	params := domain.FetchParams{
		ProductName: req.ProductName,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		OrderBy:     req.OrderBy,
		TimeFilter:  req.TimeFilter,
	}

	err := s.fetcher.FetchItems(ctx, params, func(item domain.RawItem) (bool, error) {
		rawCount++

		id := item.ID()
		if id != "" && seen[id] {
			return rawCount < maxItems, nil
		}
		if id != "" {
			seen[id] = true
		}

		if listing := s.normalizer.Normalize(item, req); listing != nil {
			listings = append(listings, *listing)
		}

		// Keep consuming while both the raw-candidate budget and the
		// accepted-listing cap still have room
		return rawCount < maxItems && len(listings) < maxItems, nil
	})
	if err != nil {
		return nil, err
	}

	if s.debug {
		log.Printf("[SEARCH] %q: %d of %d raw items accepted", req.ProductName, len(listings), rawCount)
	}

	if err := s.cache.Set(ctx, cacheKey, listings, s.cacheTTL); err != nil {
		// A cache write failure never fails the search
		log.Printf("[SEARCH] Failed to cache results for %q: %v", req.ProductName, err)
	}

	return &domain.SearchResult{
		Query:    req.ProductName,
		Count:    len(listings),
		Listings: listings,
		Source:   "Wallapop",
	}, nil
}

// validateRequest enforces query invariants before any network activity
func validateRequest(req *domain.SearchRequest) error {
	if req == nil || strings.TrimSpace(req.ProductName) == "" {
		return fmt.Errorf("%w: product name cannot be empty", domain.ErrInvalidQuery)
	}
	if req.MinPrice != nil && *req.MinPrice < 0 {
		return fmt.Errorf("%w: min price cannot be negative", domain.ErrInvalidQuery)
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return fmt.Errorf("%w: min price %.2f exceeds max price %.2f", domain.ErrInvalidQuery, *req.MinPrice, *req.MaxPrice)
	}
	if req.MaxTotalItems < 0 {
		return fmt.Errorf("%w: max total items must be positive", domain.ErrInvalidQuery)
	}
	return nil
}

// generateCacheKey builds a normalized cache key covering every parameter
// that affects the result set
func generateCacheKey(req *domain.SearchRequest, maxItems int) string {
	parts := []string{
		"search",
		CleanText(req.ProductName),
		CleanText(strings.Join(req.Keywords, " ")),
		CleanText(strings.Join(req.ExcludedKeywords, " ")),
		req.OrderBy,
		req.TimeFilter,
		fmt.Sprintf("%d", maxItems),
	}
	if req.MinPrice != nil {
		parts = append(parts, fmt.Sprintf("min%.2f", *req.MinPrice))
	}
	if req.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("max%.2f", *req.MaxPrice))
	}
	return strings.Join(parts, ":")
}
