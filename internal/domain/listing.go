package domain

import "time"

// Sort orders accepted by the Wallapop search API
const (
	OrderNewest         = "newest"
	OrderPriceLowToHigh = "price_low_to_high"
	OrderPriceHighToLow = "price_high_to_low"
)

// Time filters accepted by the Wallapop search API
const (
	TimeFilterToday     = "today"
	TimeFilterLastWeek  = "lastWeek"
	TimeFilterLastMonth = "lastMonth"
)

// AllowedOrderBy lists the valid sort orders; anything else falls back to newest
var AllowedOrderBy = []string{OrderNewest, OrderPriceLowToHigh, OrderPriceHighToLow}

// SearchRequest represents one marketplace search invocation
type SearchRequest struct {
	ProductName      string   `json:"productName" binding:"required"`
	Keywords         []string `json:"keywords,omitempty"`
	MinPrice         *float64 `json:"minPrice,omitempty"`
	MaxPrice         *float64 `json:"maxPrice,omitempty"`
	ExcludedKeywords []string `json:"excludedKeywords,omitempty"`
	MaxTotalItems    int      `json:"maxTotalItems,omitempty"`
	OrderBy          string   `json:"orderBy,omitempty"`
	TimeFilter       string   `json:"timeFilter,omitempty"`
}

// Listing is a normalized marketplace item returned to the caller.
// Built once per raw item and immutable afterwards.
type Listing struct {
	ID                   string     `json:"id"`
	SearchTerm           string     `json:"searchTerm"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Price                float64    `json:"price"`
	Currency             string     `json:"currency"`
	Location             string     `json:"location,omitempty"`
	Link                 string     `json:"link"`
	CreatedAtUTC         *time.Time `json:"createdAtUtc,omitempty"`
	CreatedAtLocal       *time.Time `json:"createdAtLocal,omitempty"`
	SellerPlatform       string     `json:"sellerPlatform"`
	SellerLink           string     `json:"sellerLink,omitempty"`
	MainImage            string     `json:"mainImage,omitempty"`
	AllImages            []string   `json:"allImages,omitempty"`
	MatchScore           int        `json:"matchScore"`
	MatchedInDescription bool       `json:"matchedInDescription"`
}

// SearchResult wraps the listings returned for one search
type SearchResult struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	Listings []Listing `json:"listings"`
	Source   string    `json:"source"` // "Wallapop" or "Cache"
}
