package usecase

import (
	"fmt"
	"log"
	"time"

	"github.com/wallascan/backend/config"
	"github.com/wallascan/backend/internal/domain"
)

const (
	sellerPlatform  = "WALLAPOP"
	defaultCurrency = "EUR"
)

// Normalizer converts raw Wallapop API items into canonical listings,
// applying price-range validation, fuzzy keyword exclusion, and the
// optional keyword relevance check
type Normalizer struct {
	matcher     *Matcher
	itemBaseURL string
	userBaseURL string
	timezone    *time.Location
	debug       bool
}

// NewNormalizer creates a normalizer that builds permalinks from the
// configured base URLs and reports creation times in the local timezone
func NewNormalizer(matcher *Matcher, cfg config.WallapopConfig) *Normalizer {
	return &Normalizer{
		matcher:     matcher,
		itemBaseURL: cfg.ItemBaseURL,
		userBaseURL: cfg.UserBaseURL,
		timezone:    time.Local,
	}
}

// SetDebug enables per-item rejection logging
func (n *Normalizer) SetDebug(debug bool) {
	n.debug = debug
}

// Normalize converts one raw item into a Listing, or returns nil when the
// item is rejected. Rejection checks run in order and short-circuit:
// price out of range, excluded keyword, missing required fields, reserved
// flag, keyword relevance.
func (n *Normalizer) Normalize(raw domain.RawItem, req *domain.SearchRequest) *domain.Listing {
	itemID := raw.ID()
	price, hasPrice := raw.Map("price").Float("amount")

	// 1. Price range filter
	if hasPrice {
		if req.MinPrice != nil && price < *req.MinPrice {
			n.reject(itemID, "price %.2f below minimum %.2f", price, *req.MinPrice)
			return nil
		}
		if req.MaxPrice != nil && price > *req.MaxPrice {
			n.reject(itemID, "price %.2f above maximum %.2f", price, *req.MaxPrice)
			return nil
		}
	}

	title := raw.String("title")
	description := raw.String("description")

	// 2. Excluded keyword filter on the combined listing text
	if len(req.ExcludedKeywords) > 0 {
		fullText := title + " " + description
		if n.matcher.IsExcluded(fullText, req.ExcludedKeywords) {
			n.reject(itemID, "matches an excluded keyword")
			return nil
		}
	}

	// 3. Required fields
	webSlug := raw.String("web_slug")
	if itemID == "" || title == "" || webSlug == "" {
		n.reject(itemID, "missing required fields (id, title, web_slug)")
		return nil
	}

	// 4. Reserved items are already promised to another buyer
	if raw.Map("flags").Bool("reserved") {
		n.reject(itemID, "reserved")
		return nil
	}

	// 5. Keyword relevance: with keywords set, at least one must match
	// title or description at its threshold
	matchScore := 0
	matchedInDescription := false
	if len(req.Keywords) > 0 {
		found := false
		for _, kw := range req.Keywords {
			score, inDesc, ok := n.matcher.KeywordMatch(title, description, kw)
			if !ok {
				continue
			}
			found = true
			if score > matchScore {
				matchScore = score
			}
			if inDesc {
				matchedInDescription = true
			}
		}
		if !found {
			n.reject(itemID, "no keyword match above threshold")
			return nil
		}
	}

	currency := raw.Map("price").String("currency")
	if currency == "" {
		currency = defaultCurrency
	}

	listing := &domain.Listing{
		ID:                   itemID,
		SearchTerm:           req.ProductName,
		Title:                CleanDisplayText(title),
		Description:          CleanDisplayText(description),
		Price:                price,
		Currency:             currency,
		Location:             extractLocation(raw),
		Link:                 fmt.Sprintf("%s/%s", n.itemBaseURL, webSlug),
		SellerPlatform:       sellerPlatform,
		MatchScore:           matchScore,
		MatchedInDescription: matchedInDescription,
	}

	if userID := raw.String("user_id"); userID != "" {
		listing.SellerLink = fmt.Sprintf("%s/%s", n.userBaseURL, userID)
	}

	// Creation time arrives as epoch milliseconds; an unparsable or
	// missing value leaves the timestamps nil rather than dropping the item
	if ms, ok := raw.Float("created_at"); ok && ms > 0 {
		utc := time.UnixMilli(int64(ms)).UTC()
		local := utc.In(n.timezone)
		listing.CreatedAtUTC = &utc
		listing.CreatedAtLocal = &local
	}

	listing.MainImage, listing.AllImages = extractImages(raw)

	return listing
}

func (n *Normalizer) reject(itemID, format string, args ...interface{}) {
	if n.debug {
		log.Printf("[NORMALIZE] Item %s rejected: %s", itemID, fmt.Sprintf(format, args...))
	}
}

// extractLocation resolves the most specific location field available
func extractLocation(raw domain.RawItem) string {
	location := raw.Map("location")
	if city := location.String("city"); city != "" {
		return city
	}
	if region := location.String("region"); region != "" {
		return region
	}
	return location.String("country_code")
}

// imageURL picks the best resolution available for one image object
func imageURL(urls domain.RawItem) string {
	for _, size := range []string{"big", "medium", "original", "small"} {
		if u := urls.String(size); u != "" {
			return u
		}
	}
	return ""
}

// extractImages returns the main image plus every resolvable image URL
func extractImages(raw domain.RawItem) (string, []string) {
	var main string
	var all []string

	for _, entry := range raw.Slice("images") {
		img, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		u := imageURL(domain.RawItem(img).Map("urls"))
		if u == "" {
			continue
		}
		if main == "" {
			main = u
		}
		all = append(all, u)
	}

	return main, all
}
