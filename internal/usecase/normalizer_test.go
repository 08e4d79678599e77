package usecase

import (
	"testing"
	"time"

	"github.com/wallascan/backend/config"
	"github.com/wallascan/backend/internal/domain"
)

func newTestNormalizer() *Normalizer {
	matcher := NewMatcher(config.MatchingConfig{})
	return NewNormalizer(matcher, config.WallapopConfig{
		ItemBaseURL: "https://es.wallapop.com/item",
		UserBaseURL: "https://es.wallapop.com/user",
	})
}

func completeRawItem() domain.RawItem {
	return domain.RawItem{
		"id":          "item-1",
		"title":       "iPhone 15 Pro 128GB",
		"description": "Como nuevo, con caja original",
		"web_slug":    "iphone-15-pro-128gb-12345",
		"user_id":     "user-9",
		"created_at":  float64(1700000000000),
		"price": map[string]interface{}{
			"amount":   float64(650),
			"currency": "EUR",
		},
		"location": map[string]interface{}{
			"city":         "Madrid",
			"region":       "Comunidad de Madrid",
			"country_code": "ES",
		},
		"flags": map[string]interface{}{
			"reserved": false,
		},
		"images": []interface{}{
			map[string]interface{}{
				"urls": map[string]interface{}{
					"big":   "https://cdn.example.com/1/big.jpg",
					"small": "https://cdn.example.com/1/small.jpg",
				},
			},
			map[string]interface{}{
				"urls": map[string]interface{}{
					"medium": "https://cdn.example.com/2/medium.jpg",
				},
			},
		},
	}
}

func TestNormalize_CompleteItem(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	listing := n.Normalize(completeRawItem(), req)
	if listing == nil {
		t.Fatal("Normalize() = nil, want listing")
	}

	if listing.ID != "item-1" {
		t.Errorf("ID = %q, want item-1", listing.ID)
	}
	if listing.SearchTerm != "iPhone 15" {
		t.Errorf("SearchTerm = %q, want iPhone 15", listing.SearchTerm)
	}
	if listing.Title != "iPhone 15 Pro 128GB" {
		t.Errorf("Title = %q", listing.Title)
	}
	if listing.Price != 650 {
		t.Errorf("Price = %v, want 650", listing.Price)
	}
	if listing.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", listing.Currency)
	}
	if listing.Location != "Madrid" {
		t.Errorf("Location = %q, want Madrid", listing.Location)
	}
	if listing.Link != "https://es.wallapop.com/item/iphone-15-pro-128gb-12345" {
		t.Errorf("Link = %q", listing.Link)
	}
	if listing.SellerLink != "https://es.wallapop.com/user/user-9" {
		t.Errorf("SellerLink = %q", listing.SellerLink)
	}
	if listing.SellerPlatform != "WALLAPOP" {
		t.Errorf("SellerPlatform = %q, want WALLAPOP", listing.SellerPlatform)
	}
	if listing.MainImage != "https://cdn.example.com/1/big.jpg" {
		t.Errorf("MainImage = %q", listing.MainImage)
	}
	if len(listing.AllImages) != 2 {
		t.Errorf("AllImages count = %d, want 2", len(listing.AllImages))
	}

	if listing.CreatedAtUTC == nil {
		t.Fatal("CreatedAtUTC = nil, want value")
	}
	wantUTC := time.UnixMilli(1700000000000).UTC()
	if !listing.CreatedAtUTC.Equal(wantUTC) {
		t.Errorf("CreatedAtUTC = %v, want %v", listing.CreatedAtUTC, wantUTC)
	}
	if listing.CreatedAtLocal == nil {
		t.Fatal("CreatedAtLocal = nil, want value")
	}
	if !listing.CreatedAtLocal.Equal(wantUTC) {
		t.Error("CreatedAtLocal and CreatedAtUTC should be the same instant")
	}
}

func TestNormalize_PriceOutOfRange(t *testing.T) {
	n := newTestNormalizer()
	minPrice := 100.0
	maxPrice := 500.0

	tests := []struct {
		name   string
		amount float64
		want   bool // accepted
	}{
		{"below minimum", 50, false},
		{"at minimum", 100, true},
		{"inside range", 300, true},
		{"at maximum", 500, true},
		{"above maximum", 650, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := completeRawItem()
			raw["price"] = map[string]interface{}{"amount": tt.amount, "currency": "EUR"}
			req := &domain.SearchRequest{
				ProductName: "iPhone 15",
				MinPrice:    &minPrice,
				MaxPrice:    &maxPrice,
			}

			listing := n.Normalize(raw, req)
			if (listing != nil) != tt.want {
				t.Errorf("Normalize() accepted = %v, want %v", listing != nil, tt.want)
			}
		})
	}
}

func TestNormalize_MissingPriceSurvivesBounds(t *testing.T) {
	n := newTestNormalizer()
	raw := completeRawItem()
	delete(raw, "price")

	minPrice := 100.0
	req := &domain.SearchRequest{ProductName: "iPhone 15", MinPrice: &minPrice}

	listing := n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil, want listing with zero price")
	}
	if listing.Price != 0 {
		t.Errorf("Price = %v, want 0", listing.Price)
	}
	if listing.Currency != "EUR" {
		t.Errorf("Currency = %q, want default EUR", listing.Currency)
	}
}

func TestNormalize_ExcludedKeyword(t *testing.T) {
	n := newTestNormalizer()
	raw := completeRawItem()
	raw["title"] = "iPhone 15 rotto schermo"

	req := &domain.SearchRequest{
		ProductName:      "iPhone 15",
		ExcludedKeywords: []string{"rotto"},
	}

	if listing := n.Normalize(raw, req); listing != nil {
		t.Errorf("Normalize() = %+v, want nil for excluded keyword", listing)
	}
}

func TestNormalize_ExcludedKeywordInDescription(t *testing.T) {
	n := newTestNormalizer()
	raw := completeRawItem()
	raw["description"] = "pantalla rota, para piezas"

	req := &domain.SearchRequest{
		ProductName:      "iPhone 15",
		ExcludedKeywords: []string{"rota"},
	}

	if listing := n.Normalize(raw, req); listing != nil {
		t.Error("Normalize() accepted an item whose description matches an excluded keyword")
	}
}

func TestNormalize_MissingRequiredFields(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	tests := []struct {
		name  string
		field string
	}{
		{"missing id", "id"},
		{"missing title", "title"},
		{"missing web_slug", "web_slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := completeRawItem()
			delete(raw, tt.field)
			if listing := n.Normalize(raw, req); listing != nil {
				t.Errorf("Normalize() accepted item with %s missing", tt.field)
			}
		})
	}
}

func TestNormalize_ReservedRejected(t *testing.T) {
	n := newTestNormalizer()
	raw := completeRawItem()
	raw["flags"] = map[string]interface{}{"reserved": true}

	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	if listing := n.Normalize(raw, req); listing != nil {
		t.Error("Normalize() accepted a reserved item")
	}
}

func TestNormalize_KeywordRelevance(t *testing.T) {
	n := newTestNormalizer()

	t.Run("keyword matches in title", func(t *testing.T) {
		req := &domain.SearchRequest{
			ProductName: "iPhone 15",
			Keywords:    []string{"iphone"},
		}
		listing := n.Normalize(completeRawItem(), req)
		if listing == nil {
			t.Fatal("Normalize() = nil, want listing")
		}
		if listing.MatchScore < 75 {
			t.Errorf("MatchScore = %d, want >= 75", listing.MatchScore)
		}
		if listing.MatchedInDescription {
			t.Error("MatchedInDescription = true, want false")
		}
	})

	t.Run("no keyword matches", func(t *testing.T) {
		req := &domain.SearchRequest{
			ProductName: "iPhone 15",
			Keywords:    []string{"lavadora"},
		}
		if listing := n.Normalize(completeRawItem(), req); listing != nil {
			t.Error("Normalize() accepted item with no keyword match")
		}
	})

	t.Run("no keywords matches everything", func(t *testing.T) {
		req := &domain.SearchRequest{ProductName: "iPhone 15"}
		if listing := n.Normalize(completeRawItem(), req); listing == nil {
			t.Error("Normalize() = nil with empty keyword list, want listing")
		}
	})
}

func TestNormalize_UnparsableTimestamp(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	raw := completeRawItem()
	raw["created_at"] = "not-a-timestamp"

	listing := n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil, want listing without timestamps")
	}
	if listing.CreatedAtUTC != nil || listing.CreatedAtLocal != nil {
		t.Error("timestamps should be nil when created_at is unparsable")
	}
}

func TestNormalize_LocationFallback(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	raw := completeRawItem()
	raw["location"] = map[string]interface{}{"region": "Andalucía", "country_code": "ES"}
	listing := n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil")
	}
	if listing.Location != "Andalucía" {
		t.Errorf("Location = %q, want Andalucía", listing.Location)
	}

	raw["location"] = map[string]interface{}{"country_code": "ES"}
	listing = n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil")
	}
	if listing.Location != "ES" {
		t.Errorf("Location = %q, want ES", listing.Location)
	}
}

func TestNormalize_NumericID(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	raw := completeRawItem()
	raw["id"] = float64(987654321)

	listing := n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil, want listing")
	}
	if listing.ID != "987654321" {
		t.Errorf("ID = %q, want 987654321", listing.ID)
	}
}

func TestNormalize_CleansOutputText(t *testing.T) {
	n := newTestNormalizer()
	req := &domain.SearchRequest{ProductName: "iPhone 15"}

	raw := completeRawItem()
	raw["title"] = "iPhone 15\tPro   128GB"
	raw["description"] = "linea uno\x00linea dos"

	listing := n.Normalize(raw, req)
	if listing == nil {
		t.Fatal("Normalize() = nil")
	}
	if listing.Title != "iPhone 15 Pro 128GB" {
		t.Errorf("Title = %q", listing.Title)
	}
	if listing.Description != "linea uno linea dos" {
		t.Errorf("Description = %q", listing.Description)
	}
}
