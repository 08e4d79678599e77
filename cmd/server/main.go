package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wallascan/backend/config"
	httpDelivery "github.com/wallascan/backend/internal/delivery/http"
	"github.com/wallascan/backend/internal/infrastructure/cache"
	"github.com/wallascan/backend/internal/infrastructure/wallapop"
	"github.com/wallascan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Wallascan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Wallapop API: %s", cfg.Wallapop.BaseURL)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	wallapopClient := wallapop.NewClient(cfg.Wallapop)

	debug := cfg.Server.Environment == "development"
	if debug {
		wallapopClient.SetDebug(true)
		log.Printf("Wallapop client debug mode enabled")
	}

	// Initialize usecase layer
	matcher := usecase.NewMatcher(cfg.Matching)
	normalizer := usecase.NewNormalizer(matcher, cfg.Wallapop)
	if debug {
		normalizer.SetDebug(true)
	}

	searchService := usecase.NewSearchService(
		memoryCache,
		wallapopClient,
		normalizer,
		usecase.SearchServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: debug,
		},
	)

	log.Printf("Matching thresholds: title=%d, description=%d, excluded=%d",
		cfg.Matching.TitleThreshold,
		cfg.Matching.DescriptionThreshold,
		cfg.Matching.ExcludedThreshold)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
