package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/azure/hn-reader/internal/brain"
	"github.com/azure/hn-reader/internal/config"
	"github.com/azure/hn-reader/internal/feed"
	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/navigation"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/storage"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🧪 HN Reader - Local Integration Test")
	fmt.Println("=====================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Preferences stay in memory so the walkthrough leaves nothing behind
	prefs := storage.LoadPreferences(storage.NewMemoryStorage(), cfg.DefaultLanguage)

	policy := sources.RetryPolicy{Attempts: uint(cfg.RetryAttempts), Delay: cfg.RetryDelay}
	items := sources.NewHackerNewsClient(cfg.HNAPIURL, cfg.HTTPTimeout, policy)
	search := sources.NewAlgoliaClient(cfg.HNSearchURL, cfg.HTTPTimeout, policy, cfg.UserHitsPerPage, cfg.JobHitsPerPage)

	providers := brain.NewProviderManager(
		brain.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel),
		brain.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	)
	providers.SetPreferred(cfg.GenAIProvider)
	gateway := translation.NewGateway(translation.NewCache(), providers, cfg.GenAIRequestsPerS)

	pager := feed.NewPager(items, search, prefs, cfg.PageSize)
	nav := navigation.New(items, search, gateway, prefs, pager, navigation.LayoutExpanded)

	fmt.Println("⏱️  This will call the real APIs and may take 30-60 seconds...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\n🔸 Loading top stories...")
	if err := nav.SwitchFeed(ctx, models.FeedTop); err != nil {
		log.Fatalf("   ❌ Error: %v", err)
	}
	snap := nav.Snapshot()
	fmt.Printf("   ✅ %d of %d stories, has more: %v\n", len(snap.Feed.Items), snap.Feed.Total, snap.Feed.HasMore)

	fmt.Println("\n🔸 Loading the next page...")
	added, err := nav.LoadMore(ctx)
	if err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
	} else {
		fmt.Printf("   ✅ %d more stories\n", len(added))
	}

	snap = nav.Snapshot()
	if snap.Story == nil {
		fmt.Println("   ⚠️  Nothing was auto-selected")
		return
	}
	fmt.Printf("\n🔸 Selected: %q (%s)\n", snap.Story.Title.Display(), snap.Story.Domain)

	fetched, err := nav.LoadComments(ctx)
	if err != nil {
		fmt.Printf("   ❌ Comments error: %v\n", err)
	} else {
		fmt.Printf("   ✅ Fetched %d comment nodes, %d visible\n", fetched, len(nav.Snapshot().Story.Comments))
	}

	if len(providers.ListAvailable()) == 0 {
		fmt.Println("\n⚠️  No text-generation provider configured, skipping translation and summary")
	} else {
		fmt.Printf("\n🔸 Translating title into %s...\n", prefs.Language())
		title, _ := nav.ToggleTitleTranslation(ctx)
		fmt.Printf("   📝 %s\n", title.Display())

		fmt.Println("\n🔸 Summarizing...")
		summary, _ := nav.Summarize(ctx)
		fmt.Printf("   📝 %s\n", summary)
	}

	fmt.Println("\n🔸 Saving the story and opening favorites...")
	if _, err := nav.ToggleFavorite(snap.Story.Story.ID); err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
	}
	if err := nav.SwitchFeed(ctx, models.FeedFavorites); err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
	} else {
		fmt.Printf("   ✅ %d saved stories\n", len(nav.Snapshot().Feed.Items))
	}

	fmt.Println("\n🔸 Loading jobs...")
	if err := nav.SwitchFeed(ctx, models.FeedJob); err != nil {
		fmt.Printf("   ❌ Error: %v\n", err)
	} else {
		fmt.Printf("   ✅ %d jobs\n", len(nav.Snapshot().Feed.Items))
	}

	stats := gateway.Stats()
	fmt.Printf("\n📊 Generation requests: %d (failures: %d), cached translations: %d, summaries: %d\n",
		stats.Requests, stats.Failures, stats.Cache.Translations, stats.Cache.Summaries)

	fmt.Println("\n✅ Local integration test completed!")
}
