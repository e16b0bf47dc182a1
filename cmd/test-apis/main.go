package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/azure/hn-reader/internal/brain"
	"github.com/azure/hn-reader/internal/config"
	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func main() {
	fmt.Println(cyan("HN Reader - API Connectivity Test"))
	fmt.Println("=================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	policy := sources.RetryPolicy{Attempts: uint(cfg.RetryAttempts), Delay: cfg.RetryDelay}
	items := sources.NewHackerNewsClient(cfg.HNAPIURL, cfg.HTTPTimeout, policy)
	search := sources.NewAlgoliaClient(cfg.HNSearchURL, cfg.HTTPTimeout, policy, cfg.UserHitsPerPage, cfg.JobHitsPerPage)

	fmt.Println("\nTesting upstream APIs...")
	fmt.Println(strings.Repeat("-", 40))

	check("Item-tree id list", func() (string, error) {
		ids, err := items.FetchIDList(ctx, models.FeedTop)
		if err != nil {
			return "", err
		}
		if len(ids) == 0 {
			return "", fmt.Errorf("empty id list")
		}
		story := items.FetchItem(ctx, ids[0])
		if story == nil {
			return fmt.Sprintf("%d ids, first item missing", len(ids)), nil
		}
		return fmt.Sprintf("%d ids, top: %q", len(ids), story.Headline()), nil
	})

	check("Item-tree user", func() (string, error) {
		user := items.FetchUser(ctx, "pg")
		if user == nil {
			return "", fmt.Errorf("user pg not found")
		}
		return fmt.Sprintf("pg has %d karma", user.Karma), nil
	})

	check("Search by author", func() (string, error) {
		hits, err := search.SearchByAuthor(ctx, "pg", models.TypeStory, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d stories", len(hits)), nil
	})

	check("Search jobs", func() (string, error) {
		jobs, err := search.SearchJobsByPage(ctx, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d jobs on page 0", len(jobs)), nil
	})

	fmt.Println("\nTesting text-generation providers...")
	fmt.Println(strings.Repeat("-", 40))

	testProvider(ctx, brain.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel))
	testProvider(ctx, brain.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel))

	fmt.Println(green("\nAPI connectivity test completed!"))
}

func check(name string, fn func() (string, error)) {
	fmt.Printf("Testing %s... ", name)
	detail, err := fn()
	if err != nil {
		fmt.Printf("%s %v\n", red("ERROR:"), err)
		return
	}
	fmt.Printf("%s (%s)\n", green("SUCCESS"), detail)
}

func testProvider(ctx context.Context, provider brain.Provider) {
	if !provider.Available() {
		fmt.Printf("Testing %s... %s\n", provider.Name(), yellow("DISABLED (missing API key)"))
		return
	}

	check(provider.Name(), func() (string, error) {
		resp, err := provider.Generate(ctx, brain.Request{UserPrompt: "Reply with the single word: pong", MaxTokens: 16})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("model %s replied %q", resp.Model, strings.TrimSpace(resp.Content)), nil
	})
}
