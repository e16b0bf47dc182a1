package translation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/azure/hn-reader/internal/brain"
	"github.com/azure/hn-reader/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Gateway fronts the text-generation provider with the session cache.
// Identical concurrent requests share one upstream call.
type Gateway struct {
	cache    *Cache
	provider brain.Provider
	limiter  *rate.Limiter
	group    singleflight.Group

	requests atomic.Int64
	failures atomic.Int64
}

// Stats reports cache sizes and upstream call counts
type Stats struct {
	Provider string     `json:"provider"`
	Cache    CacheStats `json:"cache"`
	Requests int64      `json:"requests"`
	Failures int64      `json:"failures"`
}

// NewGateway creates a gateway. requestsPerSecond <= 0 disables rate limiting.
func NewGateway(cache *Cache, provider brain.Provider, requestsPerSecond float64) *Gateway {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Gateway{
		cache:    cache,
		provider: provider,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// CachedTranslation is a synchronous cache lookup
func (g *Gateway) CachedTranslation(text, lang string) (string, bool) {
	return g.cache.Translation(text, lang)
}

// CachedSummary is a synchronous cache lookup
func (g *Gateway) CachedSummary(storyID int, lang string) (string, bool) {
	return g.cache.Summary(storyID, lang)
}

// Translate returns text translated into lang. Failures and empty responses
// yield the original text and are not cached.
func (g *Gateway) Translate(ctx context.Context, text, lang string) string {
	if text == "" {
		return text
	}
	if cached, ok := g.cache.Translation(text, lang); ok {
		return cached
	}

	result, _, _ := g.group.Do("translate:"+translationKey(lang, text), func() (interface{}, error) {
		if cached, ok := g.cache.Translation(text, lang); ok {
			return cached, nil
		}

		content, err := g.generate(context.WithoutCancel(ctx), translatePrompt(text, lang))
		if err != nil {
			logrus.Errorf("Translation error: %v", err)
			return text, nil
		}
		if content == "" {
			return text, nil
		}

		g.cache.PutTranslation(text, lang, content)
		return content, nil
	})

	return result.(string)
}

// Summarize returns a bulleted summary of the story in lang. Failures return a
// user-visible error message that is not cached.
func (g *Gateway) Summarize(ctx context.Context, story models.Item, lang string) string {
	if cached, ok := g.cache.Summary(story.ID, lang); ok {
		return cached
	}

	result, _, _ := g.group.Do("summary:"+summaryKey(lang, story.ID), func() (interface{}, error) {
		if cached, ok := g.cache.Summary(story.ID, lang); ok {
			return cached, nil
		}

		content, err := g.generate(context.WithoutCancel(ctx), summaryPrompt(story, lang))
		if err != nil {
			logrus.Errorf("Summary error for story %d: %v", story.ID, err)
			return fmt.Sprintf("Error generating summary in %s. Please try again later.", lang), nil
		}
		if content == "" {
			return "Could not generate summary.", nil
		}

		g.cache.PutSummary(story.ID, lang, content)
		return content, nil
	})

	return result.(string)
}

// Stats returns a snapshot of gateway counters
func (g *Gateway) Stats() Stats {
	return Stats{
		Provider: g.provider.Name(),
		Cache:    g.cache.Stats(),
		Requests: g.requests.Load(),
		Failures: g.failures.Load(),
	}
}

func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	g.requests.Add(1)
	resp, err := g.provider.Generate(ctx, brain.Request{UserPrompt: prompt})
	if err != nil {
		g.failures.Add(1)
		return "", err
	}

	return strings.TrimSpace(resp.Content), nil
}

func translatePrompt(text, lang string) string {
	return fmt.Sprintf(`Translate the following text into %s.
Maintain the original tone and formatting (if it's HTML, keep the structure but translate the content).
Only return the translated text, nothing else.
Text: %s`, lang, text)
}

func summaryPrompt(story models.Item, lang string) string {
	url := story.URL
	if url == "" {
		url = "N/A"
	}
	return fmt.Sprintf(`You are an expert tech curator. Summarize the following Hacker News story in a concise, bulleted format.
Title: %s
URL: %s
Points: %d

IMPORTANT: Provide the summary entirely in %s.
Format the output as 3-4 clean Markdown bullet points.
Focus on key takeaways and why this is interesting to the tech community.`, story.Title, url, story.Score, lang)
}
