// Package translation memoizes translation and summarization calls to a
// text-generation provider.
//
// # Cache lifetime
//
// A Cache lives for one session. Entries are never evicted or invalidated.
// Concurrent writers of one key store results of identical requests, so the
// last write wins. Summaries are keyed by story id, not by content, so a story
// edited upstream keeps its earlier summary.
package translation

import (
	"fmt"
	"sync"
)

// Cache holds translated texts keyed by (language, source text) and summaries
// keyed by (language, story id).
type Cache struct {
	mu           sync.RWMutex
	translations map[string]string
	summaries    map[string]string
}

// CacheStats reports entry counts
type CacheStats struct {
	Translations int `json:"translations"`
	Summaries    int `json:"summaries"`
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		translations: make(map[string]string),
		summaries:    make(map[string]string),
	}
}

func translationKey(lang, text string) string {
	return lang + ":" + text
}

func summaryKey(lang string, storyID int) string {
	return fmt.Sprintf("%s:%d", lang, storyID)
}

// Translation looks up a cached translation
func (c *Cache) Translation(text, lang string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.translations[translationKey(lang, text)]
	return value, ok
}

// PutTranslation stores a translation
func (c *Cache) PutTranslation(text, lang, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translations[translationKey(lang, text)] = translated
}

// Summary looks up a cached summary
func (c *Cache) Summary(storyID int, lang string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.summaries[summaryKey(lang, storyID)]
	return value, ok
}

// PutSummary stores a summary
func (c *Cache) PutSummary(storyID int, lang, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[summaryKey(lang, storyID)] = summary
}

// Stats returns the number of cached entries
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Translations: len(c.translations), Summaries: len(c.summaries)}
}

// Reset drops every entry. Used between test cases and on explicit session reset.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translations = make(map[string]string)
	c.summaries = make(map[string]string)
}
