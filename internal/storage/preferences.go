package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	languageKey  = "hn_target_lang"
	favoritesKey = "hn_favorites"
)

// Preferences holds the two persisted values: the target language and the
// saved item ids in the order they were saved. Both are read once at startup
// and rewritten in full on every change.
type Preferences struct {
	mu       sync.RWMutex
	store    StorageInterface
	language string
	saved    []int
}

// LoadPreferences reads persisted preferences. Missing or unreadable values
// fall back to defaultLanguage and an empty saved list.
func LoadPreferences(store StorageInterface, defaultLanguage string) *Preferences {
	p := &Preferences{store: store, language: defaultLanguage}

	if data, err := store.Retrieve(languageKey); err == nil {
		if lang := string(data); lang != "" {
			p.language = lang
		}
	} else if !errors.Is(err, ErrNotFound) {
		logrus.Warnf("Failed to read language preference, using %s: %v", defaultLanguage, err)
	}

	if data, err := store.Retrieve(favoritesKey); err == nil {
		var ids []int
		if err := json.Unmarshal(data, &ids); err != nil {
			logrus.Warnf("Ignoring corrupt saved items list: %v", err)
		} else {
			p.saved = dedupe(ids)
		}
	} else if !errors.Is(err, ErrNotFound) {
		logrus.Warnf("Failed to read saved items: %v", err)
	}

	logrus.Debugf("Loaded preferences: language=%s saved=%d", p.language, len(p.saved))
	return p
}

// Language returns the target language
func (p *Preferences) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.language
}

// SetLanguage changes and persists the target language
func (p *Preferences) SetLanguage(lang string) error {
	if lang == "" {
		return fmt.Errorf("language must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.language = lang
	if err := p.store.Store(languageKey, []byte(lang)); err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}
	return nil
}

// SavedIDs returns the saved ids, oldest first
func (p *Preferences) SavedIDs() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]int{}, p.saved...)
}

// IsSaved reports whether id is in the saved set
func (p *Preferences) IsSaved(id int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return indexOf(p.saved, id) >= 0
}

// ToggleSaved adds id if absent, removes it if present, and returns the new
// membership. The in-memory set changes even if persisting fails.
func (p *Preferences) ToggleSaved(id int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	saved := true
	if i := indexOf(p.saved, id); i >= 0 {
		p.saved = append(p.saved[:i:i], p.saved[i+1:]...)
		saved = false
	} else {
		p.saved = append(p.saved, id)
	}

	data, err := json.Marshal(p.saved)
	if err != nil {
		return saved, fmt.Errorf("failed to marshal saved items: %w", err)
	}
	if err := p.store.Store(favoritesKey, data); err != nil {
		return saved, fmt.Errorf("failed to persist saved items: %w", err)
	}

	return saved, nil
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
