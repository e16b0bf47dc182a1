// Package feed materializes a feed's items into a growing display window.
//
// A Pager holds one feed session at a time. Every SelectFeed, SelectUser or
// Retry starts a new epoch; a load only commits its results while its epoch is
// still current, so a slow response for a feed the reader already left is
// dropped with ErrStale instead of overwriting the newer feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/sirupsen/logrus"
)

// Status of the feed session
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusLoadingMore Status = "loading_more"
	StatusError       Status = "error"
)

// ErrStale is returned by a load that was superseded by a newer navigation
var ErrStale = errors.New("feed load superseded")

// SavedSource provides the locally saved ids, oldest first
type SavedSource interface {
	SavedIDs() []int
}

// Snapshot is the presentation-facing view of the pager
type Snapshot struct {
	Feed    models.FeedType `json:"feed"`
	User    string          `json:"user,omitempty"`
	Status  Status          `json:"status"`
	Error   string          `json:"error,omitempty"`
	Items   []models.Item   `json:"items"`
	HasMore bool            `json:"has_more"`
	// Sentinel is true while the load-more trigger should be on screen
	Sentinel bool `json:"sentinel"`
	Total    int  `json:"total"`
}

// Pager owns the id sequence and materialized window of the active feed
type Pager struct {
	items    sources.ItemSource
	search   sources.SearchSource
	saved    SavedSource
	pageSize int

	mu      sync.Mutex
	epoch   uint64
	feed    models.FeedType
	user    string
	status  Status
	err     error
	ids     []int
	cursor  int
	page    int
	list    []models.Item
	seen    map[int]struct{}
	hasMore bool
}

// NewPager creates an idle pager
func NewPager(items sources.ItemSource, search sources.SearchSource, saved SavedSource, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Pager{
		items:    items,
		search:   search,
		saved:    saved,
		pageSize: pageSize,
		status:   StatusIdle,
		seen:     make(map[int]struct{}),
	}
}

// loadResult is what an initial load commits
type loadResult struct {
	ids     []int
	cursor  int
	items   []models.Item
	hasMore bool
}

// SelectFeed resets the window and loads the first page of feed
func (p *Pager) SelectFeed(ctx context.Context, feed models.FeedType) ([]models.Item, error) {
	if !feed.Valid() || feed == models.FeedUser {
		return nil, fmt.Errorf("unsupported feed %q", feed)
	}
	return p.start(ctx, feed, "")
}

// SelectUser resets the window and loads the submissions of handle
func (p *Pager) SelectUser(ctx context.Context, handle string) ([]models.Item, error) {
	if handle == "" {
		return nil, fmt.Errorf("user handle is required")
	}
	return p.start(ctx, models.FeedUser, handle)
}

// Retry re-runs the initial load of the current feed
func (p *Pager) Retry(ctx context.Context) ([]models.Item, error) {
	p.mu.Lock()
	feed, user := p.feed, p.user
	p.mu.Unlock()

	if feed == "" {
		return nil, fmt.Errorf("no feed selected")
	}
	return p.start(ctx, feed, user)
}

func (p *Pager) start(ctx context.Context, feed models.FeedType, user string) ([]models.Item, error) {
	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	p.feed = feed
	p.user = user
	p.status = StatusLoading
	p.err = nil
	p.ids = nil
	p.cursor = 0
	p.page = 0
	p.list = nil
	p.seen = make(map[int]struct{})
	p.hasMore = false
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{"feed": feed, "user": user, "epoch": epoch}).Info("Loading feed")

	result, err := p.initialLoad(ctx, feed, user)

	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch != p.epoch {
		logrus.WithFields(logrus.Fields{"feed": feed, "epoch": epoch}).Debug("Discarding stale feed load")
		return nil, ErrStale
	}

	if err != nil {
		p.status = StatusError
		p.err = err
		logrus.WithError(err).WithField("feed", feed).Error("Feed load failed")
		return nil, err
	}

	if feed == models.FeedFavorites {
		result = p.dropUnsaved(result)
	}

	p.ids = result.ids
	p.cursor = result.cursor
	p.hasMore = result.hasMore
	p.appendLocked(result.items)
	p.status = StatusReady

	logrus.WithFields(logrus.Fields{"feed": feed, "items": len(p.list), "has_more": p.hasMore}).Info("Feed loaded")
	return append([]models.Item(nil), p.list...), nil
}

func (p *Pager) initialLoad(ctx context.Context, feed models.FeedType, user string) (loadResult, error) {
	switch {
	case feed.HasIDList():
		ids, err := p.items.FetchIDList(ctx, feed)
		if err != nil {
			return loadResult{}, err
		}
		window := ids[:min(p.pageSize, len(ids))]
		return loadResult{
			ids:     ids,
			cursor:  len(window),
			items:   p.items.FetchItemsByIDs(ctx, window),
			hasMore: len(window) < len(ids),
		}, nil

	case feed == models.FeedJob:
		items, err := p.search.SearchJobsByPage(ctx, 0)
		if err != nil {
			return loadResult{}, err
		}
		return loadResult{items: items, hasMore: len(items) > 0}, nil

	case feed == models.FeedFavorites:
		ids := p.saved.SavedIDs()
		items := p.items.FetchItemsByIDs(ctx, ids)
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return loadResult{ids: ids, cursor: len(ids), items: items}, nil

	case feed == models.FeedUser:
		items, err := p.search.SearchByAuthor(ctx, user, models.TypeStory, 0)
		if err != nil {
			return loadResult{}, err
		}
		return loadResult{items: items}, nil
	}

	return loadResult{}, fmt.Errorf("unsupported feed %q", feed)
}

// dropUnsaved filters a favorites load against the saved set as it is now, so
// an id un-saved while the load was in flight does not come back.
func (p *Pager) dropUnsaved(result loadResult) loadResult {
	current := make(map[int]struct{})
	for _, id := range p.saved.SavedIDs() {
		current[id] = struct{}{}
	}

	ids := make([]int, 0, len(result.ids))
	for _, id := range result.ids {
		if _, ok := current[id]; ok {
			ids = append(ids, id)
		}
	}
	items := make([]models.Item, 0, len(result.items))
	for _, item := range result.items {
		if _, ok := current[item.ID]; ok {
			items = append(items, item)
		}
	}

	return loadResult{ids: ids, cursor: len(ids), items: items, hasMore: result.hasMore}
}

// LoadMore appends the next page. It returns the appended items, which is
// empty when there was nothing to do.
func (p *Pager) LoadMore(ctx context.Context) ([]models.Item, error) {
	p.mu.Lock()
	if p.status != StatusReady || !p.hasMore || p.feed == models.FeedUser || p.feed == models.FeedFavorites {
		p.mu.Unlock()
		return nil, nil
	}
	p.status = StatusLoadingMore
	epoch := p.epoch
	feed := p.feed
	cursor := p.cursor
	page := p.page
	var window []int
	if feed.HasIDList() {
		window = p.ids[cursor:min(cursor+p.pageSize, len(p.ids))]
	}
	p.mu.Unlock()

	var (
		items []models.Item
		err   error
	)
	if feed.HasIDList() {
		items = p.items.FetchItemsByIDs(ctx, window)
	} else {
		items, err = p.search.SearchJobsByPage(ctx, page+1)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch != p.epoch {
		return nil, ErrStale
	}
	p.status = StatusReady

	if err != nil {
		// The window already shown stays usable; the sentinel can trigger again.
		logrus.WithError(err).WithField("feed", feed).Warn("Failed to load more items")
		return nil, err
	}

	if feed.HasIDList() {
		p.cursor = cursor + len(window)
		p.hasMore = p.cursor < len(p.ids)
	} else if len(items) == 0 {
		p.hasMore = false
	} else {
		p.page = page + 1
	}

	added := p.appendLocked(items)
	logrus.WithFields(logrus.Fields{"feed": feed, "added": len(added), "has_more": p.hasMore}).Debug("Loaded more items")
	return added, nil
}

// Remove drops id from the id sequence and the materialized window without a
// refetch
func (p *Pager) Remove(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, v := range p.ids {
		if v == id {
			p.ids = append(p.ids[:i:i], p.ids[i+1:]...)
			if i < p.cursor {
				p.cursor--
			}
			break
		}
	}

	for i, item := range p.list {
		if item.ID == id {
			p.list = append(p.list[:i:i], p.list[i+1:]...)
			delete(p.seen, id)
			return true
		}
	}
	return false
}

// Find returns the materialized item with id
func (p *Pager) Find(id int) (models.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range p.list {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}

// Feed returns the active feed and, for the user pseudo-feed, its handle
func (p *Pager) Feed() (models.FeedType, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feed, p.user
}

// Snapshot copies the current state
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Feed:     p.feed,
		User:     p.user,
		Status:   p.status,
		Items:    append([]models.Item{}, p.list...),
		HasMore:  p.hasMore,
		Sentinel: p.hasMore && p.status == StatusReady,
		Total:    len(p.ids),
	}
	if p.err != nil {
		s.Error = p.err.Error()
	}
	return s
}

// appendLocked adds items not already shown and returns the ones added
func (p *Pager) appendLocked(items []models.Item) []models.Item {
	added := make([]models.Item, 0, len(items))
	for _, item := range items {
		if _, ok := p.seen[item.ID]; ok {
			continue
		}
		p.seen[item.ID] = struct{}{}
		p.list = append(p.list, item)
		added = append(added, item)
	}
	return added
}
