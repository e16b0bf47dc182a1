// Package sourcestest provides in-memory ItemSource and SearchSource fakes.
package sourcestest

import (
	"context"
	"fmt"
	"sync"

	"github.com/azure/hn-reader/internal/models"
)

// Items is an in-memory item-tree API
type Items struct {
	mu      sync.Mutex
	Lists   map[models.FeedType][]int
	ListErr error
	Records map[int]*models.Item
	Users   map[string]*models.User

	// Gate, when set, is called before every item fetch and may block
	Gate func(id int)

	itemCalls map[int]int
	listCalls int
}

// NewItems creates an empty fake
func NewItems() *Items {
	return &Items{
		Lists:     make(map[models.FeedType][]int),
		Records:   make(map[int]*models.Item),
		Users:     make(map[string]*models.User),
		itemCalls: make(map[int]int),
	}
}

// Add stores items by id
func (f *Items) Add(items ...models.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		item := items[i]
		f.Records[item.ID] = &item
	}
}

// Sequence registers n stories on feed with ids first..first+n-1
func (f *Items) Sequence(feed models.FeedType, first, n int) {
	ids := make([]int, 0, n)
	for id := first; id < first+n; id++ {
		ids = append(ids, id)
		f.Add(models.Item{ID: id, Type: models.TypeStory, Title: fmt.Sprintf("Story %d", id)})
	}
	f.mu.Lock()
	f.Lists[feed] = ids
	f.mu.Unlock()
}

func (f *Items) FetchIDList(ctx context.Context, feed models.FeedType) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]int(nil), f.Lists[feed]...), nil
}

func (f *Items) FetchItem(ctx context.Context, id int) *models.Item {
	f.mu.Lock()
	gate := f.Gate
	f.mu.Unlock()
	if gate != nil {
		gate(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls[id]++
	item, ok := f.Records[id]
	if !ok || item == nil {
		return nil
	}
	copied := *item
	return &copied
}

func (f *Items) FetchUser(ctx context.Context, handle string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.Users[handle]
	if !ok {
		return nil
	}
	copied := *user
	return &copied
}

// FetchItemsByIDs mirrors the real client: sequential here, same filtering
func (f *Items) FetchItemsByIDs(ctx context.Context, ids []int) []models.Item {
	var out []models.Item
	for _, id := range ids {
		if item := f.FetchItem(ctx, id); item.Visible() {
			out = append(out, *item)
		}
	}
	return out
}

// ItemCalls returns how many times id was fetched
func (f *Items) ItemCalls(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls[id]
}

// TotalItemCalls returns the number of item fetches
func (f *Items) TotalItemCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.itemCalls {
		total += n
	}
	return total
}

// ListCalls returns the number of id-list fetches
func (f *Items) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// Search is an in-memory search index
type Search struct {
	mu       sync.Mutex
	JobPages [][]models.Item
	JobErr   error
	ByAuthor map[string]map[models.ItemType][]models.Item

	jobCalls []int
}

// NewSearch creates an empty fake
func NewSearch() *Search {
	return &Search{ByAuthor: make(map[string]map[models.ItemType][]models.Item)}
}

// AddAuthor registers the hits for handle and kind
func (s *Search) AddAuthor(handle string, kind models.ItemType, items ...models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ByAuthor[handle] == nil {
		s.ByAuthor[handle] = make(map[models.ItemType][]models.Item)
	}
	s.ByAuthor[handle][kind] = append(s.ByAuthor[handle][kind], items...)
}

func (s *Search) SearchByAuthor(ctx context.Context, handle string, kind models.ItemType, page int) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page > 0 {
		return nil, nil
	}
	return append([]models.Item(nil), s.ByAuthor[handle][kind]...), nil
}

func (s *Search) SearchJobsByPage(ctx context.Context, page int) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobCalls = append(s.jobCalls, page)
	if s.JobErr != nil {
		return nil, s.JobErr
	}
	if page >= len(s.JobPages) {
		return nil, nil
	}
	return append([]models.Item(nil), s.JobPages[page]...), nil
}

// JobCalls returns the requested job pages in order
func (s *Search) JobCalls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.jobCalls...)
}
