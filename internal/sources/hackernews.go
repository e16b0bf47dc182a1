package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/azure/hn-reader/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// HackerNewsClient reads the Hacker News item-tree API
type HackerNewsClient struct {
	client  *resty.Client
	baseURL string
	retry   RetryPolicy
}

// Ensure HackerNewsClient implements ItemSource
var _ ItemSource = (*HackerNewsClient)(nil)

// NewHackerNewsClient creates a client for the item-tree API rooted at baseURL
func NewHackerNewsClient(baseURL string, timeout time.Duration, policy RetryPolicy) *HackerNewsClient {
	return &HackerNewsClient{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "HN-Reader/1.0"),
		baseURL: baseURL,
		retry:   policy,
	}
}

func (h *HackerNewsClient) GetName() string {
	return "hackernews"
}

// FetchIDList returns the ordered id sequence of an id-list feed
func (h *HackerNewsClient) FetchIDList(ctx context.Context, feed models.FeedType) ([]int, error) {
	url := fmt.Sprintf("%s/%sstories.json", h.baseURL, feed)

	var ids []int
	if err := getJSON(ctx, h.client, h.retry, url, &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch %s feed ids: %w", feed, err)
	}

	return ids, nil
}

// FetchItem returns the item, or nil when it is null, missing or unreachable
func (h *HackerNewsClient) FetchItem(ctx context.Context, id int) *models.Item {
	url := fmt.Sprintf("%s/item/%d.json", h.baseURL, id)

	var item *models.Item
	if err := getJSON(ctx, h.client, h.retry, url, &item); err != nil {
		logrus.Debugf("Failed to get HN item %d: %v", id, err)
		return nil
	}

	return item
}

// FetchUser returns the user record, or nil when it is null, missing or unreachable
func (h *HackerNewsClient) FetchUser(ctx context.Context, handle string) *models.User {
	url := fmt.Sprintf("%s/user/%s.json", h.baseURL, handle)

	var user *models.User
	if err := getJSON(ctx, h.client, h.retry, url, &user); err != nil {
		logrus.Debugf("Failed to get HN user %s: %v", handle, err)
		return nil
	}

	return user
}

// FetchItemsByIDs fetches every id concurrently and keeps, in input order, the
// items that resolved and are neither deleted nor dead.
func (h *HackerNewsClient) FetchItemsByIDs(ctx context.Context, ids []int) []models.Item {
	results := make([]*models.Item, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			results[i] = h.FetchItem(ctx, id)
			return nil // a single miss never fails the batch
		})
	}
	_ = g.Wait()

	items := make([]models.Item, 0, len(ids))
	for _, item := range results {
		if item.Visible() {
			items = append(items, *item)
		}
	}

	if dropped := len(ids) - len(items); dropped > 0 {
		logrus.Debugf("Dropped %d of %d items from batch", dropped, len(ids))
	}

	return items
}
