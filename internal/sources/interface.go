package sources

import (
	"context"

	"github.com/azure/hn-reader/internal/models"
)

// ItemSource is the item-tree API. Single lookups are soft: a nil result means
// the record is absent or could not be fetched.
type ItemSource interface {
	FetchIDList(ctx context.Context, feed models.FeedType) ([]int, error)
	FetchItem(ctx context.Context, id int) *models.Item
	FetchUser(ctx context.Context, handle string) *models.User
	FetchItemsByIDs(ctx context.Context, ids []int) []models.Item
}

// SearchSource is the search index used for per-author and job listings
type SearchSource interface {
	SearchByAuthor(ctx context.Context, handle string, kind models.ItemType, page int) ([]models.Item, error)
	SearchJobsByPage(ctx context.Context, page int) ([]models.Item, error)
}
