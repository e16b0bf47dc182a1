package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/azure/hn-reader/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// AlgoliaClient reads the HN search index
type AlgoliaClient struct {
	client   *resty.Client
	baseURL  string
	retry    RetryPolicy
	userHits int
	jobHits  int
}

// Ensure AlgoliaClient implements SearchSource
var _ SearchSource = (*AlgoliaClient)(nil)

type algoliaResponse struct {
	Hits    []algoliaHit `json:"hits"`
	NbHits  int          `json:"nbHits"`
	Page    int          `json:"page"`
	NbPages int          `json:"nbPages"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Author      string `json:"author"`
	CreatedAtI  int64  `json:"created_at_i"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Points      *int   `json:"points"`
	NumComments *int   `json:"num_comments"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	JobText     string `json:"job_text"`
	StoryID     *int   `json:"story_id"`
	StoryTitle  string `json:"story_title"`
	ParentID    *int   `json:"parent_id"`
}

// NewAlgoliaClient creates a search client. userHits and jobHits are the page
// sizes of author and job searches.
func NewAlgoliaClient(baseURL string, timeout time.Duration, policy RetryPolicy, userHits, jobHits int) *AlgoliaClient {
	return &AlgoliaClient{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "HN-Reader/1.0"),
		baseURL:  baseURL,
		retry:    policy,
		userHits: userHits,
		jobHits:  jobHits,
	}
}

func (a *AlgoliaClient) GetName() string {
	return "algolia"
}

// SearchByAuthor returns one page of the author's stories or comments
func (a *AlgoliaClient) SearchByAuthor(ctx context.Context, handle string, kind models.ItemType, page int) ([]models.Item, error) {
	if kind != models.TypeStory && kind != models.TypeComment {
		return nil, fmt.Errorf("unsupported search kind %q", kind)
	}

	query := url.Values{}
	query.Set("tags", fmt.Sprintf("%s,author_%s", kind, handle))
	query.Set("hitsPerPage", strconv.Itoa(a.userHits))
	query.Set("page", strconv.Itoa(page))

	items, err := a.search(ctx, "search", query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s items of %s: %w", kind, handle, err)
	}

	return items, nil
}

// SearchJobsByPage returns one page of job postings, newest first
func (a *AlgoliaClient) SearchJobsByPage(ctx context.Context, page int) ([]models.Item, error) {
	query := url.Values{}
	query.Set("tags", string(models.TypeJob))
	query.Set("hitsPerPage", strconv.Itoa(a.jobHits))
	query.Set("page", strconv.Itoa(page))

	items, err := a.search(ctx, "search_by_date", query, models.TypeJob)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs page %d: %w", page, err)
	}

	return items, nil
}

func (a *AlgoliaClient) search(ctx context.Context, endpoint string, query url.Values, kind models.ItemType) ([]models.Item, error) {
	requestURL := fmt.Sprintf("%s/%s?%s", a.baseURL, endpoint, query.Encode())

	var resp algoliaResponse
	if err := getJSON(ctx, a.client, a.retry, requestURL, &resp); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		item, ok := hit.toItem(kind)
		if !ok {
			logrus.Debugf("Skipping search hit with objectID %q", hit.ObjectID)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// toItem maps a search hit onto the item-tree schema
func (h algoliaHit) toItem(kind models.ItemType) (models.Item, bool) {
	id, err := strconv.Atoi(h.ObjectID)
	if err != nil {
		return models.Item{}, false
	}

	item := models.Item{
		ID:      id,
		Type:    kind,
		By:      h.Author,
		Time:    h.CreatedAtI,
		Title:   h.Title,
		URL:     h.URL,
		JobText: h.JobText,
	}

	if h.Points != nil {
		item.Score = *h.Points
	}
	if h.NumComments != nil {
		item.Descendants = *h.NumComments
	}

	if kind == models.TypeComment {
		item.Text = h.CommentText
		item.StoryTitle = h.StoryTitle
		if h.StoryID != nil {
			item.StoryID = *h.StoryID
		}
		if h.ParentID != nil {
			item.Parent = *h.ParentID
		}
	} else {
		item.Text = h.StoryText
	}

	return item, true
}
