package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/hn-reader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = RetryPolicy{Attempts: 3, Delay: time.Millisecond}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HackerNewsClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHackerNewsClient(server.URL, 5*time.Second, testPolicy), server
}

func TestHackerNewsClient_GetName(t *testing.T) {
	client := NewHackerNewsClient("http://localhost", time.Second, testPolicy)
	assert.Equal(t, "hackernews", client.GetName())
}

func TestHackerNewsClient_FetchIDList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/topstories.json", r.URL.Path)
		fmt.Fprint(w, "[3,1,2]")
	})

	ids, err := client.FetchIDList(context.Background(), models.FeedTop)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, ids)
}

func TestHackerNewsClient_FetchIDListRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "[]")
	})

	ids, err := client.FetchIDList(context.Background(), models.FeedNew)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHackerNewsClient_FetchIDListGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchIDList(context.Background(), models.FeedBest)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestHackerNewsClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchIDList(context.Background(), models.FeedShow)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHackerNewsClient_FetchItemSoftMiss(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/item/1.json":
			fmt.Fprint(w, `{"id":1,"type":"story","by":"pg","title":"Hello","kids":[2]}`)
		case "/item/2.json":
			fmt.Fprint(w, "null")
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	ctx := context.Background()

	item := client.FetchItem(ctx, 1)
	require.NotNil(t, item)
	assert.Equal(t, "Hello", item.Title)
	assert.Equal(t, []int{2}, item.Kids)

	assert.Nil(t, client.FetchItem(ctx, 2))
	assert.Nil(t, client.FetchItem(ctx, 3))
}

func TestHackerNewsClient_FetchUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/dang.json" {
			fmt.Fprint(w, `{"id":"dang","created":1300000000,"karma":100,"about":"mod"}`)
			return
		}
		fmt.Fprint(w, "null")
	})

	user := client.FetchUser(context.Background(), "dang")
	require.NotNil(t, user)
	assert.Equal(t, 100, user.Karma)

	assert.Nil(t, client.FetchUser(context.Background(), "nobody"))
}

func TestHackerNewsClient_FetchItemsByIDs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/item/10.json":
			time.Sleep(20 * time.Millisecond)
			fmt.Fprint(w, `{"id":10,"type":"story"}`)
		case "/item/11.json":
			fmt.Fprint(w, "null")
		case "/item/12.json":
			fmt.Fprint(w, `{"id":12,"type":"story","deleted":true}`)
		case "/item/13.json":
			fmt.Fprint(w, `{"id":13,"type":"story","dead":true}`)
		case "/item/14.json":
			fmt.Fprint(w, `{"id":14,"type":"story"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	items := client.FetchItemsByIDs(context.Background(), []int{10, 11, 12, 13, 14})
	require.Len(t, items, 2)
	assert.Equal(t, 10, items[0].ID)
	assert.Equal(t, 14, items[1].ID)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Server error", err: &TransportError{StatusCode: 503}, expected: true},
		{name: "Network error", err: &TransportError{Err: errors.New("connection reset")}, expected: true},
		{name: "Client error", err: &TransportError{StatusCode: 404}, expected: false},
		{name: "Cancelled", err: &TransportError{Err: context.Canceled}, expected: false},
		{name: "Other error", err: errors.New("decode"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, retryable(tt.err))
		})
	}
}

func TestAlgoliaClient_SearchByAuthor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "comment,author_pg", r.URL.Query().Get("tags"))
		assert.Equal(t, "50", r.URL.Query().Get("hitsPerPage"))
		fmt.Fprint(w, `{"hits":[
			{"objectID":"42","author":"pg","created_at_i":1700000000,"points":7,"comment_text":"<p>hi</p>","story_id":40,"story_title":"Parent","parent_id":41},
			{"objectID":"not-a-number","author":"pg"}
		]}`)
	}))
	defer server.Close()

	client := NewAlgoliaClient(server.URL, time.Second, testPolicy, 50, 20)
	items, err := client.SearchByAuthor(context.Background(), "pg", models.TypeComment, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, 42, item.ID)
	assert.Equal(t, models.TypeComment, item.Type)
	assert.Equal(t, "pg", item.By)
	assert.Equal(t, int64(1700000000), item.Time)
	assert.Equal(t, 7, item.Score)
	assert.Equal(t, "<p>hi</p>", item.Text)
	assert.Equal(t, 40, item.StoryID)
	assert.Equal(t, "Parent", item.StoryTitle)
	assert.Equal(t, 41, item.Parent)
}

func TestAlgoliaClient_SearchByAuthorStory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":[{"objectID":"7","author":"pg","title":"Essay","url":"https://x.org","points":3,"num_comments":9,"story_text":"body","story_id":7}]}`)
	}))
	defer server.Close()

	client := NewAlgoliaClient(server.URL, time.Second, testPolicy, 50, 20)
	items, err := client.SearchByAuthor(context.Background(), "pg", models.TypeStory, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.TypeStory, items[0].Type)
	assert.Equal(t, 9, items[0].Descendants)
	assert.Equal(t, "body", items[0].Text)
	assert.Zero(t, items[0].StoryID)
}

func TestAlgoliaClient_SearchByAuthorRejectsKind(t *testing.T) {
	client := NewAlgoliaClient("http://localhost", time.Second, testPolicy, 50, 20)
	_, err := client.SearchByAuthor(context.Background(), "pg", models.TypeJob, 0)
	assert.Error(t, err)
}

func TestAlgoliaClient_SearchJobsByPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search_by_date", r.URL.Path)
		assert.Equal(t, "job", r.URL.Query().Get("tags"))
		assert.Equal(t, "20", r.URL.Query().Get("hitsPerPage"))
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"hits":[]}`)
			return
		}
		fmt.Fprint(w, `{"hits":[{"objectID":"5","author":"yc","title":"Acme is hiring","url":"https://acme.test/jobs"}]}`)
	}))
	defer server.Close()

	client := NewAlgoliaClient(server.URL, time.Second, testPolicy, 50, 20)

	items, err := client.SearchJobsByPage(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.TypeJob, items[0].Type)
	assert.True(t, strings.HasPrefix(items[0].URL, "https://acme.test"))

	items, err = client.SearchJobsByPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}
