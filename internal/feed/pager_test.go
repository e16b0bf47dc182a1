package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources/sourcestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedIDs []int

func (s savedIDs) SavedIDs() []int { return append([]int(nil), s...) }

// mutableSaved is a saved set that can shrink while a load is running
type mutableSaved struct {
	mu  sync.Mutex
	ids []int
}

func (s *mutableSaved) SavedIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.ids...)
}

func (s *mutableSaved) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return
		}
	}
}

func ids(items []models.Item) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func idRange(from, to int) []int {
	var out []int
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}

func TestPager_PagesThroughIDList(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 1, 45)
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 20)
	ctx := context.Background()

	loaded, err := pager.SelectFeed(ctx, models.FeedTop)
	require.NoError(t, err)
	assert.Equal(t, idRange(1, 20), ids(loaded))
	snap := pager.Snapshot()
	assert.True(t, snap.HasMore)
	assert.True(t, snap.Sentinel)
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 45, snap.Total)

	added, err := pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, idRange(21, 40), ids(added))
	assert.True(t, pager.Snapshot().HasMore)

	added, err = pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, idRange(41, 45), ids(added))

	snap = pager.Snapshot()
	assert.False(t, snap.HasMore)
	assert.False(t, snap.Sentinel)
	assert.Equal(t, idRange(1, 45), ids(snap.Items))
}

func TestPager_InitialWindowIsMinOfPageSize(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		want    int
		hasMore bool
	}{
		{"empty", 0, 0, false},
		{"short", 7, 7, false},
		{"exact", 20, 20, false},
		{"long", 21, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := sourcestest.NewItems()
			items.Sequence(models.FeedNew, 100, tt.total)
			pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 20)

			loaded, err := pager.SelectFeed(context.Background(), models.FeedNew)
			require.NoError(t, err)
			assert.Len(t, loaded, tt.want)
			assert.Equal(t, tt.hasMore, pager.Snapshot().HasMore)
		})
	}
}

func TestPager_LoadMoreOnExhaustedFeedIsNoop(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedBest, 1, 5)
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 20)
	ctx := context.Background()

	_, err := pager.SelectFeed(ctx, models.FeedBest)
	require.NoError(t, err)
	calls := items.TotalItemCalls()

	for i := 0; i < 3; i++ {
		added, err := pager.LoadMore(ctx)
		require.NoError(t, err)
		assert.Empty(t, added)
	}

	assert.Len(t, pager.Snapshot().Items, 5)
	assert.Equal(t, calls, items.TotalItemCalls())
}

func TestPager_FilteredBatchAdvancesByIDs(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 1, 4)
	items.Add(models.Item{ID: 2, Deleted: true})
	delete(items.Records, 3)
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 2)
	ctx := context.Background()

	loaded, err := pager.SelectFeed(ctx, models.FeedTop)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(loaded))

	added, err := pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids(added))
	assert.False(t, pager.Snapshot().HasMore)
}

func TestPager_DuplicateIDsAppearOnce(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 1, 3)
	items.Lists[models.FeedTop] = []int{1, 2, 1, 3, 2}
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 2)
	ctx := context.Background()

	_, err := pager.SelectFeed(ctx, models.FeedTop)
	require.NoError(t, err)
	_, err = pager.LoadMore(ctx)
	require.NoError(t, err)
	_, err = pager.LoadMore(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, ids(pager.Snapshot().Items))
}

func TestPager_InitialFailureAndRetry(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedAsk, 1, 3)
	items.ListErr = errors.New("upstream down")
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 20)
	ctx := context.Background()

	_, err := pager.SelectFeed(ctx, models.FeedAsk)
	require.Error(t, err)
	snap := pager.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "upstream down", snap.Error)
	assert.False(t, snap.Sentinel)

	items.ListErr = nil
	loaded, err := pager.Retry(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
	snap = pager.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Empty(t, snap.Error)
	assert.Equal(t, 2, items.ListCalls())
}

func TestPager_RetryWithoutFeed(t *testing.T) {
	pager := NewPager(sourcestest.NewItems(), sourcestest.NewSearch(), savedIDs{}, 20)
	_, err := pager.Retry(context.Background())
	assert.Error(t, err)
}

func TestPager_JobPages(t *testing.T) {
	search := sourcestest.NewSearch()
	search.JobPages = [][]models.Item{
		{{ID: 1, Type: models.TypeJob}, {ID: 2, Type: models.TypeJob}},
		{{ID: 3, Type: models.TypeJob}},
	}
	pager := NewPager(sourcestest.NewItems(), search, savedIDs{}, 20)
	ctx := context.Background()

	loaded, err := pager.SelectFeed(ctx, models.FeedJob)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(loaded))
	assert.True(t, pager.Snapshot().HasMore)

	added, err := pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, ids(added))
	assert.True(t, pager.Snapshot().HasMore)

	added, err = pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.False(t, pager.Snapshot().HasMore)

	_, err = pager.LoadMore(ctx)
	require.NoError(t, err)

	// The empty page 2 did not advance the counter and stopped paging
	assert.Equal(t, []int{0, 1, 2}, search.JobCalls())
}

func TestPager_EmptyJobFeed(t *testing.T) {
	pager := NewPager(sourcestest.NewItems(), sourcestest.NewSearch(), savedIDs{}, 20)

	loaded, err := pager.SelectFeed(context.Background(), models.FeedJob)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.False(t, pager.Snapshot().HasMore)
}

func TestPager_FavoritesNewestFirst(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 1, 5)
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{2, 5, 3}, 20)
	ctx := context.Background()

	loaded, err := pager.SelectFeed(ctx, models.FeedFavorites)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 2}, ids(loaded))
	assert.False(t, pager.Snapshot().HasMore)

	added, err := pager.LoadMore(ctx)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestPager_Remove(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 40, 3)
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{40, 41, 42}, 20)

	_, err := pager.SelectFeed(context.Background(), models.FeedFavorites)
	require.NoError(t, err)

	assert.Equal(t, 3, pager.Snapshot().Total)

	assert.True(t, pager.Remove(41))
	assert.False(t, pager.Remove(41))

	snap := pager.Snapshot()
	assert.Equal(t, []int{42, 40}, ids(snap.Items))
	assert.Equal(t, 2, snap.Total)
}

func TestPager_FavoritesLoadDropsIDsUnsavedMidLoad(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 40, 3)
	saved := &mutableSaved{ids: []int{40, 41, 42}}

	started := make(chan struct{})
	release := make(chan struct{})
	items.Gate = func(id int) {
		if id == 41 {
			close(started)
			<-release
		}
	}
	pager := NewPager(items, sourcestest.NewSearch(), saved, 20)

	type outcome struct {
		items []models.Item
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		loaded, err := pager.SelectFeed(context.Background(), models.FeedFavorites)
		done <- outcome{loaded, err}
	}()

	<-started
	saved.remove(41)
	assert.False(t, pager.Remove(41))
	close(release)

	result := <-done
	require.NoError(t, result.err)
	assert.Equal(t, []int{42, 40}, ids(result.items))

	snap := pager.Snapshot()
	assert.Equal(t, []int{42, 40}, ids(snap.Items))
	assert.Equal(t, 2, snap.Total)
}

func TestPager_UserFeed(t *testing.T) {
	search := sourcestest.NewSearch()
	search.AddAuthor("pg", models.TypeStory, models.Item{ID: 7, By: "pg"}, models.Item{ID: 8, By: "pg"})
	pager := NewPager(sourcestest.NewItems(), search, savedIDs{}, 20)
	ctx := context.Background()

	loaded, err := pager.SelectUser(ctx, "pg")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, ids(loaded))

	feed, user := pager.Feed()
	assert.Equal(t, models.FeedUser, feed)
	assert.Equal(t, "pg", user)
	assert.False(t, pager.Snapshot().HasMore)

	_, err = pager.SelectUser(ctx, "")
	assert.Error(t, err)
	_, err = pager.SelectFeed(ctx, models.FeedUser)
	assert.Error(t, err)
}

func TestPager_StaleLoadIsDiscarded(t *testing.T) {
	items := sourcestest.NewItems()
	items.Sequence(models.FeedTop, 1, 3)
	items.Sequence(models.FeedNew, 100, 3)

	started := make(chan struct{})
	release := make(chan struct{})
	items.Gate = func(id int) {
		if id == 1 {
			close(started)
			<-release
		}
	}
	pager := NewPager(items, sourcestest.NewSearch(), savedIDs{}, 20)
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := pager.SelectFeed(ctx, models.FeedTop)
		errs <- err
	}()

	<-started
	loaded, err := pager.SelectFeed(ctx, models.FeedNew)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 101, 102}, ids(loaded))

	close(release)
	assert.ErrorIs(t, <-errs, ErrStale)

	snap := pager.Snapshot()
	assert.Equal(t, models.FeedNew, snap.Feed)
	assert.Equal(t, []int{100, 101, 102}, ids(snap.Items))
}

func TestPager_RejectsUnknownFeed(t *testing.T) {
	pager := NewPager(sourcestest.NewItems(), sourcestest.NewSearch(), savedIDs{}, 20)
	_, err := pager.SelectFeed(context.Background(), models.FeedType("nope"))
	assert.Error(t, err)
}
