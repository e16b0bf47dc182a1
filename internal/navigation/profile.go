package navigation

import (
	"context"
	"fmt"

	"github.com/azure/hn-reader/internal/models"
	"github.com/sirupsen/logrus"
)

// Tab is the activity list shown on a profile
type Tab string

const (
	TabStories  Tab = "stories"
	TabComments Tab = "comments"
)

func (t Tab) kind() (models.ItemType, bool) {
	switch t {
	case TabStories:
		return models.TypeStory, true
	case TabComments:
		return models.TypeComment, true
	}
	return "", false
}

type profile struct {
	handle   string
	user     *models.User
	loading  bool
	tab      Tab
	activity []models.Item
	err      error
}

func (p *profile) find(id int) *models.Item {
	for i := range p.activity {
		if p.activity[i].ID == id {
			item := p.activity[i]
			return &item
		}
	}
	return nil
}

// ProfileView is the user profile as the presentation layer sees it
type ProfileView struct {
	Handle   string        `json:"handle"`
	User     *models.User  `json:"user,omitempty"`
	Missing  bool          `json:"missing"`
	Loading  bool          `json:"loading"`
	Tab      Tab           `json:"tab"`
	Activity []models.Item `json:"activity"`
	Error    string        `json:"error,omitempty"`
}

func (p *profile) view() ProfileView {
	v := ProfileView{
		Handle:   p.handle,
		User:     p.user,
		Missing:  !p.loading && p.user == nil,
		Loading:  p.loading,
		Tab:      p.tab,
		Activity: append([]models.Item{}, p.activity...),
	}
	if p.err != nil {
		v.Error = p.err.Error()
	}
	return v
}

// SelectUser opens the profile of handle. On the job feed it opens as a modal.
func (n *Navigator) SelectUser(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("user handle is required")
	}
	f, _ := n.pager.Feed()

	p := &profile{handle: handle, loading: true, tab: TabStories}

	n.mu.Lock()
	n.epoch++
	n.kind = SelectionUser
	n.modal = f == models.FeedJob
	n.detail = nil
	n.profile = p
	n.external = ""
	n.mu.Unlock()

	logrus.WithFields(logrus.Fields{"user": handle, "modal": f == models.FeedJob}).Info("Selected user")

	user := n.items.FetchUser(ctx, handle)
	activity, err := n.search.SearchByAuthor(ctx, handle, models.TypeStory, 0)
	if err != nil {
		logrus.WithError(err).WithField("user", handle).Warn("Failed to load user activity")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.profile != p {
		return nil
	}
	p.user = user
	if p.tab == TabStories {
		p.activity = activity
		p.err = err
		p.loading = false
	}
	return nil
}

// SwitchTab reloads the profile activity for tab
func (n *Navigator) SwitchTab(ctx context.Context, tab Tab) error {
	kind, ok := tab.kind()
	if !ok {
		return fmt.Errorf("unsupported tab %q", tab)
	}

	n.mu.Lock()
	p := n.profile
	if p == nil {
		n.mu.Unlock()
		return ErrNoSelection
	}
	p.tab = tab
	p.loading = true
	p.activity = nil
	p.err = nil
	handle := p.handle
	n.mu.Unlock()

	activity, err := n.search.SearchByAuthor(ctx, handle, kind, 0)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.profile != p || p.tab != tab {
		return nil
	}
	p.activity = activity
	p.err = err
	p.loading = false
	return err
}

// OpenActivity selects an entry of the profile activity list. A comment
// opens the story it was posted on.
func (n *Navigator) OpenActivity(ctx context.Context, id int) (Outcome, error) {
	n.mu.Lock()
	var item *models.Item
	if n.profile != nil {
		item = n.profile.find(id)
	}
	n.mu.Unlock()

	if item == nil {
		return Outcome{}, fmt.Errorf("item %d is not in the profile activity", id)
	}

	if item.Type != models.TypeComment {
		return n.SelectStory(ctx, *item)
	}

	if item.StoryID == 0 {
		return Outcome{}, fmt.Errorf("comment %d has no parent story", id)
	}
	story := n.items.FetchItem(ctx, item.StoryID)
	if !story.Visible() {
		return Outcome{}, fmt.Errorf("story %d not found", item.StoryID)
	}
	return n.SelectStory(ctx, *story)
}
