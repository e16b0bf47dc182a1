// Package navigation is the single owner of the reader's state: the active
// feed, the selected story or user, the author search and the saved items.
//
// The layout mode is an explicit input. In the compact layout a feed switch
// closes the detail view and nothing is selected automatically; in the
// expanded layout the detail pane stays open across feed switches and the
// first item of a fresh feed is pre-selected when nothing else is.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/azure/hn-reader/internal/comments"
	"github.com/azure/hn-reader/internal/feed"
	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/sirupsen/logrus"
)

// Layout is the viewport class the state machine is driven for
type Layout string

const (
	LayoutCompact  Layout = "compact"
	LayoutExpanded Layout = "expanded"
)

// Valid reports whether l is a known layout
func (l Layout) Valid() bool {
	return l == LayoutCompact || l == LayoutExpanded
}

// SelectionKind says what the detail view shows
type SelectionKind string

const (
	SelectionNone  SelectionKind = "none"
	SelectionStory SelectionKind = "story"
	SelectionUser  SelectionKind = "user"
)

// ErrNoSelection is returned by detail operations when nothing suitable is selected
var ErrNoSelection = errors.New("nothing selected")

// Preferences is the persisted state the navigator reads and mutates
type Preferences interface {
	Language() string
	SetLanguage(lang string) error
	SavedIDs() []int
	IsSaved(id int) bool
	ToggleSaved(id int) (bool, error)
}

// Outcome describes what selecting an item did
type Outcome struct {
	Selected bool `json:"selected"`
	Modal    bool `json:"modal"`
	// ExternalURL is set when the item should be opened outside the reader
	ExternalURL string `json:"external_url,omitempty"`
}

// Navigator reconciles feed, selection and search state
type Navigator struct {
	items   sources.ItemSource
	search  sources.SearchSource
	gateway *translation.Gateway
	prefs   Preferences
	pager   *feed.Pager

	mu         sync.Mutex
	layout     Layout
	epoch      uint64
	kind       SelectionKind
	modal      bool
	detail     *detail
	profile    *profile
	searchUser string
	external   string
}

// New creates a navigator with nothing selected
func New(items sources.ItemSource, search sources.SearchSource, gateway *translation.Gateway, prefs Preferences, pager *feed.Pager, layout Layout) *Navigator {
	if !layout.Valid() {
		layout = LayoutExpanded
	}
	return &Navigator{
		items:   items,
		search:  search,
		gateway: gateway,
		prefs:   prefs,
		pager:   pager,
		layout:  layout,
		kind:    SelectionNone,
	}
}

// SwitchFeed makes feed active and loads it. A load superseded by a later
// navigation is not an error.
func (n *Navigator) SwitchFeed(ctx context.Context, f models.FeedType) error {
	if !f.Valid() || f == models.FeedUser {
		return fmt.Errorf("unsupported feed %q", f)
	}

	n.mu.Lock()
	n.searchUser = ""
	if n.layout == LayoutCompact {
		n.clearSelectionLocked()
	}
	n.mu.Unlock()

	logrus.WithField("feed", f).Info("Switching feed")

	items, err := n.pager.SelectFeed(ctx, f)
	return n.afterLoad(ctx, f, items, err)
}

// Retry re-runs the initial load of the active feed
func (n *Navigator) Retry(ctx context.Context) error {
	f, _ := n.pager.Feed()
	items, err := n.pager.Retry(ctx)
	return n.afterLoad(ctx, f, items, err)
}

func (n *Navigator) afterLoad(ctx context.Context, f models.FeedType, items []models.Item, err error) error {
	if errors.Is(err, feed.ErrStale) {
		return nil
	}
	if err != nil {
		return err
	}

	if !f.HasIDList() && f != models.FeedFavorites {
		return nil
	}

	// Auto-select only fills an empty detail pane; a feed switch never
	// replaces a story the reader already has open.
	n.mu.Lock()
	autoSelect := n.layout == LayoutExpanded && n.kind == SelectionNone && len(items) > 0
	n.mu.Unlock()

	if autoSelect {
		logrus.WithFields(logrus.Fields{"feed": f, "story": items[0].ID}).Debug("Auto-selecting first story")
		_, err := n.SelectStory(ctx, items[0])
		return err
	}
	return nil
}

// LoadMore appends the next page of the active feed
func (n *Navigator) LoadMore(ctx context.Context) ([]models.Item, error) {
	added, err := n.pager.LoadMore(ctx)
	if errors.Is(err, feed.ErrStale) {
		return nil, nil
	}
	return added, err
}

// SearchUser lists the submissions of handle in place of the feed
func (n *Navigator) SearchUser(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("user handle is required")
	}

	n.mu.Lock()
	n.searchUser = handle
	n.mu.Unlock()

	logrus.WithField("user", handle).Info("Searching user submissions")

	_, err := n.pager.SelectUser(ctx, handle)
	if errors.Is(err, feed.ErrStale) {
		return nil
	}
	return err
}

// ClearSearch leaves the author search and returns to the top feed
func (n *Navigator) ClearSearch(ctx context.Context) error {
	return n.SwitchFeed(ctx, models.FeedTop)
}

// SelectStory opens item in the detail view. Jobs with text open as a modal;
// jobs with only a URL are opened externally and leave the selection alone.
// A shallow item is replaced by its full record once that arrives.
func (n *Navigator) SelectStory(ctx context.Context, item models.Item) (Outcome, error) {
	if item.Type == models.TypeJob {
		if item.Body() == "" && item.URL != "" {
			n.mu.Lock()
			n.external = item.URL
			n.mu.Unlock()
			logrus.WithFields(logrus.Fields{"item": item.ID, "url": item.URL}).Debug("Opening job externally")
			return Outcome{ExternalURL: item.URL}, nil
		}

		n.mu.Lock()
		n.setStoryLocked(item, true)
		n.mu.Unlock()
		return Outcome{Selected: true, Modal: true}, nil
	}

	n.mu.Lock()
	epoch := n.setStoryLocked(item, false)
	n.mu.Unlock()

	logrus.WithField("story", item.ID).Debug("Selected story")

	if item.NeedsUpgrade() {
		full := n.items.FetchItem(ctx, item.ID)

		n.mu.Lock()
		if epoch == n.epoch && full.Visible() {
			n.detail.upgrade(*full, n.items, n.gateway, n.prefs.Language())
			logrus.WithFields(logrus.Fields{"story": item.ID, "kids": len(full.Kids)}).Debug("Upgraded shallow story")
		}
		n.mu.Unlock()
	}

	return Outcome{Selected: true}, nil
}

// SelectStoryByID selects a story that is on screen, or fetches it
func (n *Navigator) SelectStoryByID(ctx context.Context, id int) (Outcome, error) {
	if item, ok := n.pager.Find(id); ok {
		return n.SelectStory(ctx, item)
	}

	n.mu.Lock()
	var found *models.Item
	if n.profile != nil {
		found = n.profile.find(id)
	}
	n.mu.Unlock()
	if found != nil && found.Type != models.TypeComment {
		return n.SelectStory(ctx, *found)
	}

	item := n.items.FetchItem(ctx, id)
	if !item.Visible() {
		return Outcome{}, fmt.Errorf("item %d not found", id)
	}
	return n.SelectStory(ctx, *item)
}

func (n *Navigator) setStoryLocked(item models.Item, modal bool) uint64 {
	n.epoch++
	n.kind = SelectionStory
	n.modal = modal
	n.profile = nil
	n.external = ""
	n.detail = newDetail(item, n.items, n.gateway, n.prefs.Language())
	return n.epoch
}

// CloseSelection returns to the no-selection state
func (n *Navigator) CloseSelection() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clearSelectionLocked()
}

func (n *Navigator) clearSelectionLocked() {
	n.epoch++
	n.kind = SelectionNone
	n.modal = false
	n.detail = nil
	n.profile = nil
}

// ToggleFavorite flips whether id is saved. Un-saving while the favorites
// feed is active also drops the item from the feed window.
func (n *Navigator) ToggleFavorite(id int) (bool, error) {
	saved, err := n.prefs.ToggleSaved(id)

	if f, _ := n.pager.Feed(); f == models.FeedFavorites && !saved {
		n.pager.Remove(id)
	}

	logrus.WithFields(logrus.Fields{"item": id, "saved": saved}).Info("Toggled favorite")
	return saved, err
}

// IsFavorite reports whether id is saved
func (n *Navigator) IsFavorite(id int) bool {
	return n.prefs.IsSaved(id)
}

// SetLanguage changes the target language and re-reads every visible
// translation and summary from the cache for it
func (n *Navigator) SetLanguage(lang string) error {
	if !models.KnownLanguage(lang) {
		return fmt.Errorf("unsupported language %q", lang)
	}

	err := n.prefs.SetLanguage(lang)

	n.mu.Lock()
	if n.detail != nil {
		n.detail.setLanguage(n.gateway, lang)
	}
	n.mu.Unlock()

	logrus.WithField("language", lang).Info("Changed target language")
	return err
}

// SetLayout changes the layout mode
func (n *Navigator) SetLayout(layout Layout) error {
	if !layout.Valid() {
		return fmt.Errorf("unsupported layout %q", layout)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.layout = layout
	return nil
}

// Snapshot is the full presentation-facing state
type Snapshot struct {
	Layout      Layout        `json:"layout"`
	Language    string        `json:"language"`
	Feed        feed.Snapshot `json:"feed"`
	SearchUser  string        `json:"search_user,omitempty"`
	Selection   SelectionKind `json:"selection"`
	Modal       bool          `json:"modal"`
	Story       *DetailView   `json:"story,omitempty"`
	Profile     *ProfileView  `json:"profile,omitempty"`
	Favorites   []int         `json:"favorites"`
	ExternalURL string        `json:"external_url,omitempty"`
}

// Snapshot copies the current state
func (n *Navigator) Snapshot() Snapshot {
	feedSnap := n.pager.Snapshot()

	n.mu.Lock()
	defer n.mu.Unlock()

	s := Snapshot{
		Layout:      n.layout,
		Language:    n.prefs.Language(),
		Feed:        feedSnap,
		SearchUser:  n.searchUser,
		Selection:   n.kind,
		Modal:       n.modal,
		Favorites:   n.prefs.SavedIDs(),
		ExternalURL: n.external,
	}
	if n.detail != nil {
		view := n.detail.view(n.prefs)
		s.Story = &view
	}
	if n.profile != nil {
		view := n.profile.view()
		s.Profile = &view
	}
	return s
}

// Comments returns the comment tree of the selected story
func (n *Navigator) Comments() (*comments.Tree, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.detail == nil {
		return nil, ErrNoSelection
	}
	return n.detail.comments, nil
}
