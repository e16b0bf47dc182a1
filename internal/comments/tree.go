// Package comments resolves a story's comment ids into a tree of nodes.
//
// Nothing is fetched until LoadVisible is called. Each call fetches every
// node that is currently reachable on screen and still loading, one level at
// a time, so children of a collapsed or hidden node are never requested.
package comments

import (
	"context"
	"fmt"
	"sync"

	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State of a single comment node
type State string

const (
	StateLoading  State = "loading"
	StateResolved State = "resolved"
	StateHidden   State = "hidden"
)

// Node is one comment slot in the tree
type Node struct {
	ID        int
	Depth     int
	State     State
	Item      *models.Item
	Collapsed bool
	Text      translation.Field
	Children  []int
}

// View is a node as the presentation layer sees it
type View struct {
	ID         int    `json:"id"`
	Depth      int    `json:"depth"`
	State      State  `json:"state"`
	By         string `json:"by,omitempty"`
	Time       int64  `json:"time,omitempty"`
	Text       string `json:"text,omitempty"`
	Translated bool   `json:"translated"`
	Collapsed  bool   `json:"collapsed"`
	// Replies is the number of direct children, shown as a badge when collapsed
	Replies int `json:"replies"`
}

// Tree holds the comment nodes of one story
type Tree struct {
	items   sources.ItemSource
	gateway *translation.Gateway

	mu      sync.Mutex
	storyID int
	lang    string
	roots   []int
	nodes   map[int]*Node
}

// NewTree creates a tree whose top-level nodes are the story's kids, all loading
func NewTree(items sources.ItemSource, gateway *translation.Gateway, story models.Item, lang string) *Tree {
	t := &Tree{
		items:   items,
		gateway: gateway,
		storyID: story.ID,
		lang:    lang,
		nodes:   make(map[int]*Node),
	}
	t.roots = t.addChildrenLocked(story.Kids, 0)
	return t
}

// StoryID is the story the tree belongs to
func (t *Tree) StoryID() int {
	return t.storyID
}

// addChildrenLocked creates loading nodes for kids. An id that is already in
// the tree gets no second node, so it renders nothing at the new position.
func (t *Tree) addChildrenLocked(kids []int, depth int) []int {
	children := make([]int, 0, len(kids))
	for _, id := range kids {
		if id == t.storyID {
			continue
		}
		if _, exists := t.nodes[id]; exists {
			continue
		}
		t.nodes[id] = &Node{ID: id, Depth: depth, State: StateLoading}
		children = append(children, id)
	}
	return children
}

// pendingLocked lists the loading nodes reachable through expanded, resolved ancestors
func (t *Tree) pendingLocked() []int {
	var pending []int
	var walk func(ids []int)
	walk = func(ids []int) {
		for _, id := range ids {
			node := t.nodes[id]
			switch {
			case node.State == StateLoading:
				pending = append(pending, id)
			case node.State == StateResolved && !node.Collapsed:
				walk(node.Children)
			}
		}
	}
	walk(t.roots)
	return pending
}

// LoadVisible fetches visible loading nodes level by level until none remain.
// It returns the number of nodes fetched.
func (t *Tree) LoadVisible(ctx context.Context) (int, error) {
	fetched := 0
	for {
		t.mu.Lock()
		pending := t.pendingLocked()
		t.mu.Unlock()

		if len(pending) == 0 {
			return fetched, nil
		}

		results := make([]*models.Item, len(pending))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range pending {
			g.Go(func() error {
				results[i] = t.items.FetchItem(gctx, id)
				return nil
			})
		}
		_ = g.Wait()

		// A cancelled load leaves the nodes loading rather than hiding them
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		t.mu.Lock()
		for i, id := range pending {
			t.resolveLocked(t.nodes[id], results[i])
		}
		t.mu.Unlock()

		fetched += len(pending)
		logrus.WithFields(logrus.Fields{"story": t.storyID, "nodes": len(pending)}).Debug("Resolved comment level")
	}
}

func (t *Tree) resolveLocked(node *Node, item *models.Item) {
	if node.State != StateLoading {
		return
	}
	if !item.Visible() {
		node.State = StateHidden
		return
	}
	node.State = StateResolved
	node.Item = item
	node.Text = t.gateway.NewField(item.Text, t.lang)
	node.Children = t.addChildrenLocked(item.Kids, node.Depth+1)
}

// Toggle collapses or expands a resolved node and returns the new collapsed state
func (t *Tree) Toggle(id int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[id]
	if !ok || node.State != StateResolved {
		return false, fmt.Errorf("comment %d is not loaded", id)
	}
	node.Collapsed = !node.Collapsed
	return node.Collapsed, nil
}

// ToggleTranslation switches one node between its original and translated text
func (t *Tree) ToggleTranslation(ctx context.Context, id int) (translation.Field, error) {
	t.mu.Lock()
	node, ok := t.nodes[id]
	if !ok || node.State != StateResolved {
		t.mu.Unlock()
		return translation.Field{}, fmt.Errorf("comment %d is not loaded", id)
	}
	field, lang := node.Text, t.lang
	t.mu.Unlock()

	field = t.gateway.Toggle(ctx, field, lang)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lang == lang {
		node.Text = field
	}
	return node.Text, nil
}

// SetLanguage re-initialises every node's translation from the cache for lang
func (t *Tree) SetLanguage(lang string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lang = lang
	for _, node := range t.nodes {
		if node.State == StateResolved {
			node.Text = t.gateway.NewField(node.Text.Original, lang)
		}
	}
}

// Node returns a copy of the node with id
func (t *Tree) Node(id int) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	copied := *node
	copied.Children = append([]int(nil), node.Children...)
	return copied, true
}

// Pending is the number of visible nodes still loading
func (t *Tree) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pendingLocked())
}

// Views flattens the visible tree in display order. Hidden nodes and the
// children of collapsed nodes are left out.
func (t *Tree) Views() []View {
	t.mu.Lock()
	defer t.mu.Unlock()

	views := []View{}
	var walk func(ids []int)
	walk = func(ids []int) {
		for _, id := range ids {
			node := t.nodes[id]
			switch node.State {
			case StateHidden:
				continue
			case StateLoading:
				views = append(views, View{ID: id, Depth: node.Depth, State: StateLoading})
				continue
			}
			views = append(views, View{
				ID:         id,
				Depth:      node.Depth,
				State:      StateResolved,
				By:         node.Item.By,
				Time:       node.Item.Time,
				Text:       node.Text.Display(),
				Translated: node.Text.IsTranslated(),
				Collapsed:  node.Collapsed,
				Replies:    len(node.Children),
			})
			if !node.Collapsed {
				walk(node.Children)
			}
		}
	}
	walk(t.roots)
	return views
}
