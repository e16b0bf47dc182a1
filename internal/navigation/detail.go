package navigation

import (
	"context"

	"github.com/azure/hn-reader/internal/comments"
	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/translation"
)

// detail is the state of the story detail view
type detail struct {
	story       models.Item
	title       translation.Field
	body        translation.Field
	summary     string
	showSummary bool
	comments    *comments.Tree
}

func newDetail(item models.Item, items sources.ItemSource, gateway *translation.Gateway, lang string) *detail {
	d := &detail{
		story:    item,
		title:    gateway.NewField(item.Title, lang),
		body:     gateway.NewField(item.Body(), lang),
		comments: comments.NewTree(items, gateway, item, lang),
	}
	if summary, ok := gateway.CachedSummary(item.ID, lang); ok {
		d.summary = summary
	}
	return d
}

// upgrade swaps in the full record of the same story, keeping the view state
// of fields whose text did not change
func (d *detail) upgrade(full models.Item, items sources.ItemSource, gateway *translation.Gateway, lang string) {
	d.story = full
	if full.Title != d.title.Original {
		d.title = gateway.NewField(full.Title, lang)
	}
	if full.Body() != d.body.Original {
		d.body = gateway.NewField(full.Body(), lang)
	}
	d.comments = comments.NewTree(items, gateway, full, lang)
}

func (d *detail) setLanguage(gateway *translation.Gateway, lang string) {
	d.title = gateway.NewField(d.title.Original, lang)
	d.body = gateway.NewField(d.body.Original, lang)
	d.summary, _ = gateway.CachedSummary(d.story.ID, lang)
	d.showSummary = false
	d.comments.SetLanguage(lang)
}

// DetailView is the story detail as the presentation layer sees it
type DetailView struct {
	Story           models.Item       `json:"story"`
	Domain          string            `json:"domain,omitempty"`
	DiscussionURL   string            `json:"discussion_url"`
	Favorite        bool              `json:"favorite"`
	Title           translation.Field `json:"title"`
	Body            translation.Field `json:"body"`
	Summary         string            `json:"summary,omitempty"`
	ShowSummary     bool              `json:"show_summary"`
	Comments        []comments.View   `json:"comments"`
	PendingComments int               `json:"pending_comments"`
}

func (d *detail) view(prefs Preferences) DetailView {
	return DetailView{
		Story:           d.story,
		Domain:          d.story.Domain(),
		DiscussionURL:   d.story.DiscussionURL(),
		Favorite:        prefs.IsSaved(d.story.ID),
		Title:           d.title,
		Body:            d.body,
		Summary:         d.summary,
		ShowSummary:     d.showSummary,
		Comments:        d.comments.Views(),
		PendingComments: d.comments.Pending(),
	}
}

// currentDetail returns the open detail with the selection epoch and language
func (n *Navigator) currentDetail() (*detail, uint64, string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.kind != SelectionStory || n.detail == nil {
		return nil, 0, "", ErrNoSelection
	}
	return n.detail, n.epoch, n.prefs.Language(), nil
}

// Summarize shows the summary panel, generating the summary if it is not cached
func (n *Navigator) Summarize(ctx context.Context) (string, error) {
	d, epoch, lang, err := n.currentDetail()
	if err != nil {
		return "", err
	}

	n.mu.Lock()
	d.showSummary = true
	story := d.story
	if cached, ok := n.gateway.CachedSummary(story.ID, lang); ok {
		d.summary = cached
		n.mu.Unlock()
		return cached, nil
	}
	n.mu.Unlock()

	summary := n.gateway.Summarize(ctx, story, lang)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.epoch == epoch && n.detail == d && n.prefs.Language() == lang {
		d.summary = summary
	}
	return summary, nil
}

// HideSummary closes the summary panel
func (n *Navigator) HideSummary() error {
	d, _, _, err := n.currentDetail()
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	d.showSummary = false
	return nil
}

// ToggleTitleTranslation flips the title between original and translated
func (n *Navigator) ToggleTitleTranslation(ctx context.Context) (translation.Field, error) {
	return n.toggleField(ctx, func(d *detail) *translation.Field { return &d.title })
}

// ToggleBodyTranslation flips the body between original and translated
func (n *Navigator) ToggleBodyTranslation(ctx context.Context) (translation.Field, error) {
	return n.toggleField(ctx, func(d *detail) *translation.Field { return &d.body })
}

func (n *Navigator) toggleField(ctx context.Context, pick func(*detail) *translation.Field) (translation.Field, error) {
	d, epoch, lang, err := n.currentDetail()
	if err != nil {
		return translation.Field{}, err
	}

	n.mu.Lock()
	field := *pick(d)
	n.mu.Unlock()

	field = n.gateway.Toggle(ctx, field, lang)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.epoch == epoch && n.detail == d && n.prefs.Language() == lang {
		*pick(d) = field
	}
	return *pick(d), nil
}

// LoadComments fetches the comment nodes of the selected story that are on screen
func (n *Navigator) LoadComments(ctx context.Context) (int, error) {
	tree, err := n.Comments()
	if err != nil {
		return 0, err
	}
	return tree.LoadVisible(ctx)
}

// ToggleComment collapses or expands a comment
func (n *Navigator) ToggleComment(id int) (bool, error) {
	tree, err := n.Comments()
	if err != nil {
		return false, err
	}
	return tree.Toggle(id)
}

// TranslateComment flips one comment between original and translated
func (n *Navigator) TranslateComment(ctx context.Context, id int) (translation.Field, error) {
	tree, err := n.Comments()
	if err != nil {
		return translation.Field{}, err
	}
	return tree.ToggleTranslation(ctx, id)
}
