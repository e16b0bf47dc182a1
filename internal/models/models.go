package models

import (
	"fmt"
	"net/url"
	"strings"
)

// ItemType is the upstream "type" tag of an item
type ItemType string

const (
	TypeStory   ItemType = "story"
	TypeComment ItemType = "comment"
	TypeJob     ItemType = "job"
	TypePoll    ItemType = "poll"
	TypePollOpt ItemType = "pollopt"
)

// FeedType names a feed or pseudo-feed
type FeedType string

const (
	FeedTop       FeedType = "top"
	FeedNew       FeedType = "new"
	FeedBest      FeedType = "best"
	FeedShow      FeedType = "show"
	FeedAsk       FeedType = "ask"
	FeedJob       FeedType = "job"
	FeedUser      FeedType = "user"
	FeedFavorites FeedType = "favorites"
)

// IDListFeeds are the feeds backed by a /{feed}stories.json id sequence
var IDListFeeds = []FeedType{FeedTop, FeedNew, FeedBest, FeedShow, FeedAsk}

// HasIDList reports whether the feed is materialized from an id sequence
func (f FeedType) HasIDList() bool {
	for _, feed := range IDListFeeds {
		if f == feed {
			return true
		}
	}
	return false
}

// Valid reports whether f is a known feed
func (f FeedType) Valid() bool {
	return f.HasIDList() || f == FeedJob || f == FeedUser || f == FeedFavorites
}

// Languages offered for translation and summaries
var Languages = []Language{
	{Code: "Chinese", Label: "中文"},
	{Code: "English", Label: "English"},
	{Code: "French", Label: "Français"},
	{Code: "German", Label: "Deutsch"},
	{Code: "Japanese", Label: "日本語"},
	{Code: "Korean", Label: "한국어"},
}

// Language is a translation target shown in the language picker
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// KnownLanguage reports whether code is one of Languages
func KnownLanguage(code string) bool {
	for _, lang := range Languages {
		if lang.Code == code {
			return true
		}
	}
	return false
}

// Item is a story, comment, job, poll or poll option.
// Items obtained through the search index also carry StoryID/StoryTitle for comments.
type Item struct {
	ID          int      `json:"id"`
	Deleted     bool     `json:"deleted,omitempty"`
	Type        ItemType `json:"type"`
	By          string   `json:"by,omitempty"`
	Time        int64    `json:"time"`
	Text        string   `json:"text,omitempty"`
	JobText     string   `json:"job_text,omitempty"`
	Dead        bool     `json:"dead,omitempty"`
	Parent      int      `json:"parent,omitempty"`
	Poll        int      `json:"poll,omitempty"`
	Kids        []int    `json:"kids,omitempty"`
	URL         string   `json:"url,omitempty"`
	Score       int      `json:"score,omitempty"`
	Title       string   `json:"title,omitempty"`
	Parts       []int    `json:"parts,omitempty"`
	Descendants int      `json:"descendants,omitempty"`

	StoryID    int    `json:"story_id,omitempty"`
	StoryTitle string `json:"story_title,omitempty"`
}

// User is a Hacker News member profile
type User struct {
	ID        string `json:"id"`
	Created   int64  `json:"created"`
	Karma     int    `json:"karma"`
	About     string `json:"about,omitempty"`
	Submitted []int  `json:"submitted,omitempty"`
}

// Visible is false for items that must never be shown
func (i *Item) Visible() bool {
	return i != nil && !i.Deleted && !i.Dead
}

// Body returns the job-specific text when present, the general text otherwise
func (i *Item) Body() string {
	if i.JobText != "" {
		return i.JobText
	}
	return i.Text
}

// NeedsUpgrade is true for shallow items whose comment ids were not delivered
// even though the item has comments.
func (i *Item) NeedsUpgrade() bool {
	return i.Kids == nil && i.Descendants > 0
}

// Domain returns the hostname of the target URL without a leading "www."
func (i *Item) Domain() string {
	if i.URL == "" {
		return ""
	}
	u, err := url.Parse(i.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Headline is the one-line label used in activity lists
func (i *Item) Headline() string {
	if i.Title != "" {
		return i.Title
	}
	if text := PlainText(i.Body()); text != "" {
		return text
	}
	return fmt.Sprintf("Item #%d", i.ID)
}

// DiscussionURL links to the item on news.ycombinator.com
func (i *Item) DiscussionURL() string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", i.ID)
}
