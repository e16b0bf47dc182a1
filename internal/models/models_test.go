package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedType_HasIDList(t *testing.T) {
	tests := []struct {
		feed     FeedType
		idList   bool
		expected bool
	}{
		{FeedTop, true, true},
		{FeedAsk, true, true},
		{FeedJob, false, true},
		{FeedUser, false, true},
		{FeedFavorites, false, true},
		{FeedType("polls"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.feed), func(t *testing.T) {
			assert.Equal(t, tt.idList, tt.feed.HasIDList())
			assert.Equal(t, tt.expected, tt.feed.Valid())
		})
	}
}

func TestItem_Domain(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "Strips www", url: "https://www.example.com/post/1", expected: "example.com"},
		{name: "Keeps subdomain", url: "https://blog.example.org", expected: "blog.example.org"},
		{name: "No URL", url: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{URL: tt.url}
			assert.Equal(t, tt.expected, item.Domain())
		})
	}
}

func TestItem_Headline(t *testing.T) {
	assert.Equal(t, "Show HN: a thing", (&Item{ID: 1, Title: "Show HN: a thing"}).Headline())
	assert.Equal(t, "hello world", (&Item{ID: 2, Text: "hello <i>world</i>"}).Headline())
	assert.Equal(t, "Item #3", (&Item{ID: 3}).Headline())
}

func TestItem_BodyPrefersJobText(t *testing.T) {
	item := Item{Text: "general", JobText: "we are hiring"}
	assert.Equal(t, "we are hiring", item.Body())

	item.JobText = ""
	assert.Equal(t, "general", item.Body())
}

func TestItem_NeedsUpgrade(t *testing.T) {
	assert.True(t, (&Item{Descendants: 4}).NeedsUpgrade())
	assert.False(t, (&Item{Descendants: 4, Kids: []int{1}}).NeedsUpgrade())
	assert.False(t, (&Item{}).NeedsUpgrade())
}

func TestItem_DecodeNullIsAbsent(t *testing.T) {
	var item *Item
	require.NoError(t, json.Unmarshal([]byte("null"), &item))
	assert.Nil(t, item)
	assert.False(t, item.Visible())
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "first para second para", PlainText("first para<p>second para"))
	assert.Equal(t, "a & b", PlainText("a &amp; b"))
	assert.Equal(t, "", PlainText(""))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("abc", 10))
	assert.Equal(t, "abcde...", Excerpt("abcdefgh", 5))
}

func TestKnownLanguage(t *testing.T) {
	assert.True(t, KnownLanguage("Japanese"))
	assert.False(t, KnownLanguage("japanese"))
	assert.False(t, KnownLanguage(""))
}
