package models

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an HN text field, collapsing whitespace.
// Input that cannot be parsed is returned trimmed.
func PlainText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt returns at most n runes of the plain text, with "..." appended when cut
func Excerpt(html string, n int) string {
	text := []rune(PlainText(html))
	if n <= 0 || len(text) <= n {
		return string(text)
	}
	return strings.TrimSpace(string(text[:n])) + "..."
}
