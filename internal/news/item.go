// Package news derives discrete news items from fetched page content.
package news

import (
	"strings"
	"time"
)

// MaxSnippetRunes bounds the stored body snippet of an item.
const MaxSnippetRunes = 500

// Item is one discrete unit of content attributable to a source.
// Identity is the trimmed title; FirstSeen is stamped by the snapshot
// store when the item is first admitted and never changes afterwards.
type Item struct {
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"` // free-form, carried through as published
	Snippet   string    `json:"snippet,omitempty"`
	URL       string    `json:"url,omitempty"`
	Rating    int       `json:"rating,omitempty"` // 1-5, 0 when unrated
	FirstSeen time.Time `json:"first_seen,omitempty"`
}

// Key returns the dedup identity of the item.
func (i Item) Key() string {
	return strings.TrimSpace(i.Title)
}

// RawItem is an item-shaped record as delivered by a structured upstream
// (extract API response, feed entry) before normalization.
type RawItem struct {
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}
