package news

import (
	"regexp"
	"strings"
)

var (
	// [**Title**](https://example.com/article) as produced by the
	// markdown rendering of the monitored pages.
	linkTitleRe = regexp.MustCompile(`\[\*\*(.*?)\*\*\]\((https?://[^)]+)\)`)

	// Date-shaped substring such as "12 March, 2026".
	dateRe = regexp.MustCompile(`(\d+\s+\w+,\s+\d{4})`)
)

// dateSearchWindow is how far past a title match a date is looked for.
const dateSearchWindow = 100

// ContentInput is the tagged input to Extract: either a structured list
// of item records delivered by the fetcher, or raw page text to scan.
type ContentInput struct {
	items      []RawItem
	raw        string
	structured bool
}

// Structured wraps item records already extracted upstream.
func Structured(items []RawItem) ContentInput {
	return ContentInput{items: items, structured: true}
}

// Raw wraps page text for pattern-based extraction.
func Raw(text string) ContentInput {
	return ContentInput{raw: text}
}

// Extract normalizes the input into a deduplicated item list. Structured
// input is mapped field by field; raw text goes through pattern scanning.
// pageURL is the fallback link for items that carry none of their own.
func Extract(in ContentInput, pageURL string) []Item {
	var items []Item
	if in.structured {
		items = fromStructured(in.items, pageURL)
	} else {
		items = fromRaw(in.raw, pageURL)
	}
	return dedupe(items)
}

func fromStructured(raw []RawItem, pageURL string) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		url := r.URL
		if url == "" {
			url = pageURL
		}
		items = append(items, Item{
			Title:   strings.TrimSpace(r.Title),
			Date:    r.Date,
			Snippet: strings.TrimSpace(firstNRunes(r.Content, MaxSnippetRunes)),
			URL:     url,
		})
	}
	return items
}

func fromRaw(text, pageURL string) []Item {
	matches := linkTitleRe.FindAllStringSubmatchIndex(text, -1)

	var items []Item
	for i, m := range matches {
		title := text[m[2]:m[3]]
		url := text[m[4]:m[5]]
		if url == "" {
			url = pageURL
		}

		after := text[m[1]:]

		// Date near the title, if any.
		window := after
		if len(window) > dateSearchWindow {
			window = window[:dateSearchWindow]
		}
		date := ""
		if dm := dateRe.FindString(window); dm != "" {
			date = dm
		}

		// Body runs to the next title match or end of text.
		bodyEnd := len(after)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0] - m[1]
		}
		snippet := strings.TrimSpace(firstNRunes(after[:bodyEnd], MaxSnippetRunes))

		items = append(items, Item{
			Title:   strings.TrimSpace(title),
			Date:    date,
			Snippet: snippet,
			URL:     url,
		})
	}
	return items
}

// dedupe keeps the first occurrence of each trimmed title, preserving
// order. Empty titles are a valid (degenerate) key and are kept too.
func dedupe(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := it.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// firstNRunes returns the first n runes of s.
func firstNRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
