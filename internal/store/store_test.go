package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagewatch/pagewatch/internal/news"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pagewatch.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingSource(t *testing.T) {
	s := openTestStore(t)

	_, found := s.Get(context.Background(), "nope")
	if found {
		t.Errorf("Get on empty store reported a snapshot")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	captured := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := Snapshot{
		URL:        "https://example.org/news",
		Content:    "hello world",
		CapturedAt: captured,
		Items: []news.Item{
			{Title: "Storm warning", Date: "1 March, 2026", Snippet: "Strong winds expected."},
		},
	}
	if err := s.Put(ctx, "src-1", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, found := s.Get(ctx, "src-1")
	if !found {
		t.Fatalf("Get: snapshot not found after Put")
	}
	if out.URL != in.URL {
		t.Errorf("url = %q, want %q", out.URL, in.URL)
	}
	if out.Content != in.Content {
		t.Errorf("content = %q, want %q", out.Content, in.Content)
	}
	if !out.CapturedAt.Equal(captured) {
		t.Errorf("captured_at = %v, want %v", out.CapturedAt, captured)
	}
	if len(out.Items) != 1 || out.Items[0].Title != "Storm warning" {
		t.Errorf("items = %v, want the storm warning item", out.Items)
	}
	if out.Items[0].FirstSeen.IsZero() {
		t.Errorf("first_seen not stamped on new item")
	}
}

func TestPutMergeIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := Snapshot{
		URL:     "https://example.org",
		Content: "v1",
		Items:   []news.Item{{Title: "A"}, {Title: "B"}},
	}
	if err := s.Put(ctx, "src", snap); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := s.Put(ctx, "src", snap); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	items, err := s.Items(ctx, "src")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items after double Put = %d, want 2", len(items))
	}
	if items[0].Title != "A" || items[1].Title != "B" {
		t.Errorf("order = [%q, %q], want [A, B]", items[0].Title, items[1].Title)
	}
}

func TestPutPreservesFirstSeenOfExistingItem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return t0 }
	defer func() { nowFunc = time.Now }()

	first := Snapshot{Content: "v1", Items: []news.Item{{Title: "Storm warning"}}}
	if err := s.Put(ctx, "src", first); err != nil {
		t.Fatalf("Put at t0: %v", err)
	}

	nowFunc = func() time.Time { return t0.Add(24 * time.Hour) }
	second := Snapshot{Content: "v2", Items: []news.Item{
		{Title: "Storm warning", Snippet: "edited snippet"},
		{Title: "New playground opens"},
	}}
	if err := s.Put(ctx, "src", second); err != nil {
		t.Fatalf("Put at t1: %v", err)
	}

	items, err := s.Items(ctx, "src")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if !items[0].FirstSeen.Equal(t0) {
		t.Errorf("existing item first_seen = %v, want original %v", items[0].FirstSeen, t0)
	}
	if items[0].Snippet != "" {
		t.Errorf("existing item snippet overwritten to %q", items[0].Snippet)
	}
	if !items[1].FirstSeen.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("new item first_seen = %v, want t1", items[1].FirstSeen)
	}
}

func TestPutMergesOnTrimmedTitle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "src", Snapshot{Items: []news.Item{{Title: "Headline"}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "src", Snapshot{Items: []news.Item{{Title: "  Headline  "}}}); err != nil {
		t.Fatalf("Put with padded title: %v", err)
	}

	items, err := s.Items(ctx, "src")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want padded title merged into existing record", len(items))
	}
}

func TestPutReplacesContent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "src", Snapshot{Content: "old"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "src", Snapshot{Content: "new"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	snap, found := s.Get(ctx, "src")
	if !found {
		t.Fatalf("Get: snapshot not found")
	}
	if snap.Content != "new" {
		t.Errorf("content = %q, want latest write", snap.Content)
	}
}

func TestSourcesAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "a", Snapshot{Items: []news.Item{{Title: "Shared title"}}}); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := s.Put(ctx, "b", Snapshot{Items: []news.Item{{Title: "Shared title"}}}); err != nil {
		t.Fatalf("Put b: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		items, err := s.Items(ctx, id)
		if err != nil {
			t.Fatalf("Items(%s): %v", id, err)
		}
		if len(items) != 1 {
			t.Errorf("source %s items = %d, want 1", id, len(items))
		}
	}

	count, err := s.CountSnapshots(ctx)
	if err != nil {
		t.Fatalf("CountSnapshots: %v", err)
	}
	if count != 2 {
		t.Errorf("snapshot count = %d, want 2", count)
	}
}

func TestAnalysesNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := Analysis{
			SourceID:   "src",
			URL:        "https://example.org",
			Rating:     i + 1,
			Text:       "verdict",
			AnalyzedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	got, err := s.Analyses(ctx, "src", 2)
	if err != nil {
		t.Fatalf("Analyses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("analyses = %d, want limit 2", len(got))
	}
	if got[0].Rating != 3 || got[1].Rating != 2 {
		t.Errorf("ratings = [%d, %d], want newest first [3, 2]", got[0].Rating, got[1].Rating)
	}
}

func TestOpenReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagewatch.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, "src", Snapshot{Content: "persisted"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	snap, found := s2.Get(ctx, "src")
	if !found {
		t.Fatalf("snapshot lost across reopen")
	}
	if snap.Content != "persisted" {
		t.Errorf("content = %q, want %q", snap.Content, "persisted")
	}
}
