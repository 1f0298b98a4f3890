package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pagewatch/pagewatch/internal/analyze"
	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/monitor"
	"github.com/pagewatch/pagewatch/internal/news"
)

func TestFormat_FullCycle(t *testing.T) {
	f := NewTerminal(false)
	var buf bytes.Buffer

	results := []monitor.Result{
		{
			Source:     config.Source{URL: "https://example.org/news", Name: "Town"},
			Status:     monitor.StatusAnalyzed,
			Similarity: 0.82,
			NewItems: []news.Item{
				{Title: "Storm warning", Rating: 5, FirstSeen: time.Now().Add(-2 * time.Hour)},
			},
			Items:    []news.Item{{Title: "Storm warning", Rating: 5}},
			Analysis: &analyze.Analysis{Text: "Major weather event.\nDetails follow.", Rating: 4},
		},
		{
			Source: config.Source{URL: "https://quiet.example.org", Name: "Quiet"},
			Status: monitor.StatusSuccess,
		},
		{
			Source: config.Source{URL: "https://down.example.org", Name: "Down"},
			Status: monitor.StatusError,
			Err:    "connection refused",
		},
	}

	if err := f.Format(&buf, results); err != nil {
		t.Fatalf("format: %v", err)
	}

	out := buf.String()

	if !strings.Contains(out, "pagewatch") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "3 sources") {
		t.Error("missing source count")
	}
	if !strings.Contains(out, "Changes (1)") {
		t.Error("missing changes section")
	}
	if !strings.Contains(out, "[5]") {
		t.Error("missing rating")
	}
	if !strings.Contains(out, "+ Storm warning") {
		t.Error("missing new item line")
	}
	if !strings.Contains(out, "2 hours ago") {
		t.Error("missing humanized first-seen time")
	}
	if !strings.Contains(out, "Major weather event.") {
		t.Error("missing analysis first line")
	}
	if strings.Contains(out, "Details follow.") {
		t.Error("analysis not truncated to first line")
	}
	if !strings.Contains(out, "Failed (1)") {
		t.Error("missing failed section")
	}
	if !strings.Contains(out, "connection refused") {
		t.Error("missing failure description")
	}
	if !strings.Contains(out, "Unchanged: 1 sources") {
		t.Error("missing unchanged footer")
	}
}

func TestFormat_Empty(t *testing.T) {
	f := NewTerminal(false)
	var buf bytes.Buffer

	if err := f.Format(&buf, nil); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "No sources configured.") {
		t.Error("missing empty message")
	}
}

func TestFormat_NoColorByDefault(t *testing.T) {
	f := NewTerminal(false)
	var buf bytes.Buffer

	results := []monitor.Result{{
		Source: config.Source{URL: "https://example.org", Name: "Town"},
		Status: monitor.StatusAnalyzed,
	}}
	if err := f.Format(&buf, results); err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("ANSI escapes present with color disabled")
	}
}

func TestFormat_ColorEnabled(t *testing.T) {
	f := NewTerminal(true)
	var buf bytes.Buffer

	results := []monitor.Result{{
		Source: config.Source{URL: "https://example.org", Name: "Town"},
		Status: monitor.StatusAnalyzed,
	}}
	if err := f.Format(&buf, results); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[1m") {
		t.Error("bold escape missing with color enabled")
	}
}
