// Package report renders cycle results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pagewatch/pagewatch/internal/monitor"
)

// TerminalFormatter formats a cycle summary for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes the result list to w grouped by outcome.
func (f *TerminalFormatter) Format(w io.Writer, results []monitor.Result) error {
	analyzed, quiet, failed := groupByStatus(results)

	header := fmt.Sprintf("pagewatch — %d sources, %d analyzed, %d unchanged, %d failed",
		len(results), len(analyzed), len(quiet), len(failed))
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(results) == 0 {
		fmt.Fprintln(w, "No sources configured.")
		return nil
	}

	if len(analyzed) > 0 {
		fmt.Fprintln(w, f.green(f.bold(fmt.Sprintf("--- Changes (%d) ---", len(analyzed)))))
		fmt.Fprintln(w)
		for _, r := range analyzed {
			f.writeChange(w, r)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, f.yellow(f.bold(fmt.Sprintf("--- Failed (%d) ---", len(failed)))))
		fmt.Fprintln(w)
		for _, r := range failed {
			fmt.Fprintf(w, "  %s — %s\n", r.Source.Label(), f.dim(r.Err))
		}
		fmt.Fprintln(w)
	}

	if len(quiet) > 0 {
		fmt.Fprintln(w, f.dim(fmt.Sprintf("Unchanged: %d sources", len(quiet))))
	}

	return nil
}

func (f *TerminalFormatter) writeChange(w io.Writer, r monitor.Result) {
	rating := "unrated"
	if v := r.Rating(); v > 0 {
		rating = fmt.Sprintf("[%d]", v)
	}

	fmt.Fprintf(w, "  %s %s %s\n",
		f.bold(rating),
		r.Source.Label(),
		f.dim(fmt.Sprintf("(similarity %.2f, %d new)", r.Similarity, len(r.NewItems))),
	)

	for _, item := range r.NewItems {
		line := "      + " + item.Key()
		if item.Rating > 0 {
			line += fmt.Sprintf(" [%d]", item.Rating)
		}
		if !item.FirstSeen.IsZero() {
			line += " " + f.dim("first seen "+humanize.Time(item.FirstSeen))
		}
		fmt.Fprintln(w, line)
	}

	if r.Analysis != nil && r.Analysis.Text != "" {
		fmt.Fprintf(w, "      %s\n", f.dim(firstLine(r.Analysis.Text)))
	}
	if r.Source.URL != "" {
		fmt.Fprintf(w, "      %s\n", f.dim(r.Source.URL))
	}
	fmt.Fprintln(w)
}

func groupByStatus(results []monitor.Result) (analyzed, quiet, failed []monitor.Result) {
	for _, r := range results {
		switch r.Status {
		case monitor.StatusAnalyzed:
			analyzed = append(analyzed, r)
		case monitor.StatusError:
			failed = append(failed, r)
		default:
			quiet = append(quiet, r)
		}
	}
	return
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ANSI helpers — no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) green(s string) string {
	if !f.color {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
