package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <source url or name>",
	Short: "Show recent analyses for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of analyses to show")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	watchlistPath := filepath.Join(configDir, config.DefaultWatchlistFile)
	sources, err := config.LoadWatchlist(watchlistPath)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	src, err := findSource(sources, args[0])
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.Path, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	analyses, err := db.Analyses(nil, src.ID(), historyLimit)
	if err != nil {
		return fmt.Errorf("read analyses: %w", err)
	}

	if len(analyses) == 0 {
		fmt.Printf("No analyses recorded for %s.\n", src.Label())
		return nil
	}

	fmt.Printf("%s — %d analyses\n\n", src.Label(), len(analyses))
	for _, a := range analyses {
		rating := "unrated"
		if a.Rating > 0 {
			rating = fmt.Sprintf("rating %d", a.Rating)
		}
		changed := ""
		if a.ChangesDetected {
			changed = ", changes detected"
		}
		fmt.Printf("  %s — %s%s\n", a.AnalyzedAt.Format("2006-01-02 15:04"), rating, changed)
		for _, line := range strings.Split(strings.TrimSpace(a.Text), "\n") {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()
	}

	return nil
}

// findSource matches by exact URL first, then case-insensitive name.
func findSource(sources []config.Source, query string) (config.Source, error) {
	for _, src := range sources {
		if src.URL == query {
			return src, nil
		}
	}
	for _, src := range sources {
		if strings.EqualFold(src.Name, query) {
			return src, nil
		}
	}
	return config.Source{}, fmt.Errorf("no source matches %q", query)
}
