package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List monitored sources",
	RunE:  sourcesAction,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAction(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	watchlistPath := filepath.Join(configDir, config.DefaultWatchlistFile)
	sources, err := config.LoadWatchlist(watchlistPath)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	fmt.Printf("%d sources\n\n", len(sources))
	for _, src := range sources {
		status := "never fetched"
		if snap, found := db.Get(nil, src.ID()); found {
			status = fmt.Sprintf("last seen %s, %d items",
				snap.CapturedAt.Format("2006-01-02 15:04"), len(snap.Items))
		}

		tag := ""
		if src.Tag != "" {
			tag = " [" + src.Tag + "]"
		}
		fmt.Printf("  %s%s (%s)\n", src.Label(), tag, src.Type)
		fmt.Printf("    %s\n", src.URL)
		fmt.Printf("    %s — %s\n\n", src.ID()[:12], status)
	}

	return nil
}
