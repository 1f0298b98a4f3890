package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagewatch/pagewatch/internal/analyze"
	"github.com/pagewatch/pagewatch/internal/compare"
	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/fetch"
	"github.com/pagewatch/pagewatch/internal/logging"
	"github.com/pagewatch/pagewatch/internal/monitor"
	"github.com/pagewatch/pagewatch/internal/notify"
	"github.com/pagewatch/pagewatch/internal/report"
	"github.com/pagewatch/pagewatch/internal/store"
)

var noColor bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one monitoring cycle over all sources",
	RunE:  runAction,
}

func init() {
	runCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	rootCmd.AddCommand(runCmd)
}

func runAction(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	watchlistPath := filepath.Join(configDir, config.DefaultWatchlistFile)
	sources, err := config.LoadWatchlist(watchlistPath)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	m := monitor.New(
		sources,
		fetch.NewClient(cfg.Fetch, log),
		db,
		compare.New(cfg.Compare.SimilarityThreshold),
		analyze.New(cfg.Analyze, log),
		notify.New(cfg.Notifications, log),
		log,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results := m.Run(ctx)

	formatter := report.NewTerminal(!noColor)
	return formatter.Format(os.Stdout, results)
}
