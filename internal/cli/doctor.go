package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagewatch/pagewatch/internal/config"
	"github.com/pagewatch/pagewatch/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and dependencies",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(_ *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s (run `pagewatch init`)", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		printCheck(true, "config.yaml (analyze mode %s, threshold %.2f)",
			cfg.Analyze.Mode, cfg.Compare.SimilarityThreshold)
	}

	// Watchlist
	watchlistPath := filepath.Join(configDir, config.DefaultWatchlistFile)
	sources, err := config.LoadWatchlist(watchlistPath)
	if err != nil {
		printCheck(false, "watchlist.yaml: %v", err)
		ok = false
	} else {
		pages, feeds := 0, 0
		for _, src := range sources {
			if src.Type == config.SourceTypeFeed {
				feeds++
			} else {
				pages++
			}
		}
		printCheck(true, "watchlist.yaml (%d pages, %d feeds)", pages, feeds)
	}

	// Database
	if cfg != nil {
		db, err := store.Open(cfg.Storage.Path, nil)
		if err != nil {
			printCheck(false, "database: %v", err)
			ok = false
		} else {
			count, err := db.CountSnapshots(nil)
			if err != nil {
				printCheck(false, "database: %v", err)
				ok = false
			} else {
				printCheck(true, "database %s (%d snapshots)", cfg.Storage.Path, count)
			}
			_ = db.Close()
		}
	}

	// Secrets
	if cfg != nil {
		if cfg.Fetch.Endpoint != "" {
			printCheck(cfg.Fetch.APIKey != "", "extract api key (%s)", cfg.Fetch.APIKeyEnv)
			if cfg.Fetch.APIKey == "" {
				ok = false
			}
		}
		if cfg.Analyze.Mode == "llm" {
			printCheck(cfg.Analyze.LLM.APIKey != "", "llm api key (%s)", cfg.Analyze.LLM.APIKeyEnv)
			if cfg.Analyze.LLM.APIKey == "" {
				ok = false
			}
		}
		if cfg.Notifications.Slack.Enabled {
			printCheck(cfg.Notifications.Slack.WebhookURL != "", "slack webhook url (%s)",
				cfg.Notifications.Slack.WebhookURLEnv)
			if cfg.Notifications.Slack.WebhookURL == "" {
				ok = false
			}
		}
	}

	if !ok {
		return errors.New("some checks failed")
	}
	fmt.Println("All checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}
