package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagewatch/pagewatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	watchlistPath := filepath.Join(configDir, config.DefaultWatchlistFile)
	wrote, err = writeIfNotExists(watchlistPath, []byte(exampleWatchlist))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# pagewatch configuration

storage:
  path: .pagewatch/pagewatch.db

compare:
  # Similarity below this ratio counts as a significant change.
  similarity_threshold: 0.9

fetch:
  # Structured-extraction API. Leave endpoint empty to scrape directly.
  endpoint: ""
  api_key_env: PAGEWATCH_EXTRACT_API_KEY
  max_content_length: 50000
  requests_per_second: 1
  burst: 2

analyze:
  # "heuristic" needs no API; "llm" requires a model and api key.
  mode: heuristic
  llm:
    model: ""
    api_key_env: PAGEWATCH_LLM_API_KEY
    max_tokens: 600

notifications:
  min_rating: 3
  slack:
    enabled: false
    webhook_url_env: PAGEWATCH_SLACK_WEBHOOK_URL
    include_content_preview: true
  email:
    enabled: false
    api_key_env: PAGEWATCH_EMAIL_API_KEY
    from: ""
    to: []
  file:
    enabled: true
    dir: notifications
`

const exampleWatchlist = `# pagewatch watchlist

sources:
  - url: "https://example.org/news"
    name: "Example news page"
    tag: "local"
    type: page
  # - url: "https://example.org/feed.xml"
  #   name: "Example feed"
  #   type: feed
`
