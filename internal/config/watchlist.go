package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SourceTypePage = "page"
	SourceTypeFeed = "feed"
)

// Source is one monitored endpoint. Sources are created and edited in
// watchlist.yaml; the monitoring core treats them as read-only.
type Source struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"`
	Type string `yaml:"type"` // "page" (default) or "feed"
}

// ID returns the stable source identifier, derived from the URL.
func (s Source) ID() string {
	sum := sha256.Sum256([]byte(s.URL))
	return hex.EncodeToString(sum[:])
}

// Label returns the human-readable name, falling back to the URL.
func (s Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

type watchlistFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadWatchlist reads the watchlist YAML file and validates it.
func LoadWatchlist(path string) ([]Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("watchlist path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wf watchlistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	if err := validateWatchlist(wf.Sources); err != nil {
		return nil, fmt.Errorf("validate watchlist: %w", err)
	}

	for i := range wf.Sources {
		if wf.Sources[i].Type == "" {
			wf.Sources[i].Type = SourceTypePage
		}
	}

	return wf.Sources, nil
}

func validateWatchlist(sources []Source) error {
	if len(sources) == 0 {
		return errors.New("at least one source must be configured")
	}

	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("sources[%d]: url is required", i)
		}
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("sources[%d]: %q is not an absolute URL", i, s.URL)
		}
		if seen[s.URL] {
			return fmt.Errorf("sources[%d]: duplicate url %q", i, s.URL)
		}
		seen[s.URL] = true

		switch s.Type {
		case "", SourceTypePage, SourceTypeFeed:
			// valid
		default:
			return fmt.Errorf("sources[%d]: unknown type %q (want page or feed)", i, s.Type)
		}
	}
	return nil
}
