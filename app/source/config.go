package source

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPageLimit = 37
	defaultTimeout   = 30
	defaultInterval  = 1200
)

// LoadConfigs reads every *.yml file in the given directory into a source
// configuration keyed by name. The name is derived from the filename.
func LoadConfigs(sourcesDir string) (map[string]*Config, error) {
	if _, err := os.Stat(sourcesDir); os.IsNotExist(err) {
		return map[string]*Config{}, nil
	}

	files, err := filepath.Glob(filepath.Join(sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	configs := make(map[string]*Config, len(files))
	for _, file := range files {
		config, err := loadConfig(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		configs[config.Name] = config
		slog.Debug("Source configuration loaded", "source", config.Name,
			"type", string(config.Type), "enabled", config.Settings.Enabled,
			"interval", config.Settings.Interval)
	}

	return configs, nil
}

func loadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Name = strings.TrimSuffix(filepath.Base(file), ".yml")

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Settings.PageLimit <= 0 {
		config.Settings.PageLimit = defaultPageLimit
	}
	if config.Settings.Timeout <= 0 {
		config.Settings.Timeout = defaultTimeout
	}
	if config.Settings.Interval <= 0 {
		config.Settings.Interval = defaultInterval
	}
}

func validateConfig(config *Config) error {
	if config.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	switch config.Type {
	case SourceTypePage, SourceTypeFeed:
	default:
		return fmt.Errorf("unknown source type '%s' (expected 'page' or 'feed')", config.Type)
	}

	for _, filter := range config.Filters {
		switch filter.Field {
		case "title", "categories":
		default:
			return fmt.Errorf("unknown filter field '%s' (expected 'title' or 'categories')", filter.Field)
		}
	}

	return nil
}

// New builds the source implementation selected by the configuration
func New(config *Config, client *http.Client, userAgent string) (Source, error) {
	switch config.Type {
	case SourceTypePage:
		return NewPageScraper(config, client, userAgent), nil
	case SourceTypeFeed:
		return NewFeedSource(config, client, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", config.Type)
	}
}
