package source

import (
	"context"
	"errors"
)

// ErrSourceUnavailable indicates the source itself could not be retrieved or
// parsed. A pass over that source yields zero candidates; the condition is
// logged and reported but does not stop other sources.
var ErrSourceUnavailable = errors.New("source unavailable")

// Placeholder values used when extraction comes up empty
const (
	UnknownTitle  = "Unknown Sermon"
	Uncategorized = "Uncategorized"
)

// Candidate is one sermon extracted from a source, before identity
// resolution. It lives only for the duration of a single ingestion pass.
type Candidate struct {
	Title      string
	AudioURL   string
	Categories string // comma-joined tag list
}

// Source retrieves and parses one configured sermon source
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

type SourceType string

const (
	SourceTypePage SourceType = "page"
	SourceTypeFeed SourceType = "feed"
)

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Type     SourceType     `yaml:"type"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled   bool `yaml:"enabled"`
	PageLimit int  `yaml:"page_limit"` // page-scrape variant only
	Timeout   int  `yaml:"timeout"`    // seconds, per HTTP request
	Interval  int  `yaml:"interval"`   // seconds between passes
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
