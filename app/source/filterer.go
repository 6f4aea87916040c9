package source

import (
	"fmt"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run applies the source's include/exclude filters and returns the
// candidates that survive, plus the number excluded.
func (f *Filterer) Run(candidates []Candidate, config *Config) ([]Candidate, int) {
	if len(config.Filters) == 0 {
		return candidates, 0
	}

	kept := make([]Candidate, 0, len(candidates))
	excluded := 0
	for _, candidate := range candidates {
		if _, reason := f.applyFilters(candidate, config.Filters); reason != "" {
			excluded++
			continue
		}
		kept = append(kept, candidate)
	}

	return kept, excluded
}

func (f *Filterer) applyFilters(candidate Candidate, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(candidate, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(candidate Candidate, field string) string {
	switch field {
	case "title":
		return candidate.Title
	case "categories":
		return candidate.Categories
	default:
		return ""
	}
}
