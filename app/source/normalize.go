package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText collapses runs of whitespace and applies NFC so that the same
// sermon extracted from the HTML listing and from the podcast feed compares
// equal during deduplication.
func normalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func joinCategories(categories []string) string {
	cleaned := make([]string, 0, len(categories))
	for _, category := range categories {
		if c := normalizeText(category); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return Uncategorized
	}
	return strings.Join(cleaned, ", ")
}
