package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var _ Source = (*PageScraper)(nil)

// PageScraper extracts sermon candidates from a paginated HTML listing.
// Pages are fetched in order until the configured limit, the first empty
// page, or the first non-200 response; all three are treated as end of
// content rather than failure.
type PageScraper struct {
	config    *Config
	client    *http.Client
	userAgent string
}

func NewPageScraper(config *Config, client *http.Client, userAgent string) *PageScraper {
	return &PageScraper{
		config:    config,
		client:    client,
		userAgent: userAgent,
	}
}

func (s *PageScraper) Name() string {
	return s.config.Name
}

func (s *PageScraper) Fetch(ctx context.Context) ([]Candidate, error) {
	var all []Candidate

	for page := 1; page <= s.config.Settings.PageLimit; page++ {
		candidates, err := s.fetchPage(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			}
			// Mid-pagination failure: keep what was accumulated so far
			slog.Warn("Page fetch failed, stopping pagination", "source", s.config.Name, "page", page, "error", err)
			break
		}

		if len(candidates) == 0 {
			slog.Debug("Empty page, end of content", "source", s.config.Name, "page", page)
			break
		}

		all = append(all, candidates...)
	}

	return all, nil
}

func (s *PageScraper) fetchPage(ctx context.Context, page int) ([]Candidate, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Settings.Timeout)*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s%d/", strings.TrimSuffix(s.config.URL, "/")+"/", page)

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Non-200 page response, end of content", "source", s.config.Name, "page", page, "status", resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	return s.extractCandidates(doc), nil
}

func (s *PageScraper) extractCandidates(doc *goquery.Document) []Candidate {
	var candidates []Candidate

	doc.Find("div.fusion-post-timeline").Each(func(_ int, block *goquery.Selection) {
		title := normalizeText(block.Find("h2.entry-title").First().Text())
		if title == "" {
			title = UnknownTitle
		}

		var categories []string
		block.Find(`a[rel="category tag"]`).Each(func(_ int, link *goquery.Selection) {
			categories = append(categories, link.Text())
		})

		audioURL, _ := block.Find("audio.wp-audio-shortcode source").First().Attr("src")
		if audioURL == "" {
			// A sermon without an audio source cannot be ingested
			slog.Debug("Sermon block without audio source, dropping", "source", s.config.Name, "title", title)
			return
		}

		candidates = append(candidates, Candidate{
			Title:      title,
			AudioURL:   audioURL,
			Categories: joinCategories(categories),
		})
	})

	return candidates
}
