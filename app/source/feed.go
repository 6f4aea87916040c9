package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

var _ Source = (*FeedSource)(nil)

// FeedSource extracts sermon candidates from an XML podcast feed. Only items
// carrying an audio enclosure become candidates.
type FeedSource struct {
	config       *Config
	client       *http.Client
	userAgent    string
	gofeedParser *gofeed.Parser
}

func NewFeedSource(config *Config, client *http.Client, userAgent string) *FeedSource {
	return &FeedSource{
		config:       config,
		client:       client,
		userAgent:    userAgent,
		gofeedParser: gofeed.NewParser(),
	}
}

func (s *FeedSource) Name() string {
	return s.config.Name
}

func (s *FeedSource) Fetch(ctx context.Context) ([]Candidate, error) {
	data, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	feed, err := s.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed: %v", ErrSourceUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		audioURL := audioEnclosureURL(item)
		if audioURL == "" {
			slog.Debug("Feed item without audio enclosure, dropping", "source", s.config.Name, "title", item.Title)
			continue
		}

		title := normalizeText(item.Title)
		if title == "" {
			title = UnknownTitle
		}

		candidates = append(candidates, Candidate{
			Title:      title,
			AudioURL:   audioURL,
			Categories: joinCategories(item.Categories),
		})
	}

	return candidates, nil
}

func (s *FeedSource) fetchFeed(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", s.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// audioEnclosureURL returns the URL of the first enclosure with an audio
// MIME type, or empty when the item has none
func audioEnclosureURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "audio/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	return ""
}
