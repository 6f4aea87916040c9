package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Sermon Podcast</title>
	<item>
		<title>Grace and Truth</title>
		<category>Grace</category>
		<category>Doctrine</category>
		<enclosure url="http://cdn.example.com/audio/grace-and-truth.mp3" length="1024" type="audio/mpeg"/>
	</item>
	<item>
		<title>Show Notes Only</title>
		<enclosure url="http://cdn.example.com/notes.pdf" length="10" type="application/pdf"/>
	</item>
	<item>
		<enclosure url="http://cdn.example.com/audio/untitled.mp3" length="2048" type="audio/mpeg"/>
	</item>
</channel>
</rss>`

func feedConfig(url string) *Config {
	return &Config{
		Name: "test-feed",
		URL:  url,
		Type: SourceTypeFeed,
		Settings: ConfigSettings{
			Enabled: true,
			Timeout: 5,
		},
	}
}

func TestFeedSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	feedSource := NewFeedSource(feedConfig(server.URL), server.Client(), "test-agent")

	candidates, err := feedSource.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// The PDF-only item is dropped; the untitled one gets the placeholder
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Grace and Truth" {
		t.Errorf("Expected title 'Grace and Truth', got %q", first.Title)
	}
	if first.AudioURL != "http://cdn.example.com/audio/grace-and-truth.mp3" {
		t.Errorf("Unexpected audio URL: %q", first.AudioURL)
	}
	if first.Categories != "Grace, Doctrine" {
		t.Errorf("Expected categories 'Grace, Doctrine', got %q", first.Categories)
	}

	second := candidates[1]
	if second.Title != UnknownTitle {
		t.Errorf("Expected placeholder title %q, got %q", UnknownTitle, second.Title)
	}
	if second.Categories != Uncategorized {
		t.Errorf("Expected placeholder categories %q, got %q", Uncategorized, second.Categories)
	}
}

func TestFeedSource_Fetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	feedSource := NewFeedSource(feedConfig(server.URL), server.Client(), "test-agent")

	_, err := feedSource.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for HTTP error, got: %v", err)
	}
}

func TestFeedSource_Fetch_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed")
	}))
	defer server.Close()

	feedSource := NewFeedSource(feedConfig(server.URL), server.Client(), "test-agent")

	_, err := feedSource.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for unparseable body, got: %v", err)
	}
}
