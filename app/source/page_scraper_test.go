package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sermonBlock = `
<div class="fusion-post-timeline">
	<h2 class="entry-title">%s</h2>
	%s
	<audio class="wp-audio-shortcode"><source src="%s" type="audio/mpeg" /></audio>
</div>`

func pageConfig(url string) *Config {
	return &Config{
		Name: "test-page",
		URL:  url,
		Type: SourceTypePage,
		Settings: ConfigSettings{
			Enabled:   true,
			PageLimit: 5,
			Timeout:   5,
		},
	}
}

func TestPageScraper_Fetch(t *testing.T) {
	pages := map[string]string{
		"/sermons/page/1/": fmt.Sprintf(sermonBlock,
			"Walking  in\nFaith",
			`<a rel="category tag">Faith</a><a rel="category tag">Hope</a>`,
			"http://cdn.example.com/audio/walking-in-faith.mp3?_=1") +
			fmt.Sprintf(sermonBlock,
				"", "",
				"http://cdn.example.com/audio/untitled.mp3"),
		"/sermons/page/2/": `<div class="fusion-post-timeline">
			<h2 class="entry-title">No Audio Here</h2>
		</div>`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "<html><body>"+body+"</body></html>")
	}))
	defer server.Close()

	scraper := NewPageScraper(pageConfig(server.URL+"/sermons/page/"), server.Client(), "test-agent")

	candidates, err := scraper.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Page 2's only block has no audio source, so it reads as empty and
	// stops pagination; page 1 contributes two candidates.
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Walking in Faith" {
		t.Errorf("Expected normalized title 'Walking in Faith', got %q", first.Title)
	}
	if first.AudioURL != "http://cdn.example.com/audio/walking-in-faith.mp3?_=1" {
		t.Errorf("Unexpected audio URL: %q", first.AudioURL)
	}
	if first.Categories != "Faith, Hope" {
		t.Errorf("Expected categories 'Faith, Hope', got %q", first.Categories)
	}

	second := candidates[1]
	if second.Title != UnknownTitle {
		t.Errorf("Expected placeholder title %q, got %q", UnknownTitle, second.Title)
	}
	if second.Categories != Uncategorized {
		t.Errorf("Expected placeholder categories %q, got %q", Uncategorized, second.Categories)
	}
}

func TestPageScraper_Fetch_StopsAtEmptyPage(t *testing.T) {
	requested := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested++
		switch r.URL.Path {
		case "/page/1/", "/page/2/":
			fmt.Fprintf(w, sermonBlock, "Sermon "+r.URL.Path, "",
				"http://cdn.example.com"+r.URL.Path+"audio.mp3")
		default:
			fmt.Fprint(w, "<html><body></body></html>")
		}
	}))
	defer server.Close()

	scraper := NewPageScraper(pageConfig(server.URL+"/page/"), server.Client(), "test-agent")

	candidates, err := scraper.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Errorf("Expected 2 candidates from 2 populated pages, got %d", len(candidates))
	}
	if requested != 3 {
		t.Errorf("Expected pagination to stop after the first empty page (3 requests), got %d", requested)
	}
}

func TestPageScraper_Fetch_Non200FirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	scraper := NewPageScraper(pageConfig(server.URL+"/page/"), server.Client(), "test-agent")

	// A non-200 response is end of content, not a failure
	candidates, err := scraper.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error for non-200 first page, got: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(candidates))
	}
}

func TestPageScraper_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	scraper := NewPageScraper(pageConfig(server.URL+"/page/"), http.DefaultClient, "test-agent")

	_, err := scraper.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for unreachable source, got: %v", err)
	}
}

func TestPageScraper_Fetch_SendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body></body></html>")
	}))
	defer server.Close()

	scraper := NewPageScraper(pageConfig(server.URL+"/page/"), server.Client(), "Mozilla/5.0 (test)")

	if _, err := scraper.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotAgent != "Mozilla/5.0 (test)" {
		t.Errorf("Expected configured user agent, got %q", gotAgent)
	}
}
