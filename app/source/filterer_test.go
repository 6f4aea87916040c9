package source

import (
	"testing"
)

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	candidates := []Candidate{
		{Title: "Sermon A", AudioURL: "http://x/a.mp3", Categories: "Faith"},
		{Title: "Sermon B", AudioURL: "http://x/b.mp3", Categories: "Hope"},
	}

	kept, excluded := filterer.Run(candidates, &Config{})

	if len(kept) != 2 {
		t.Errorf("Expected 2 candidates kept, got %d", len(kept))
	}
	if excluded != 0 {
		t.Errorf("Expected 0 excluded, got %d", excluded)
	}
}

func TestFilterer_Run_TitleExclude(t *testing.T) {
	filterer := NewFilterer()

	candidates := []Candidate{
		{Title: "Walking in Faith", Categories: "Faith"},
		{Title: "Annual Announcement Service", Categories: "News"},
	}

	config := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Excludes: []string{"announcement"}},
		},
	}

	kept, excluded := filterer.Run(candidates, config)

	if len(kept) != 1 {
		t.Fatalf("Expected 1 candidate kept, got %d", len(kept))
	}
	if kept[0].Title != "Walking in Faith" {
		t.Errorf("Wrong candidate kept: %q", kept[0].Title)
	}
	if excluded != 1 {
		t.Errorf("Expected 1 excluded, got %d", excluded)
	}
}

func TestFilterer_Run_CategoriesInclude(t *testing.T) {
	filterer := NewFilterer()

	candidates := []Candidate{
		{Title: "A", Categories: "Faith, Hope"},
		{Title: "B", Categories: "Uncategorized"},
	}

	config := &Config{
		Filters: []ConfigFilter{
			{Field: "categories", Includes: []string{"faith"}},
		},
	}

	kept, excluded := filterer.Run(candidates, config)

	if len(kept) != 1 || kept[0].Title != "A" {
		t.Errorf("Expected only candidate 'A' kept, got %v", kept)
	}
	if excluded != 1 {
		t.Errorf("Expected 1 excluded, got %d", excluded)
	}
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Walking  in\tFaith ", "Walking in Faith"},
		{"Line\nbreaks\ncollapse", "Line breaks collapse"},
		{"", ""},
	}

	for _, c := range cases {
		if got := normalizeText(c.in); got != c.want {
			t.Errorf("normalizeText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestJoinCategories(t *testing.T) {
	if got := joinCategories([]string{"Faith", " Hope "}); got != "Faith, Hope" {
		t.Errorf("Expected 'Faith, Hope', got %q", got)
	}
	if got := joinCategories(nil); got != Uncategorized {
		t.Errorf("Expected %q for empty input, got %q", Uncategorized, got)
	}
	if got := joinCategories([]string{"", "  "}); got != Uncategorized {
		t.Errorf("Expected %q for blank input, got %q", Uncategorized, got)
	}
}
