package stangastaden

import (
	"os"
	"strings"
	"testing"

	"parking-finder/services"
	"parking-finder/utils"
)

func loadFixture(t *testing.T, name string) *Page {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	page, err := ParsePage(string(data))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	return page
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		areas []string
		want  string
	}{
		{nil, "https://www.stangastaden.se/sokledigt/bilplats/?actionId="},
		{[]string{"RYD"}, "https://www.stangastaden.se/sokledigt/bilplats/?actionId=&omraden%5B%5D=RYD"},
		{[]string{"RYD", "55TRY"}, "https://www.stangastaden.se/sokledigt/bilplats/?actionId=&omraden%5B%5D=RYD&omraden%5B%5D=55TRY"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.areas); got != tt.want {
			t.Errorf("BuildURL(%v) = %q, want %q", tt.areas, got, tt.want)
		}
	}
}

func TestParsePageBlocksAndPagination(t *testing.T) {
	page := loadFixture(t, "page1.html")

	if len(page.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(page.Blocks))
	}
	if page.Links != 4 {
		t.Errorf("expected 4 pagination links, got %d", page.Links)
	}

	tests := []struct {
		n    int
		want bool
	}{
		{1, false}, // current page has no anchor
		{2, true},
		{3, true},
		{4, false},
	}
	for _, tt := range tests {
		if got := page.HasPage(tt.n); got != tt.want {
			t.Errorf("HasPage(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestParsePageNoListings(t *testing.T) {
	page, err := ParsePage("<html><body><p>Inga lediga platser</p></body></html>")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if len(page.Blocks) != 0 || page.Links != 0 || page.HasPage(2) {
		t.Errorf("expected an empty page, got %+v", page)
	}
}

func TestInnerTextLayout(t *testing.T) {
	page := loadFixture(t, "page1.html")
	block := page.Blocks[0]

	if !strings.Contains(block, "\nOmråde:\n") || !strings.Contains(block, "\nRyd\n") {
		t.Errorf("labels and values should be on their own lines: %q", block)
	}
	if !strings.Contains(block, "Rydsvägen\u00a012") {
		t.Errorf("non-breaking space should survive: %q", block)
	}
	if strings.Contains(page.Blocks[1], "  ") {
		t.Errorf("markup whitespace should collapse: %q", page.Blocks[1])
	}
}

func TestParsedBlocksBecomeRecords(t *testing.T) {
	page := loadFixture(t, "page1.html")

	spots := services.NewCleaner(utils.Nop()).Clean(page.Blocks)
	if len(spots) != 2 {
		t.Fatalf("expected 2 parking spaces, got %d", len(spots))
	}

	want := []string{
		"Ryd|Rydsvägen 12|Carport|450 kr/mån|Omgående|3",
		"Vasastaden|Vasavägen 3|Varmgarage|900 kr|2025-02-01|11",
	}
	for i, p := range spots {
		if p.Key() != want[i] {
			t.Errorf("spot %d: got %q, want %q", i, p.Key(), want[i])
		}
	}
}

func TestNextPageXPath(t *testing.T) {
	got := nextPageXPath(2)
	for _, part := range []string{" PaginationList ", " PageLink ", `/a[normalize-space(.)="2"]`} {
		if !strings.Contains(got, part) {
			t.Errorf("xpath %q lacks %q", got, part)
		}
	}
}
