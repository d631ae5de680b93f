package stangastaden

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	baseURL = "https://www.stangastaden.se/sokledigt/bilplats/"

	listingSelector    = "div.objektListaMarknad"
	paginationSelector = "span.PaginationList.PageLink"
	cookieSelector     = "div.cc-btn.cc-btn-accept.cc-btn-accept-all"
)

// BuildURL returns the listing URL filtered to areas. No areas means every
// area.
func BuildURL(areas []string) string {
	var params strings.Builder
	for _, code := range areas {
		params.WriteString("&omraden%5B%5D=")
		params.WriteString(code)
	}
	return baseURL + "?actionId=" + params.String()
}

// Page is the parsed content of one listing page.
type Page struct {
	// Blocks holds the rendered text of every listing block.
	Blocks []string
	// Links is the number of pagination entries, including the current page.
	Links int

	pages map[int]bool
}

// HasPage reports whether the pagination offers a link to page n.
func (p *Page) HasPage(n int) bool {
	return p.pages[n]
}

// ParsePage extracts listing blocks and pagination links from page HTML.
func ParsePage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	page := &Page{pages: make(map[int]bool)}
	doc.Find(listingSelector).Each(func(_ int, s *goquery.Selection) {
		page.Blocks = append(page.Blocks, innerText(s))
	})

	links := doc.Find(paginationSelector)
	page.Links = links.Length()
	links.Each(func(_ int, s *goquery.Selection) {
		// The current page is rendered without an anchor.
		a := s.Find("a").First()
		if a.Length() == 0 {
			return
		}
		if n, err := strconv.Atoi(strings.TrimSpace(a.Text())); err == nil {
			page.pages[n] = true
		}
	})

	return page, nil
}

// nextPageXPath selects the pagination anchor labelled n.
func nextPageXPath(n int) string {
	return fmt.Sprintf(`//span[contains(concat(" ", normalize-space(@class), " "), " PaginationList ")`+
		` and contains(concat(" ", normalize-space(@class), " "), " PageLink ")]`+
		`/a[normalize-space(.)="%d"]`, n)
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "ol": true, "p": true, "section": true,
	"table": true, "tbody": true, "td": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

var collapsible = regexp.MustCompile(`[ \t\r\n\f]+`)

// innerText approximates the browser's rendering of s as text: block
// elements start new lines and runs of markup whitespace collapse to one
// space. Non-breaking spaces are kept.
func innerText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch name := goquery.NodeName(c); {
			case name == "#text":
				b.WriteString(collapsible.ReplaceAllString(c.Text(), " "))
			case name == "br":
				b.WriteByte('\n')
			case name == "script" || name == "style" || name == "#comment":
			case blockElements[name]:
				b.WriteByte('\n')
				walk(c)
				b.WriteByte('\n')
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return b.String()
}
