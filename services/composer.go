package services

import (
	"sort"
	"strings"

	"parking-finder/models"
)

const (
	addedTitle   = "Nya parkeringsplatser hittade:"
	removedTitle = "Parkeringsplatser ej längre tillgängliga:"
)

// DefaultGlyphs decorates a parking kind in notifications. Keys are lower case.
var DefaultGlyphs = map[string]string{
	"parkering husvagn":               "🚗 🏕️ 🅿️",
	"parkeringsdäck":                  "🚗 🅿️",
	"parkering laddplats":             "🚗 ⚡ 🅿️",
	"parkering motorvärmare":          "🚗 🔌 🅿️",
	"parkeringsplats":                 "🚗 🅿️",
	"bilpl på mark h-cap":             "🚗 🅿️",
	"carport motorvärmare":            "🚗 🔌 🏠",
	"carport":                         "🚗 🏠",
	"varmgarage":                      "🚗 🏢 🔥",
	"kallgarage":                      "🚗 🏢",
	"centralgarage dubbelplats":       "🚗 🚗 🏢",
	"centralgarage laddstolpe":        "🚗 ⚡ 🏢",
	"centralgarage uppvärmt":          "🚗 🏢 🔥",
	"centralgarage":                   "🚗 🏢 ❄️",
	"varmgarage ej enskilt":           "🚗 🚧 🏢 🔥",
	"kallgarage ej enskilt":           "🚗 🚧 🏢 ❄️",
	"garage dubbelplats":              "🚗🚗 🏠",
	"garage ej enskilt, egen port":    "🚗 🏢",
	"garage motorvärmare ej enskilt":  "🚗 ⚡ 🏢",
	"garage ej enskilt":               "🚗 🏢",
	"centralgarage inhägnad plats":    "🚗 🔒 🏢",
	"varmgarage för motorcykel":       "🏍️ 🔥",
	"kallgarage för motorcykel":       "🏍️ ❄️",
	"garage motorcykel utan nät/vägg": "🏍️ 🚧",
}

// Composer renders a diff into a single notification message.
type Composer struct {
	glyphs map[string]string
}

// NewComposer creates a Composer using the given kind -> glyph table.
// A nil table falls back to DefaultGlyphs.
func NewComposer(glyphs map[string]string) *Composer {
	if glyphs == nil {
		glyphs = DefaultGlyphs
	}
	return &Composer{glyphs: glyphs}
}

// Compose renders d. It returns false when there is nothing to report, in
// which case no notification should be sent.
func (c *Composer) Compose(d models.Diff) (string, bool) {
	added := groupByArea(d.Added)
	removed := groupByArea(d.Removed)
	if len(added) == 0 && len(removed) == 0 {
		return "", false
	}

	var sections []string
	if len(added) > 0 {
		sections = append(sections, c.section(addedTitle, added))
	}
	if len(removed) > 0 {
		sections = append(sections, c.section(removedTitle, removed))
	}

	return strings.TrimSpace(strings.Join(sections, "\n")), true
}

// Glyph returns the decoration for kind, or "" when it is unmapped.
func (c *Composer) Glyph(kind string) string {
	return c.glyphs[strings.ToLower(kind)]
}

func (c *Composer) section(title string, byArea map[string][]*models.Parking) string {
	lines := []string{title, ""}

	for _, area := range sortedAreas(byArea) {
		lines = append(lines, "*"+area+"*", "")

		spots := byArea[area]
		sortSpots(spots)
		for i, p := range spots {
			lines = append(lines, c.block(p)...)
			if i < len(spots)-1 {
				lines = append(lines, "  "+separatorLine+" ")
			}
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (c *Composer) block(p *models.Parking) []string {
	return []string{
		"  *Address:* _" + p.Address() + "_ ",
		"  *Typ:* _" + p.Kind() + "_ " + c.Glyph(p.Kind()),
		"  *Hyra:* _" + p.Rent() + "_ ",
		"  *Tillträde:* _" + p.Access() + "_ ",
		"  *Antal intresserade:* _" + p.Interest() + "_ ",
	}
}

func groupByArea(spots []*models.Parking) map[string][]*models.Parking {
	byArea := make(map[string][]*models.Parking)
	for _, p := range spots {
		byArea[p.Area()] = append(byArea[p.Area()], p)
	}
	return byArea
}

func sortedAreas(byArea map[string][]*models.Parking) []string {
	areas := make([]string, 0, len(byArea))
	for area := range byArea {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool {
		return lessFold(areas[i], areas[j])
	})
	return areas
}

// sortSpots orders records by address, kind, rent, access and interest,
// ignoring case.
func sortSpots(spots []*models.Parking) {
	sort.SliceStable(spots, func(i, j int) bool {
		a, b := spots[i], spots[j]
		for _, pair := range [][2]string{
			{a.Address(), b.Address()},
			{a.Kind(), b.Kind()},
			{a.Rent(), b.Rent()},
			{a.Access(), b.Access()},
			{a.Interest(), b.Interest()},
		} {
			x, y := strings.ToLower(pair[0]), strings.ToLower(pair[1])
			if x != y {
				return x < y
			}
		}
		return false
	})
}

// lessFold compares case-insensitively, falling back to a byte comparison so
// that areas differing only in case still get a stable order.
func lessFold(a, b string) bool {
	x, y := strings.ToLower(a), strings.ToLower(b)
	if x != y {
		return x < y
	}
	return a < b
}
