package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"parking-finder/models"
	"parking-finder/utils"
)

// ReportService summarises a run and renders it on the console.
type ReportService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewReportService(logger *utils.Logger, out io.Writer) *ReportService {
	return &ReportService{logger: logger, out: out}
}

func (s *ReportService) Generate(current models.Snapshot, d models.Diff) *models.Report {
	report := &models.Report{
		TotalSpots:   len(current),
		AddedSpots:   len(d.Added),
		RemovedSpots: len(d.Removed),
		SpotsByArea:  make(map[string]int),
		SpotsByKind:  make(map[string]int),
	}

	for _, p := range current {
		report.SpotsByArea[p.Area()]++
		report.SpotsByKind[p.Kind()]++
	}

	return report
}

var tableHeaders = []string{
	models.FieldArea, models.FieldAddress, models.FieldKind,
	models.FieldRent, models.FieldAccess, models.FieldInterest,
}

// PrintTable writes every record of current as a boxed table, sorted by
// area, address, kind, rent, interest and access.
func (s *ReportService) PrintTable(current models.Snapshot) {
	if len(current) == 0 {
		s.logger.Info("no parking spots to display in table format")
		return
	}

	spots := make(models.Snapshot, len(current))
	copy(spots, current)
	sort.SliceStable(spots, func(i, j int) bool {
		a, b := spots[i], spots[j]
		for _, pair := range [][2]string{
			{a.Area(), b.Area()},
			{a.Address(), b.Address()},
			{a.Kind(), b.Kind()},
			{a.Rent(), b.Rent()},
			{a.Interest(), b.Interest()},
			{a.Access(), b.Access()},
		} {
			x, y := strings.ToLower(pair[0]), strings.ToLower(pair[1])
			if x != y {
				return x < y
			}
		}
		return false
	})

	rows := make([][]string, 0, len(spots))
	for _, p := range spots {
		rows = append(rows, []string{p.Area(), p.Address(), p.Kind(), p.Rent(), p.Access(), p.Interest()})
	}

	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	fmt.Fprintln(s.out, border("╒", "╤", "╕", "═", widths))
	fmt.Fprintln(s.out, tableRow(tableHeaders, widths))
	fmt.Fprintln(s.out, border("╞", "╪", "╡", "═", widths))
	for i, row := range rows {
		fmt.Fprintln(s.out, tableRow(row, widths))
		if i < len(rows)-1 {
			fmt.Fprintln(s.out, border("├", "┼", "┤", "─", widths))
		}
	}
	fmt.Fprintln(s.out, border("╘", "╧", "╛", "═", widths))
}

// Print writes the run summary.
func (s *ReportService) Print(r *models.Report) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(s.out, "\n  Parking summary\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	fmt.Fprintf(s.out, "  Available spots : %d\n", r.TotalSpots)
	fmt.Fprintf(s.out, "  New spots       : %d\n", r.AddedSpots)
	fmt.Fprintf(s.out, "  Gone spots      : %d\n", r.RemovedSpots)
	fmt.Fprintln(s.out)

	if len(r.SpotsByArea) == 0 {
		fmt.Fprintf(s.out, "  No area data\n")
		return
	}

	fmt.Fprintf(s.out, "  Spots by area\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	for _, ac := range countsDesc(r.SpotsByArea) {
		bar := strings.Repeat("█", ac.count)
		fmt.Fprintf(s.out, "  %-30s %s (%d)\n", truncate(ac.name, 28), bar, ac.count)
	}
	fmt.Fprintln(s.out)

	fmt.Fprintf(s.out, "  Spots by type\n")
	fmt.Fprintf(s.out, "  %s\n", thin)
	for _, kc := range countsDesc(r.SpotsByKind) {
		fmt.Fprintf(s.out, "  %-30s %d\n", truncate(kc.name, 28), kc.count)
	}
	fmt.Fprintln(s.out)
}

type nameCount struct {
	name  string
	count int
}

// countsDesc sorts by count descending, then by name.
func countsDesc(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for name, cnt := range m {
		out = append(out, nameCount{name, cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func border(left, mid, right, fill string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat(fill, w+2)
	}
	return left + strings.Join(parts, mid) + right
}

func tableRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := widths[i] - utf8.RuneCountInString(cell)
		parts[i] = " " + cell + strings.Repeat(" ", pad) + " "
	}
	return "│" + strings.Join(parts, "│") + "│"
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
