package config

import (
	"fmt"
	"io"
	"strings"
)

// Area is one selectable district of the listing site.
type Area struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Areas is the ordered table of known area codes.
type Areas []Area

// DefaultAreas lists the districts offered by Stångåstaden.
var DefaultAreas = Areas{
	{"ABYGOT", "Gottfridsberg / Åbylund"},
	{"INNER", "Innerstaden"},
	{"JOHA", "Johannelund"},
	{"LAMBO", "Lambohov / Vallastaden"},
	{"MAJBER", "Berga / Majelden"},
	{"RYD", "Ryd"},
	{"SKATTE", "Skattegården"},
	{"55TRY", "Senior / Senior+"},
	{"T1VAFR", "Ebbepark / T1 / Valla"},
	{"VASA", "Vasastaden"},
	{"VIDULL", "Vidingsjö / Ullstämma"},
	{"YTTER", "Ytterområde"},
}

// Name returns the display name of code. Codes are case-sensitive.
func (a Areas) Name(code string) (string, bool) {
	for _, area := range a {
		if area.Code == code {
			return area.Name, true
		}
	}
	return "", false
}

// Parse splits args on commas, trims the parts and drops the empty ones.
// It returns the codes in order and the subset not present in the table.
// No codes at all means every area is searched.
func (a Areas) Parse(args []string) (codes, invalid []string) {
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			code := strings.TrimSpace(part)
			if code == "" {
				continue
			}
			codes = append(codes, code)
			if _, ok := a.Name(code); !ok {
				invalid = append(invalid, code)
			}
		}
	}
	return codes, invalid
}

// Fprint writes one " » Name (CODE)" line per area. With no codes, every
// area in the table is listed.
func (a Areas) Fprint(w io.Writer, codes []string) {
	if len(codes) == 0 {
		for _, area := range a {
			fmt.Fprintf(w, " » %s (%s)\n", area.Name, area.Code)
		}
		return
	}
	for _, code := range codes {
		name, _ := a.Name(code)
		fmt.Fprintf(w, " » %s (%s)\n", name, code)
	}
}
