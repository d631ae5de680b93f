package services

import (
	"regexp"
	"strings"

	"parking-finder/models"
	"parking-finder/utils"
)

// Cleaner turns the raw text of listing blocks into validated records.
// Records already seen by the same Cleaner are skipped.
type Cleaner struct {
	logger *utils.Logger
	seen   *utils.KeySet
	fields map[string]*regexp.Regexp
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	fields := make(map[string]*regexp.Regexp, len(models.Labels))
	for name, label := range models.Labels {
		fields[name] = regexp.MustCompile(regexp.QuoteMeta(label) + `\s*([^\n\r]+)`)
	}
	return &Cleaner{logger: logger, seen: utils.NewKeySet(), fields: fields}
}

// Clean processes raw blocks and returns the records they describe. Blocks
// that lack a label or fail validation are dropped and logged.
func (c *Cleaner) Clean(blocks []string) models.Snapshot {
	result := make(models.Snapshot, 0, len(blocks))

	for _, raw := range blocks {
		txt := strings.ReplaceAll(raw, "\u00a0", " ")
		if strings.TrimSpace(txt) == "" {
			c.logger.Warn("[cleaner] no text content found in element (bug?)")
			continue
		}

		if missing := missingLabels(txt); len(missing) > 0 {
			c.logger.Debug("[cleaner] element with text '%s' is missing labels '%s'",
				oneLine(txt), strings.Join(missing, ", "))
			continue
		}

		block := normaliseBlock(txt)
		values := make(map[string]string, len(c.fields))
		for _, name := range models.FieldNames {
			values[name] = c.extractField(block, name)
		}

		p, err := models.ParkingFromMap(values)
		if err != nil {
			c.logger.Warn("[cleaner] failed to validate parking space %v: %v", values, err)
			continue
		}

		if !c.seen.Add(p.Key()) {
			c.logger.Debug("[cleaner] duplicate parking skipped: %s", p.Key())
			continue
		}

		c.logger.Debug("[cleaner] created unique parking string '%s'", p.Key())
		result = append(result, p)
	}

	c.logger.Info("[cleaner] cleaned %d blocks into %d parking spaces (dropped %d)",
		len(blocks), len(result), len(blocks)-len(result))
	return result
}

// Seen returns the number of unique records produced so far.
func (c *Cleaner) Seen() int {
	return c.seen.Size()
}

func (c *Cleaner) extractField(block, name string) string {
	m := c.fields[name].FindStringSubmatch(block)
	if len(m) < 2 || startsWithLabel(m[1]) {
		c.logger.Warn("[cleaner] failed to extract '%s' from '%s'", models.Labels[name], oneLine(block))
		return ""
	}
	return strings.TrimSpace(m[1])
}

// startsWithLabel reports whether a captured value is really the next field,
// which happens when a label is followed by an empty value.
func startsWithLabel(value string) bool {
	for _, label := range models.Labels {
		if strings.HasPrefix(value, label) {
			return true
		}
	}
	return false
}

func missingLabels(txt string) []string {
	var missing []string
	for _, name := range models.FieldNames {
		if !strings.Contains(txt, models.Labels[name]) {
			missing = append(missing, models.Labels[name])
		}
	}
	return missing
}

// normaliseBlock trims every line and drops the blank ones so that label
// extraction does not depend on the page's whitespace.
func normaliseBlock(txt string) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(txt, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func oneLine(s string) string {
	return strings.NewReplacer("\n", " ", "\r", "").Replace(s)
}
