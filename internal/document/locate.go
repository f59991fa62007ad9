package document

import (
	"regexp"
	"strings"
)

// Location describes where a section lives in a document.
type Location struct {
	Heading      Heading
	Start        int // start of the heading line
	ContentStart int // just past the heading line
	End          int // start of the next sibling section, or len(doc)
}

// Locate finds the section with the given title. Headings are examined
// in document order; the first one satisfying any match strategy wins,
// even when a later heading would satisfy a stricter strategy. The
// section ends at the next heading of level 2 or shallower.
func Locate(doc, title string) (Location, bool) {
	headings := CollectHeadings(doc)
	for i, h := range headings {
		if !matchesTitle(h, title) {
			continue
		}
		end := len(doc)
		for _, later := range headings[i+1:] {
			if later.Level <= 2 {
				end = later.Start
				break
			}
		}
		return Location{Heading: h, Start: h.Start, ContentStart: h.End, End: end}, true
	}
	return Location{}, false
}

// matchesTitle applies three strategies: exact case-insensitive match
// at any level, then prefix and whole-word matches restricted to
// top-level and second-level headings. Searching for "MVP Plan" skips
// a plain "MVP" heading because none of the strategies accept it.
func matchesTitle(h Heading, title string) bool {
	if strings.EqualFold(h.Text, title) {
		return true
	}
	if h.Level > 2 {
		return false
	}
	if strings.HasPrefix(strings.ToLower(h.Text), strings.ToLower(title)) {
		return true
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(title) + `\b`)
	return re.MatchString(h.Text)
}
