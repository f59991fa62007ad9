package document

import (
	"fmt"
	"strings"
)

const insertMarker = "<!-- ai-insert"

// InsertResult carries the mutated document plus the version summary
// the caller should record.
type InsertResult struct {
	Document string
	Section  Section
	Summary  string
	Created  bool // section heading was synthesized
}

// Insert merges content into the named section of doc. A present
// section gets the content appended as its last child. An absent
// section is synthesized with its heading, placed before the first
// later registry section that already exists in the document, or at
// the end when none do. An unknown section id fails fast with no
// mutation.
func Insert(doc, sectionID, content, sourceLabel string) (InsertResult, error) {
	section, ok := FindSection(sectionID)
	if !ok {
		return InsertResult{}, fmt.Errorf("unknown section id %q", sectionID)
	}

	block := wrapInsertion(content, sourceLabel)
	summary := fmt.Sprintf("Inserted AI content into %s section", section.Title)

	if loc, found := Locate(doc, section.Title); found {
		return InsertResult{
			Document: spliceAt(doc, loc.End, block),
			Section:  section,
			Summary:  summary,
		}, nil
	}

	block = "## " + section.Title + "\n\n" + block
	at := len(doc)
	for _, later := range sectionsAfter(sectionID) {
		if loc, found := Locate(doc, later.Title); found {
			at = loc.Start
			break
		}
	}
	return InsertResult{
		Document: spliceAt(doc, at, block),
		Section:  section,
		Summary:  summary,
		Created:  true,
	}, nil
}

// CountInsertions reports how many inserted blocks the document holds.
func CountInsertions(doc string) int {
	return strings.Count(doc, insertMarker)
}

// wrapInsertion marks the block so inserted content stays identifiable
// in the stored markdown. Content that does not look like markdown is
// kept verbatim as a plain paragraph.
func wrapInsertion(content, sourceLabel string) string {
	body := strings.TrimSpace(convertContent(content))
	marker := insertMarker + " -->"
	if sourceLabel != "" {
		marker = fmt.Sprintf("%s source=%q -->", insertMarker, sourceLabel)
	}
	return marker + "\n" + body + "\n"
}

// convertContent adapts markdown-looking content for insertion inside
// a section: top-level and second-level headings are demoted to level 3
// so inserted content cannot start a new sibling section. Plain text
// passes through verbatim.
func convertContent(content string) string {
	if !LooksLikeMarkdown(content) {
		return content
	}
	lines := strings.Split(content, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "## "):
			lines[i] = "### " + trimmed[3:]
		case strings.HasPrefix(trimmed, "# "):
			lines[i] = "### " + trimmed[2:]
		}
	}
	return strings.Join(lines, "\n")
}

// spliceAt inserts block at the byte offset, keeping blank-line
// separation on both sides.
func spliceAt(doc string, at int, block string) string {
	before := doc[:at]
	after := doc[at:]

	var b strings.Builder
	b.WriteString(strings.TrimRight(before, "\n"))
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimRight(block, "\n"))
	b.WriteString("\n")
	if trimmed := strings.TrimLeft(after, "\n"); trimmed != "" {
		b.WriteString("\n")
		b.WriteString(trimmed)
	}
	return b.String()
}
