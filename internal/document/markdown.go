package document

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Heading is one heading occurrence in a document, with byte offsets
// into the source. Start is the beginning of the heading's line; End is
// the offset just past the line's trailing newline.
type Heading struct {
	Text  string
	Level int
	Start int
	End   int
}

// CollectHeadings parses the document and returns every heading in
// document order.
func CollectHeadings(doc string) []Heading {
	source := []byte(doc)
	root := md.Parser().Parse(text.NewReader(source))

	var headings []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := h.Lines().At(0)
		headings = append(headings, Heading{
			Text:  strings.TrimSpace(string(source[seg.Start:seg.Stop])),
			Level: h.Level,
			Start: lineStart(doc, seg.Start),
			End:   lineEnd(doc, seg.Stop),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// LooksLikeMarkdown reports whether content appears to carry markdown
// syntax. Best-effort heuristic, not a content-type check.
func LooksLikeMarkdown(content string) bool {
	if strings.Contains(content, "**") || strings.Contains(content, "```") {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- ") {
			return true
		}
	}
	return false
}

func lineStart(doc string, offset int) int {
	if offset > len(doc) {
		offset = len(doc)
	}
	if i := strings.LastIndexByte(doc[:offset], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func lineEnd(doc string, offset int) int {
	if offset >= len(doc) {
		return len(doc)
	}
	if i := strings.IndexByte(doc[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(doc)
}
