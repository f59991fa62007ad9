// Package export renders a stored spec export as a downloadable
// artifact: markdown as-is, or markdown rendered to HTML and printed
// to PDF with headless Chrome.
package export

import "errors"

// Format is the requested artifact format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Request describes one export rendering.
type Request struct {
	IdeaTitle string
	Pitch     string
	Author    string
	Content   string // spec markdown
	Format    Format
}

// Result is the rendered artifact.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies
// are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
