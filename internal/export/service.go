package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Service renders spec exports into downloadable artifacts.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Render produces the artifact for the requested format.
func (s *Service) Render(req Request) (*Result, error) {
	switch req.Format {
	case FormatMarkdown:
		return &Result{
			Data:     []byte(req.Content),
			Filename: sanitizeFilename(req.IdeaTitle) + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}, nil
	case FormatPDF:
		html, err := s.renderHTML(req)
		if err != nil {
			return nil, err
		}
		return exportPDF(html, req.IdeaTitle)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func (s *Service) renderHTML(req Request) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(req.Content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return RenderSpecHTML(TemplateData{
		Title:       req.IdeaTitle,
		Pitch:       req.Pitch,
		Author:      req.Author,
		GeneratedAt: time.Now(),
		ContentHTML: template.HTML(buf.String()),
	})
}

func sanitizeFilename(title string) string {
	result := ""
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result += string(r)
		case r == ' ':
			result += "-"
		case r == '-', r == '_':
			result += string(r)
		}
	}
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "spec"
	}
	return result
}
