package export

import (
	"bytes"
	"html/template"
	"time"
)

// TemplateData feeds the HTML shell around the rendered spec.
type TemplateData struct {
	Title       string
	Pitch       string
	Author      string
	GeneratedAt time.Time
	ContentHTML template.HTML
}

var specTemplate = template.Must(template.New("spec").Parse(specTemplateText))

// RenderSpecHTML wraps the rendered markdown in a printable HTML page.
func RenderSpecHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := specTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const specTemplateText = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    h2 { margin-top: 2rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .pitch { font-style: italic; color: #444; }
    code { background: #f5f5f5; padding: 0.1rem 0.3rem; border-radius: 3px; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Pitch}}<p class="pitch">{{.Pitch}}</p>{{end}}
  <div class="meta">{{if .Author}}{{.Author}} | {{end}}{{.GeneratedAt.Format "Jan 2, 2006"}}</div>
  <div>{{.ContentHTML}}</div>
</body>
</html>`
