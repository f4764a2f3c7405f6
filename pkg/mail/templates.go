package mail

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Template names a Markdown file under templates/.
type Template string

const (
	TemplatePasswordReset Template = "password_reset"
	TemplateNotification  Template = "notification"
)

//go:embed templates/*.md
var templateFS embed.FS

const layout = `<!DOCTYPE html>
<html><head><meta charset="utf-8"></head>
<body style="font-family:sans-serif;line-height:1.5;max-width:600px;margin:auto">
%s</body></html>
`

// Renderer turns templates into HTML documents.
type Renderer struct {
	md        goldmark.Markdown
	templates *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		templates: template.Must(template.ParseFS(templateFS, "templates/*.md")),
	}
}

// Render executes tmpl with data and converts the Markdown to HTML.
func (r *Renderer) Render(tmpl Template, data map[string]string) (string, error) {
	var src bytes.Buffer
	if err := r.templates.ExecuteTemplate(&src, string(tmpl)+".md", data); err != nil {
		return "", fmt.Errorf("failed to execute email template %s: %w", tmpl, err)
	}
	return r.Markdown(src.Bytes())
}

// Markdown converts free-form Markdown, such as a notification message.
func (r *Renderer) Markdown(src []byte) (string, error) {
	var body bytes.Buffer
	if err := r.md.Convert(src, &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return fmt.Sprintf(layout, body.String()), nil
}
