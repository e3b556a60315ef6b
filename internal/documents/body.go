package documents

import (
	"bytes"
	"fmt"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"letterhead-backend/internal/profiles"
)

// Raw HTML in markdown bodies is dropped by goldmark's default renderer.
// Code blocks carry inline styles since the preview has no stylesheet for
// chroma classes.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Footnote,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
		),
	),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderBody returns the body as HTML. Plain bodies are escaped and keep
// their whitespace through CSS.
func renderBody(content string, format profiles.BodyFormat) (template.HTML, bool, error) {
	switch format {
	case profiles.BodyMarkdown:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err != nil {
			return "", false, fmt.Errorf("render markdown: %w", err)
		}
		return template.HTML(buf.String()), false, nil // #nosec G203 -- goldmark output without unsafe mode
	default:
		return template.HTML(template.HTMLEscapeString(content)), true, nil
	}
}
