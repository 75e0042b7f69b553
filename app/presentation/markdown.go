package presentation

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders model-written text (post-it, email body) to HTML. Raw HTML
// in the input is dropped, so the result is safe to embed.
func Markdown(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.Safelink | html.HrefTargetBlank,
	})
	out := markdown.ToHTML(markdown.NormalizeNewlines([]byte(text)), p, r)
	return template.HTML(strings.TrimSpace(string(out)))
}
