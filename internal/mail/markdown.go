package mail

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown converts a Markdown email body to HTML. The Markdown
// source doubles as the plain-text alternative, so templates stay
// readable in both renderings.
func RenderMarkdown(source string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	doc := p.Parse([]byte(source))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.Render(doc, renderer))
}
