package render

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// RichTextFormat selects how backend rich text is interpreted.
type RichTextFormat string

const (
	FormatHTML     RichTextFormat = "html"
	FormatMarkdown RichTextFormat = "markdown"
)

// RichText is the only path by which backend-supplied markup reaches a page.
// By default markup is trusted verbatim.
type RichText struct {
	format   RichTextFormat
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRichText builds the rich text handler. sanitize enables bluemonday's UGC
// policy on the final markup.
func NewRichText(format RichTextFormat, sanitize bool) *RichText {
	rt := &RichText{format: format}
	if format == FormatMarkdown {
		rt.markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	}
	if sanitize {
		rt.policy = bluemonday.UGCPolicy()
	}
	return rt
}

// trustedHTML returns raw as markup to insert verbatim.
func (rt *RichText) trustedHTML(raw string) string {
	if rt == nil {
		return raw
	}
	out := raw
	if rt.markdown != nil {
		var buf bytes.Buffer
		if err := rt.markdown.Convert([]byte(raw), &buf); err == nil {
			out = strings.TrimSpace(buf.String())
		}
	}
	if rt.policy != nil {
		out = rt.policy.Sanitize(out)
	}
	return out
}
