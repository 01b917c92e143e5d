package clipboard

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderHTML renders Markdown to sanitized HTML.
func (n *Normalizer) RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return n.Sanitize(buf.String()), nil
}

// CopyType tells how pasted content was put on the clipboard.
type CopyType int

const (
	CopyNormal CopyType = iota
	CopyAsMarkdown
	CopyAsHTML
)

func (t CopyType) String() string {
	switch t {
	case CopyAsMarkdown:
		return "copyAsMarkdown"
	case CopyAsHTML:
		return "copyAsHtml"
	default:
		return "normal"
	}
}

var htmlElementRe = regexp.MustCompile(`^<([a-zA-Z\d-]+)(?:\s.*?)?>[\s\S]+?</[a-zA-Z\d-]+>$`)

var paragraphTags = map[string]struct{}{
	"p": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "ul": {}, "ol": {}, "li": {}, "figure": {},
}

// Classify reports the copy type of a clipboard payload. Plain text that
// is a single paragraph level HTML element was copied as HTML.
func Classify(html, text string) CopyType {
	if html != "" || text == "" {
		return CopyNormal
	}
	m := htmlElementRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return CopyAsMarkdown
	}
	if _, ok := paragraphTags[m[1]]; ok {
		return CopyAsHTML
	}
	return CopyAsMarkdown
}
