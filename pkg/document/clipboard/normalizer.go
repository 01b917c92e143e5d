// Package clipboard converts between clipboard HTML and Markdown.
package clipboard

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var classNamesRe = regexp.MustCompile(`^[\w\- ]+$`)

// newPolicy returns the allow-list applied to pasted and copied HTML.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classNamesRe).OnElements("code", "pre", "span")
	p.AllowElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("th", "td")
	return p
}

// Normalizer cleans clipboard HTML and converts it to Markdown.
type Normalizer struct {
	policy    *bluemonday.Policy
	converter *md.Converter
	logger    *zap.Logger

	headingStyle   string
	bulletMarker   string
	codeBlockStyle string
}

type Option func(*Normalizer)

func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithHeadingStyle sets "atx" or "setext" headings.
func WithHeadingStyle(style string) Option {
	return func(n *Normalizer) {
		n.headingStyle = style
	}
}

func WithBulletListMarker(marker string) Option {
	return func(n *Normalizer) {
		n.bulletMarker = marker
	}
}

// WithCodeBlockStyle sets "fenced" or "indented" code blocks.
func WithCodeBlockStyle(style string) Option {
	return func(n *Normalizer) {
		n.codeBlockStyle = style
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		policy:         newPolicy(),
		headingStyle:   "atx",
		bulletMarker:   "-",
		codeBlockStyle: "fenced",
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	n.converter = n.newConverter()
	return n
}

// Sanitize removes everything the allow-list does not permit.
func (n *Normalizer) Sanitize(input string) string {
	return n.policy.Sanitize(input)
}

// Standardize sanitizes pasted HTML and reshapes tables from spreadsheet
// applications: the first row becomes a header row and paragraphs in
// cells become spans.
func (n *Normalizer) Standardize(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(n.Sanitize(input)))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse html")
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		row := table.Find("tr").First()
		if first := row.Children().First(); first.Length() > 0 && goquery.NodeName(first) != "th" {
			n.logger.Debug("promoting first table row to header")
			row.Children().Each(func(_ int, cell *goquery.Selection) {
				rename(cell, atom.Th, true)
			})
		}
		table.Find("p").Each(func(_ int, p *goquery.Selection) {
			rename(p, atom.Span, false)
		})
	})

	result, err := doc.Find("body").Html()
	return result, errors.Wrap(err, "failed to render html")
}

// rename changes the element type of every node in s, keeping children.
func rename(s *goquery.Selection, tag atom.Atom, keepAttrs bool) {
	for _, node := range s.Nodes {
		node.Data = tag.String()
		node.DataAtom = tag
		if !keepAttrs {
			node.Attr = nil
		}
	}
}

// element returns a new element node with an optional text child.
func element(tag atom.Atom, text string, attrs ...html.Attribute) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag.String(),
		DataAtom: tag,
		Attr:     attrs,
	}
	if text != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return node
}
