package clipboard

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names of editor decoration elements found in selection HTML.
const (
	ClassToolBar       = "ag-tool-bar"
	ClassMathRender    = "ag-math-render"
	ClassHTMLPreview   = "ag-html-preview"
	ClassMathPreview   = "ag-math-preview"
	ClassCopyRemove    = "ag-copy-remove"
	ClassLanguageInput = "ag-language-input"
	ClassInlineRule    = "ag-inline-rule"
	ClassLink          = "ag-a-link"
	ClassCodeLine      = "ag-code-line"
	ClassContainer     = "ag-container-block"
)

var decorationSelector = strings.Join([]string{
	"." + ClassToolBar,
	"." + ClassMathRender,
	"." + ClassHTMLPreview,
	"." + ClassMathPreview,
	"." + ClassCopyRemove,
	"." + ClassLanguageInput,
}, ", ")

var inlineRuleSelector = strings.Join([]string{
	"a." + ClassInlineRule,
	"code." + ClassInlineRule,
	"strong." + ClassInlineRule,
	"em." + ClassInlineRule,
	"del." + ClassInlineRule,
}, ", ")

// LanguageLookup returns the language of the code block with the given id.
type LanguageLookup func(id string) string

// Clip is the clipboard content of a copied selection.
type Clip struct {
	HTML     string
	Markdown string
}

// ExportSelection cleans selection HTML for the clipboard and converts it
// to Markdown.
func (n *Normalizer) ExportSelection(selection string, lookup LanguageLookup) (Clip, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(selection))
	if err != nil {
		return Clip{}, errors.Wrap(err, "failed to parse selection")
	}
	body := doc.Find("body")

	body.Find(decorationSelector).Remove()

	body.Find("[data-role=hr]").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(element(atom.Hr, ""))
	})

	body.Find("[data-head]").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(element(atom.P, s.Text()))
	})

	// Inline rules would be converted to Markdown syntax a second time.
	body.Find(inlineRuleSelector).Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(element(atom.Span, s.Text(), html.Attribute{Key: "class", Val: ClassInlineRule}))
	})

	body.Find("." + ClassLink).Each(func(_ int, s *goquery.Selection) {
		rename(s, atom.Span, false)
	})

	body.Find("pre[data-role$='code']").Each(func(_ int, s *goquery.Selection) {
		lang := ""
		if id, ok := s.Attr("id"); ok && lookup != nil {
			lang = lookup(id)
		}
		value := codeLines(s.Find("." + ClassCodeLine))
		s.Empty()
		s.AppendNodes(element(atom.Code, value, html.Attribute{Key: "class", Val: "language-" + lang}))
	})

	body.Find("figure[data-role='HTML']").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(element(atom.Pre, codeLines(s.Find("span."+ClassCodeLine))))
	})

	body.Find("figure." + ClassContainer).Each(func(_ int, s *goquery.Selection) {
		role := s.Find("pre[data-role]").First().AttrOr("data-role", "")
		value := codeLines(s.Find("span." + ClassCodeLine))
		switch role {
		case "multiplemath":
			s.ReplaceWithNodes(element(atom.Pre, value, html.Attribute{Key: "class", Val: ClassMultipleMath}))
		case "mermaid", "flowchart", "sequence", "vega-lite":
			pre := element(atom.Pre, "")
			pre.AppendChild(element(atom.Code, value, html.Attribute{Key: "class", Val: "language-" + role}))
			s.ReplaceWithNodes(pre)
		}
	})

	result, err := body.Html()
	if err != nil {
		return Clip{}, errors.Wrap(err, "failed to render selection")
	}
	markdown, err := n.ToMarkdown(result)
	if err != nil {
		return Clip{}, err
	}
	return Clip{HTML: result, Markdown: markdown}, nil
}

func codeLines(s *goquery.Selection) string {
	lines := make([]string, 0, s.Length())
	s.Each(func(_ int, line *goquery.Selection) {
		lines = append(lines, line.Text())
	})
	return strings.Join(lines, "\n")
}
