package clipboard

import (
	"bytes"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	ClassSoftLineBreak = "ag-soft-line-break"
	ClassMultipleMath  = "multiple-math"
)

func (n *Normalizer) newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     n.headingStyle,
		BulletListMarker: n.bulletMarker,
		CodeBlockStyle:   n.codeBlockStyle,
		Fence:            "```",
	})
	conv.Use(plugin.GitHubFlavored())
	conv.AddRules(
		md.Rule{
			Filter: []string{"span"},
			Replacement: func(content string, selec *goquery.Selection, _ *md.Options) *string {
				switch {
				case selec.HasClass(ClassSoftLineBreak):
					return md.String("\n")
				case selec.HasClass(ClassInlineRule):
					// Already Markdown syntax, must not be escaped.
					return md.String(selec.Text())
				}
				return md.String(content)
			},
		},
		md.Rule{
			Filter: []string{"pre"},
			Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
				if !selec.HasClass(ClassMultipleMath) {
					return nil
				}
				return md.String("\n\n$$\n" + strings.Trim(selec.Text(), "\n") + "\n$$\n\n")
			},
		},
	)
	return conv
}

// ToMarkdown converts HTML to Markdown.
func (n *Normalizer) ToMarkdown(input string) (string, error) {
	input = strings.ReplaceAll(input, "<span>&nbsp;</span>", " ")

	input, err := softBreaksToSpans(input)
	if err != nil {
		return "", err
	}

	markdown, err := n.converter.ConvertString(input)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert html to markdown")
	}
	return markdown, nil
}

// softBreaksToSpans replaces line breaks inside text nodes with soft line
// break spans, which the converter would otherwise collapse into spaces.
// Leading and trailing line breaks of a text node are kept as they are.
func softBreaksToSpans(input string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(input), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to parse html")
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, node := range nodes {
		root.AppendChild(node)
	}
	splitTextNodes(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", errors.Wrap(err, "failed to render html")
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func splitTextNodes(parent *html.Node) {
	for node := parent.FirstChild; node != nil; {
		next := node.NextSibling
		switch node.Type {
		case html.TextNode:
			splitTextNode(parent, node)
		case html.ElementNode:
			switch node.DataAtom {
			case atom.Pre, atom.Code, atom.Textarea, atom.Script, atom.Style:
			default:
				splitTextNodes(node)
			}
		}
		node = next
	}
}

func splitTextNode(parent, node *html.Node) {
	value := node.Data
	lead := len(value) - len(strings.TrimLeft(value, "\n"))
	if lead == len(value) {
		return
	}
	trail := len(value) - len(strings.TrimRight(value, "\n"))
	inner := value[lead : len(value)-trail]
	if !strings.Contains(inner, "\n") {
		return
	}

	parts := strings.Split(inner, "\n")
	parts[0] = value[:lead] + parts[0]
	parts[len(parts)-1] += value[len(value)-trail:]

	for i, part := range parts {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: part}, node)
		if i < len(parts)-1 {
			parent.InsertBefore(element(atom.Span, "", html.Attribute{Key: "class", Val: ClassSoftLineBreak}), node)
		}
	}
	parent.RemoveChild(node)
}
