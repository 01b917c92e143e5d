package editor

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/mdedit/pkg/document/tree"
)

// markupLangs are the code block languages supporting quick HTML tags.
var markupLangs = map[string]struct{}{
	"html": {}, "markup": {}, "xml": {}, "svg": {},
}

var htmlTags = []string{
	"a", "abbr", "address", "area", "article", "aside", "audio", "b", "base", "bdi",
	"bdo", "blockquote", "body", "br", "button", "canvas", "caption", "cite", "code",
	"col", "colgroup", "data", "datalist", "dd", "del", "details", "dfn", "dialog",
	"div", "dl", "dt", "em", "embed", "fieldset", "figcaption", "figure", "footer",
	"form", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hgroup", "hr",
	"html", "i", "iframe", "img", "input", "ins", "kbd", "label", "legend", "li",
	"link", "main", "map", "mark", "math", "menu", "meta", "meter", "nav", "noscript",
	"object", "ol", "optgroup", "option", "output", "p", "param", "picture", "pre",
	"progress", "q", "rp", "rt", "ruby", "s", "samp", "script", "section", "select",
	"slot", "small", "source", "span", "strong", "style", "sub", "summary", "sup",
	"svg", "table", "tbody", "td", "template", "textarea", "tfoot", "th", "thead",
	"time", "title", "tr", "track", "u", "ul", "var", "video", "wbr",
}

var voidHTMLTags = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "param": {}, "source": {}, "track": {}, "wbr": {},
}

var selectorPartRe = regexp.MustCompile(`(#|\.)([^#.]+)`)

type selector struct {
	tag       string
	id        string
	className string
	void      bool
}

// parseSelector splits "div#id.class" into its parts. The tag is empty
// when the word does not start with a known element name.
func parseSelector(word string) selector {
	var sel selector
	for _, tag := range htmlTags {
		if !strings.HasPrefix(word, tag) {
			continue
		}
		if rest := word[len(tag):]; rest == "" || rest[0] == '#' || rest[0] == '.' {
			sel.tag = tag
			_, sel.void = voidHTMLTags[tag]
			word = rest
			break
		}
	}
	if sel.tag == "" {
		return sel
	}
	for _, m := range selectorPartRe.FindAllStringSubmatch(word, -1) {
		if m[1] == "#" {
			sel.id = m[2]
		} else {
			sel.className = m[2]
		}
	}
	return sel
}

// skeleton returns the element for sel with the selected range inside it.
func (sel selector) skeleton() (html string, from, to int) {
	var b strings.Builder
	b.WriteString("<" + sel.tag)
	switch sel.tag {
	case "img":
		b.WriteString(` alt="" src=""`)
		from = tree.Len(b.String()) - 1
		to = from
	case "input":
		b.WriteString(` type="text"`)
		from, to = tree.Len(b.String())-5, tree.Len(b.String())-1
	case "a":
		b.WriteString(` href=""`)
		from = tree.Len(b.String()) - 1
		to = from
	case "link":
		b.WriteString(` rel="stylesheet" href=""`)
		from = tree.Len(b.String()) - 1
		to = from
	}
	if sel.id != "" {
		b.WriteString(` id="` + sel.id + `"`)
	}
	if sel.className != "" {
		b.WriteString(` class="` + sel.className + `"`)
	}
	b.WriteString(">")
	if from == 0 && to == 0 {
		from = tree.Len(b.String())
		to = from
	}
	if !sel.void {
		b.WriteString("</" + sel.tag + ">")
	}
	return b.String(), from, to
}

// TabHandler handles the tab key, or shift-tab when shift is set.
func (s *Session) TabHandler(shift bool) error {
	if err := s.cursor.Validate(s.tree); err != nil {
		return errors.Wrap(err, "tab")
	}
	t := s.tree
	c := ordered(t, s.cursor)
	start, end := t.Block(c.Start.Key), t.Block(c.End.Key)

	if shift {
		if _, typ := unindentTypeOf(t, c); typ != unindentNone {
			return s.UnindentListItem()
		}
		if c.SameBlock() && start.Kind() == tree.KindTableCell {
			if cell := prevCell(t, start); cell != nil {
				s.selectCell(cell)
			}
		}
		return nil
	}

	if handled, err := s.quickTag(c, start); handled {
		return err
	}

	var next *tree.Block
	switch {
	case c.SameBlock() && start.Kind() == tree.KindTableCell:
		next = nextCell(t, start)
	case !c.SameBlock() && end.Kind() == tree.KindTableCell:
		next = end
	}
	if next != nil {
		s.selectCell(next)
		return nil
	}

	if _, ok := indentable(t, c); ok {
		return s.IndentListItem()
	}
	return s.insertTab(c)
}

func (s *Session) selectCell(cell *tree.Block) {
	s.moveCursor(tree.Cursor{
		Start: tree.Position{Key: cell.Key(), Offset: 0},
		End:   tree.Position{Key: cell.Key(), Offset: cell.Len()},
	}, topLevel(s.tree, cell).Key())
}

// quickTag expands the last word of a markup code line into an element.
// It reports whether the key was consumed.
func (s *Session) quickTag(c tree.Cursor, line *tree.Block) (bool, error) {
	if !c.IsCollapsed() || !line.IsCodeLine() || c.Start.Offset != line.Len() {
		return false, nil
	}
	if _, ok := markupLangs[line.Lang]; !ok {
		return false, nil
	}

	words := whitespaceRe.Split(line.Text, -1)
	word := words[len(words)-1]
	if word == "" {
		return false, nil
	}
	sel := parseSelector(word)
	if sel.tag == "" {
		return true, nil
	}

	html, from, to := sel.skeleton()
	pre := tree.Head(line.Text, line.Len()-tree.Len(word))
	return true, s.transact("quick tag", func(t *tree.Tree, _ tree.Cursor) (tree.Cursor, tree.Key, error) {
		b := t.Block(line.Key())
		b.Text = pre + html
		n := tree.Len(pre)
		return tree.Cursor{
			Start: tree.Position{Key: b.Key(), Offset: n + from},
			End:   tree.Position{Key: b.Key(), Offset: n + to},
		}, topLevel(t, b).Key(), nil
	})
}

// insertTab inserts tabSize non-breaking spaces at a collapsed cursor.
func (s *Session) insertTab(c tree.Cursor) error {
	if !c.IsCollapsed() {
		return nil
	}
	tab := strings.Repeat("\u00a0", s.tabSize)
	return s.transact("insert tab", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		b := t.Block(c.Start.Key)
		b.Text = tree.Splice(b.Text, c.Start.Offset, c.End.Offset, tab)
		return tree.Collapsed(b.Key(), c.Start.Offset+tree.Len(tab)), topLevel(t, b).Key(), nil
	})
}

// nextCell returns the cell after cell, wrapping to the next row and from
// the head into the body.
func nextCell(t *tree.Tree, cell *tree.Block) *tree.Block {
	if next := t.NextSibling(cell); next != nil {
		return next
	}
	row := t.Parent(cell)
	if next := t.NextSibling(row); next != nil {
		return t.FirstChild(next)
	}
	if section := t.Parent(row); section != nil && section.Kind() == tree.KindTableHead {
		if body := t.NextSibling(section); body != nil {
			return t.FirstChild(t.FirstChild(body))
		}
	}
	return nil
}

// prevCell mirrors nextCell.
func prevCell(t *tree.Tree, cell *tree.Block) *tree.Block {
	if prev := t.PrevSibling(cell); prev != nil {
		return prev
	}
	row := t.Parent(cell)
	if prev := t.PrevSibling(row); prev != nil {
		return t.LastChild(prev)
	}
	if section := t.Parent(row); section != nil && section.Kind() == tree.KindTableBody {
		if head := t.PrevSibling(section); head != nil {
			return t.LastChild(t.LastChild(head))
		}
	}
	return nil
}
