package editor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/clipboard"
	"github.com/stateful/mdedit/pkg/document/tree"
)

// Payload is the content of the clipboard.
type Payload struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

func (p Payload) IsEmpty() bool {
	return p.HTML == "" && p.Text == ""
}

type PasteMode int

const (
	PasteNormal PasteMode = iota
	PastePlainText
)

type pasteType int

const (
	pasteUnknown pasteType = iota
	pasteMerge
	pasteNewline
)

func (t pasteType) String() string {
	switch t {
	case pasteMerge:
		return "MERGE"
	case pasteNewline:
		return "NEWLINE"
	default:
		return "unknown"
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// PasteHandler inserts the clipboard content at the cursor. A selection
// spanning several blocks is cut first.
func (s *Session) PasteHandler(payload Payload, mode PasteMode) error {
	if payload.IsEmpty() {
		return nil
	}

	html, err := s.normalizer.Standardize(payload.HTML)
	if err != nil {
		return errors.Wrap(err, "paste")
	}
	text := strings.ReplaceAll(payload.Text, "\r\n", "\n")
	copyType := clipboard.Classify(html, text)
	s.logger.Debug("pasting", zap.Stringer("copyType", copyType), zap.Int("mode", int(mode)))

	return s.transact("paste", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		c = ordered(t, c)
		if !c.SameBlock() {
			c = cut(t, c)
		}
		p := &paste{
			Session:  s,
			tree:     t,
			cursor:   c,
			start:    t.Block(c.Start.Key),
			end:      t.Block(c.End.Key),
			html:     html,
			text:     text,
			copyType: copyType,
			mode:     mode,
		}
		p.parent = t.Parent(p.start)
		return p.run()
	})
}

type paste struct {
	*Session

	tree       *tree.Tree
	cursor     tree.Cursor
	start, end *tree.Block
	parent     *tree.Block
	html, text string
	copyType   clipboard.CopyType
	mode       PasteMode
}

func (p *paste) from() tree.Key {
	if b := topLevel(p.tree, p.start); b != nil {
		return b.Key()
	}
	return ""
}

func (p *paste) run() (tree.Cursor, tree.Key, error) {
	switch {
	case p.start.IsCodeLine():
		return p.codeLine()
	case p.start.Kind() == tree.KindTableCell:
		return p.tableCell()
	case p.copyType == clipboard.CopyAsHTML:
		return p.literalHTML()
	default:
		return p.fragments()
	}
}

// codeLine splits the pasted text into code lines sharing the language of
// the current line.
func (p *paste) codeLine() (tree.Cursor, tree.Key, error) {
	start, c := p.start, p.cursor
	pre := tree.Head(start.Text, c.Start.Offset)
	post := tree.Tail(start.Text, c.End.Offset)

	lines := strings.Split(p.text, "\n")
	if len(lines) == 1 {
		start.Text = pre + p.text + post
		return tree.Collapsed(start.Key(), c.Start.Offset+tree.Len(p.text)), p.from(), nil
	}

	start.Text = pre + lines[0]
	ref := start
	for i, line := range lines[1:] {
		last := i == len(lines)-2
		if last {
			line += post
		}
		b := p.tree.CreateBlock(tree.KindSpan, tree.Attrs{
			Text:     line,
			Function: start.Function,
			Lang:     start.Lang,
		})
		if err := p.tree.InsertAfter(b, ref); err != nil {
			return tree.Cursor{}, "", err
		}
		ref = b
	}
	return tree.Collapsed(ref.Key(), tree.Len(lines[len(lines)-1])), p.from(), nil
}

// tableCell inserts the text inline. Line breaks become <br/>.
func (p *paste) tableCell() (tree.Cursor, tree.Key, error) {
	pending := strings.ReplaceAll(strings.TrimSpace(p.text), "\n", "<br/>")
	c := p.cursor
	p.start.Text = tree.Splice(p.start.Text, c.Start.Offset, c.End.Offset, pending)
	return tree.Collapsed(p.start.Key(), c.Start.Offset+tree.Len(pending)), p.from(), nil
}

func (p *paste) insertText(text string) (tree.Cursor, tree.Key, error) {
	c := p.cursor
	p.start.Text = tree.Splice(p.start.Text, c.Start.Offset, c.End.Offset, text)
	return tree.Collapsed(p.start.Key(), c.Start.Offset+tree.Len(text)), p.from(), nil
}

// literalHTML handles plain text which is a single HTML element.
func (p *paste) literalHTML() (tree.Cursor, tree.Key, error) {
	if p.start.Kind() != tree.KindSpan {
		return p.insertText(p.text)
	}

	switch p.mode {
	case PastePlainText:
		var last *tree.Block
		for _, line := range strings.Split(strings.TrimSpace(p.text), "\n") {
			last = p.tree.CreateBlock(tree.KindSpan, tree.Attrs{Text: line, Function: tree.FunctionPlain})
			if err := p.tree.AppendChild(p.parent, last); err != nil {
				return tree.Cursor{}, "", err
			}
		}
		return tree.Collapsed(last.Key(), last.Len()), p.from(), nil
	default:
		if p.start.Text == "" && p.tree.IsOnlyChild(p.start) {
			return p.htmlBlock(strings.TrimSpace(p.text))
		}
		return p.insertText(p.text)
	}
}

// htmlBlock replaces the paragraph of the cursor with an HTML block.
func (p *paste) htmlBlock(value string) (tree.Cursor, tree.Key, error) {
	block := p.tree.CreateBlock(tree.KindHTMLBlock, tree.Attrs{Lang: "html"})
	code := p.tree.CreateBlock(tree.KindCode, tree.Attrs{Lang: "html"})
	if err := p.tree.AppendChild(block, code); err != nil {
		return tree.Cursor{}, "", err
	}
	var last *tree.Block
	for _, line := range strings.Split(value, "\n") {
		last = p.tree.CreateBlock(tree.KindSpan, tree.Attrs{Text: line, Function: tree.FunctionCodeLine, Lang: "html"})
		if err := p.tree.AppendChild(code, last); err != nil {
			return tree.Cursor{}, "", err
		}
	}
	if err := p.tree.InsertAfter(block, p.parent); err != nil {
		return tree.Cursor{}, "", err
	}
	p.tree.RemoveBlock(p.parent)
	return tree.Collapsed(last.Key(), last.Len()), block.Key(), nil
}

func (p *paste) parseFragments() ([]*tree.Block, error) {
	source := p.text
	if p.mode != PastePlainText && p.copyType != clipboard.CopyAsMarkdown {
		markdown, err := p.normalizer.ToMarkdown(p.html)
		if err != nil {
			return nil, err
		}
		source = markdown
	}
	return p.parser.Parse(p.tree, []byte(source))
}

// fragments parses the clipboard into blocks and splices them in.
func (p *paste) fragments() (tree.Cursor, tree.Key, error) {
	fragments, err := p.parseFragments()
	if err != nil {
		return tree.Cursor{}, "", err
	}
	if len(fragments) == 0 {
		return tree.Cursor{}, "", errNoChange
	}
	defer p.dropDetached(fragments)

	start, parent, t := p.start, p.parent, p.tree

	cacheText := tree.Tail(p.end.Text, p.cursor.End.Offset)
	start.Text = tree.Head(start.Text, p.cursor.Start.Offset)

	first, tail := fragments[0], fragments[1:]
	typ := checkPasteType(t, start, first)

	lastBlock := t.LastLeaf(fragments[len(fragments)-1])
	key, offset := lastBlock.Key(), lastBlock.Len()
	lastBlock.Text += cacheText

	switch typ {
	case pasteMerge:
		if first.IsList() {
			if err := p.mergeList(first, tail); err != nil {
				return tree.Cursor{}, "", err
			}
			break
		}

		switch first.Kind() {
		case tree.KindParagraph:
			spans := t.Children(first)
			start.Text += spans[0].Text
			for _, line := range spans[1:] {
				if start.Function != tree.FunctionPlain {
					line.Function = start.Function
				}
				if start.Lang != "" {
					line.Lang = start.Lang
				}
				if err := t.AppendChild(parent, line); err != nil {
					return tree.Cursor{}, "", err
				}
			}
		case tree.KindHeading:
			if span := t.FirstChild(first); span != nil {
				if words := whitespaceRe.Split(span.Text, -1); len(words) > 1 {
					start.Text += words[1]
				}
			}
		default:
			start.Text += first.Text
		}

		if err := insertAllAfter(t, tail, parent); err != nil {
			return tree.Cursor{}, "", err
		}
	case pasteNewline:
		if err := insertAllAfter(t, fragments, parent); err != nil {
			return tree.Cursor{}, "", err
		}
		if start.Text == "" {
			if t.IsOnlyChild(start) {
				t.RemoveBlock(parent)
			} else {
				t.RemoveBlock(start)
			}
		}
	default:
		panic(fmt.Sprintf("unknown paste type %s", typ))
	}

	if !t.Contains(key) {
		key, offset = start.Key(), start.Len()-tree.Len(cacheText)
	}
	return tree.Collapsed(key, offset), p.from(), nil
}

// mergeList grafts the first item of a pasted list into the current list
// item and appends the remaining items to the current list.
func (p *paste) mergeList(first *tree.Block, tail []*tree.Block) error {
	t, start, parent := p.tree, p.start, p.parent

	items := t.Children(first)
	originItem := t.Parent(parent)
	originList := t.Parent(originItem)
	if originItem == nil || originList == nil {
		return errors.Wrap(tree.ErrBlockNotFound, "list item of cursor")
	}

	children := t.Children(items[0])
	if len(children) > 0 && children[0].Kind() == tree.KindParagraph {
		spans := t.Children(children[0])
		start.Text += spans[0].Text
		for _, span := range spans[1:] {
			if err := t.AppendChild(parent, span); err != nil {
				return err
			}
		}
		for _, c := range children[1:] {
			if err := t.AppendChild(originItem, c); err != nil {
				return err
			}
		}
		for _, item := range items[1:] {
			if err := t.AppendChild(originList, item); err != nil {
				return err
			}
		}
	} else {
		for _, item := range items {
			if err := t.AppendChild(originList, item); err != nil {
				return err
			}
		}
	}
	return insertAllAfter(t, tail, originList)
}

// dropDetached deletes fragments which were not spliced into the document.
func (p *paste) dropDetached(fragments []*tree.Block) {
	for _, f := range fragments {
		if !p.tree.Contains(f.Key()) {
			p.tree.RemoveBlock(f)
		}
	}
}

func insertAllAfter(t *tree.Tree, blocks []*tree.Block, target *tree.Block) error {
	for _, b := range blocks {
		if err := t.InsertAfter(b, target); err != nil {
			return err
		}
		target = b
	}
	return nil
}

// checkPasteType decides whether the first fragment merges into the block
// of the cursor or starts a new block after it.
func checkPasteType(t *tree.Tree, start, fragment *tree.Block) pasteType {
	if start.Kind() == tree.KindSpan {
		start = t.Parent(start)
	}
	switch fragment.Kind() {
	case tree.KindParagraph:
		return pasteMerge
	case tree.KindBlockquote:
		return pasteNewline
	}

	parent := t.Parent(start)
	if t.IsRoot(parent) {
		parent = nil
	}
	if parent != nil && parent.Kind() == tree.KindListItem {
		parent = t.Parent(parent)
	}
	startType := start
	if start.Kind() == tree.KindParagraph && parent != nil {
		startType = parent
	}

	if fragment.IsList() && startType.IsList() {
		return pasteMerge
	}
	if tree.SameType(startType, fragment) {
		return pasteMerge
	}
	return pasteNewline
}
