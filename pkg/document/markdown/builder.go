package markdown

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/tree"
)

// builder turns a token stream into detached top-level blocks.
type builder struct {
	tree   *tree.Tree
	logger *zap.Logger

	// parents is the stack of open containers; an empty stack means top level.
	parents []*tree.Block
	result  []*tree.Block

	seenLangs  map[string]struct{}
	onLanguage func(string)
}

func (b *builder) parent() *tree.Block {
	if len(b.parents) == 0 {
		return nil
	}
	return b.parents[len(b.parents)-1]
}

func (b *builder) push(block *tree.Block) {
	b.parents = append(b.parents, block)
}

func (b *builder) pop(kind tree.Kind) *tree.Block {
	top := b.parent()
	if top == nil || top.Kind() != kind {
		b.logger.Warn("unbalanced container token", zap.Stringer("expected", kind))
		return nil
	}
	b.parents = b.parents[:len(b.parents)-1]
	return top
}

func (b *builder) add(block *tree.Block) error {
	parent := b.parent()
	if parent == nil {
		b.result = append(b.result, block)
		return nil
	}
	return b.tree.AppendChild(parent, block)
}

// child creates a block of the given kind under parent.
func (b *builder) child(parent *tree.Block, kind tree.Kind, attrs tree.Attrs) (*tree.Block, error) {
	block := b.tree.CreateBlock(kind, attrs)
	if err := b.tree.AppendChild(parent, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (b *builder) build(tokens []Token) ([]*tree.Block, error) {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		var err error

		switch tok.Type {
		case TokenFrontMatter:
			err = b.code(tree.Attrs{CodeStyle: tree.CodeFrontMatter, Lang: tok.Lang}, tok.Text, false)
		case TokenThematicBreak:
			err = b.thematicBreak(tok)
		case TokenHeading:
			err = b.heading(tok)
		case TokenMultipleMath:
			err = b.container(tree.ContainerMath, "latex", tok.Text)
		case TokenCode:
			value := strings.TrimRight(tok.Text, "\n")
			if c, ok := tree.ContainerForLang(tok.Lang); ok && tok.CodeStyle == tree.CodeFenced {
				err = b.container(c, tok.Lang, value)
				break
			}
			b.observeLanguage(tok.Lang)
			err = b.code(tree.Attrs{CodeStyle: tok.CodeStyle, Lang: tok.Lang}, value, true)
		case TokenTable:
			err = b.table(tok)
		case TokenHTML:
			err = b.html(tok.Text)
		case TokenText:
			value := tok.Text
			for i+1 < len(tokens) && tokens[i+1].Type == TokenText {
				i++
				value += "\n" + tokens[i].Text
			}
			err = b.paragraph(value)
		case TokenParagraph:
			err = b.paragraph(tok.Text)
		case TokenBlockquoteStart:
			quote := b.tree.CreateBlock(tree.KindBlockquote, tree.Attrs{})
			err = b.add(quote)
			b.push(quote)
		case TokenBlockquoteEnd:
			b.pop(tree.KindBlockquote)
		case TokenListStart:
			list := b.tree.CreateBlock(tree.KindList, tree.Attrs{
				Ordered:  tok.Ordered,
				ListType: tok.ListType,
				Start:    tok.Start,
			})
			err = b.add(list)
			b.push(list)
		case TokenListEnd:
			b.pop(tree.KindList)
		case TokenListItemStart, TokenLooseItemStart:
			err = b.listItem(tok)
		case TokenListItemEnd:
			err = b.closeListItem()
		case TokenSpace:
		default:
			b.logger.Warn("skipping unknown token", zap.Stringer("type", tok.Type))
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to build %s", tok.Type)
		}
	}

	if len(b.result) == 0 {
		if err := b.paragraph(""); err != nil {
			return nil, err
		}
	}
	return b.result, nil
}

func (b *builder) observeLanguage(lang string) {
	if lang == "" || b.onLanguage == nil {
		return
	}
	if _, ok := b.seenLangs[lang]; ok {
		return
	}
	if b.seenLangs == nil {
		b.seenLangs = make(map[string]struct{})
	}
	b.seenLangs[lang] = struct{}{}
	b.onLanguage(lang)
}

func (b *builder) paragraph(value string) error {
	p := b.tree.CreateBlock(tree.KindParagraph, tree.Attrs{})
	if _, err := b.child(p, tree.KindSpan, tree.Attrs{Text: value, Function: tree.FunctionPlain}); err != nil {
		return err
	}
	return b.add(p)
}

func (b *builder) thematicBreak(tok Token) error {
	marker := tok.Marker
	if marker == "" {
		marker = "---"
	}
	hr := b.tree.CreateBlock(tree.KindThematicBreak, tree.Attrs{Marker: marker})
	if _, err := b.child(hr, tree.KindSpan, tree.Attrs{Text: marker, Function: tree.FunctionThematicBreakLine}); err != nil {
		return err
	}
	return b.add(hr)
}

func (b *builder) heading(tok Token) error {
	h := b.tree.CreateBlock(tree.KindHeading, tree.Attrs{
		Level:        tok.Depth,
		HeadingStyle: tok.HeadingStyle,
		Marker:       tok.Marker,
	})
	span := tree.Attrs{Text: tok.Text, Function: tree.FunctionPlain}
	if tok.HeadingStyle == tree.HeadingATX {
		span.Text = strings.Repeat("#", tok.Depth) + " " + tok.Text
		span.Function = tree.FunctionAtxLine
	}
	if _, err := b.child(h, tree.KindSpan, span); err != nil {
		return err
	}
	return b.add(h)
}

// codeLines appends one code-line span per line of value.
func (b *builder) codeLines(parent *tree.Block, lang, value string) error {
	for _, line := range strings.Split(value, "\n") {
		if _, err := b.child(parent, tree.KindSpan, tree.Attrs{
			Text:     line,
			Function: tree.FunctionCodeLine,
			Lang:     lang,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) code(attrs tree.Attrs, value string, languageInput bool) error {
	pre := b.tree.CreateBlock(tree.KindCodeBlock, attrs)
	if languageInput {
		if _, err := b.child(pre, tree.KindSpan, tree.Attrs{
			Text:     attrs.Lang,
			Function: tree.FunctionLanguageInput,
		}); err != nil {
			return err
		}
	}
	code, err := b.child(pre, tree.KindCode, tree.Attrs{Lang: attrs.Lang})
	if err != nil {
		return err
	}
	if attrs.CodeStyle == tree.CodeFrontMatter {
		value = strings.TrimLeft(value, " \t\r\n")
		value = strings.TrimSuffix(value, "\n")
	}
	if err := b.codeLines(code, attrs.Lang, value); err != nil {
		return err
	}
	return b.add(pre)
}

func (b *builder) container(kind tree.Container, lang, value string) error {
	c := b.tree.CreateBlock(tree.KindContainer, tree.Attrs{Container: kind, Lang: lang})
	code, err := b.child(c, tree.KindCode, tree.Attrs{Lang: lang})
	if err != nil {
		return err
	}
	if err := b.codeLines(code, lang, value); err != nil {
		return err
	}
	return b.add(c)
}

func (b *builder) html(value string) error {
	h := b.tree.CreateBlock(tree.KindHTMLBlock, tree.Attrs{Lang: "html"})
	code, err := b.child(h, tree.KindCode, tree.Attrs{Lang: "html"})
	if err != nil {
		return err
	}
	if err := b.codeLines(code, "html", value); err != nil {
		return err
	}
	return b.add(h)
}

func (b *builder) table(tok Token) error {
	columns := len(tok.Header)
	table := b.tree.CreateBlock(tree.KindTable, tree.Attrs{Rows: len(tok.Cells), Columns: columns})

	head, err := b.child(table, tree.KindTableHead, tree.Attrs{})
	if err != nil {
		return err
	}
	if err := b.tableRow(head, tok.Header, tok.Align, columns, true); err != nil {
		return err
	}

	body, err := b.child(table, tree.KindTableBody, tree.Attrs{})
	if err != nil {
		return err
	}
	for _, cells := range tok.Cells {
		if err := b.tableRow(body, cells, tok.Align, columns, false); err != nil {
			return err
		}
	}
	return b.add(table)
}

func (b *builder) tableRow(parent *tree.Block, cells []string, aligns []tree.Align, columns int, header bool) error {
	row, err := b.child(parent, tree.KindTableRow, tree.Attrs{})
	if err != nil {
		return err
	}
	for i := 0; i < columns; i++ {
		attrs := tree.Attrs{Column: i, Header: header}
		if i < len(cells) {
			attrs.Text = cells[i]
		}
		if i < len(aligns) {
			attrs.Align = aligns[i]
		}
		if _, err := b.child(row, tree.KindTableCell, attrs); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) listItem(tok Token) error {
	list := b.parent()
	if list == nil || list.Kind() != tree.KindList {
		b.logger.Warn("list item outside of a list")
		return nil
	}

	itemType := list.ListType
	switch {
	case tok.Checked != nil:
		itemType = tree.ListTask
	case itemType == tree.ListTask:
		itemType = tree.ListBullet
	}

	item := b.tree.CreateBlock(tree.KindListItem, tree.Attrs{
		ListItemType:            itemType,
		BulletMarkerOrDelimiter: tok.BulletMarkerOrDelimiter,
		Loose:                   tok.Type == TokenLooseItemStart,
	})
	if err := b.add(item); err != nil {
		return err
	}
	if tok.Checked != nil {
		if _, err := b.child(item, tree.KindTaskCheckbox, tree.Attrs{Checked: *tok.Checked}); err != nil {
			return err
		}
	}
	b.push(item)
	return nil
}

func (b *builder) closeListItem() error {
	item := b.pop(tree.KindListItem)
	if item == nil {
		return nil
	}
	// Keep every item editable.
	for _, c := range b.tree.Children(item) {
		if c.Kind() != tree.KindTaskCheckbox {
			return nil
		}
	}
	p := b.tree.CreateBlock(tree.KindParagraph, tree.Attrs{})
	if _, err := b.child(p, tree.KindSpan, tree.Attrs{Function: tree.FunctionPlain}); err != nil {
		return err
	}
	return b.tree.AppendChild(item, p)
}
