package editor

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/tree"
)

type CopyMode int

const (
	CopyNormal CopyMode = iota
	CopyAsMarkdown
	CopyAsHTML
	CopyTable
)

func (m CopyMode) String() string {
	switch m {
	case CopyAsMarkdown:
		return "copyAsMarkdown"
	case CopyAsHTML:
		return "copyAsHtml"
	case CopyTable:
		return "copyTable"
	default:
		return "normal"
	}
}

// CopyHandler returns the clipboard payload for the selection.
func (s *Session) CopyHandler(mode CopyMode) (Payload, error) {
	if err := s.cursor.Validate(s.tree); err != nil {
		return Payload{}, errors.Wrap(err, "copy")
	}
	s.logger.Debug("copying", zap.Stringer("mode", mode))

	if mode == CopyTable {
		table := s.tree.Closest(s.tree.Block(s.cursor.Start.Key), tree.KindTable)
		if table == nil {
			return Payload{}, errors.Wrap(ErrNotApplicable, "copy table")
		}
		return Payload{Text: s.serializer.Serialize(s.tree, []*tree.Block{table})}, nil
	}

	markdown, html, err := s.selectionContent()
	if err != nil {
		return Payload{}, errors.Wrap(err, "copy")
	}

	switch mode {
	case CopyAsMarkdown:
		return Payload{Text: markdown}, nil
	case CopyAsHTML:
		rendered, err := s.normalizer.RenderHTML(markdown)
		if err != nil {
			return Payload{}, errors.Wrap(err, "copy")
		}
		return Payload{Text: rendered}, nil
	default:
		return Payload{HTML: html, Text: markdown}, nil
	}
}

func (s *Session) languageOf(id string) string {
	if b := s.tree.Block(tree.Key(id)); b != nil {
		return b.Lang
	}
	return ""
}

// selectionContent returns the selection as Markdown and HTML. The
// selection source is exported when set. Otherwise the Markdown is
// serialized from the selected blocks and the HTML is rendered from it.
func (s *Session) selectionContent() (markdown, html string, _ error) {
	if s.selection != nil {
		clip, err := s.normalizer.ExportSelection(s.selection.SelectionHTML(), s.languageOf)
		if err != nil {
			return "", "", err
		}
		return clip.Markdown, clip.HTML, nil
	}

	c := ordered(s.tree, s.cursor)
	if c.IsCollapsed() {
		return "", "", nil
	}
	t, blocks := selectedBlocks(s.tree, c)
	markdown = strings.TrimRight(s.serializer.Serialize(t, blocks), "\n")
	html, err := s.normalizer.RenderHTML(markdown)
	if err != nil {
		return "", "", err
	}
	return markdown, html, nil
}

// selectedBlocks returns a copy of the top level blocks touched by c, with
// the spans outside of the selection removed.
func selectedBlocks(t *tree.Tree, c tree.Cursor) (*tree.Tree, []*tree.Block) {
	t = t.Clone()
	start, end := t.Block(c.Start.Key), t.Block(c.End.Key)
	if c.SameBlock() {
		start.Text = tree.Slice(start.Text, c.Start.Offset, c.End.Offset)
	} else {
		start.Text = tree.Tail(start.Text, c.Start.Offset)
		end.Text = tree.Head(end.Text, c.End.Offset)
	}
	first, last := topLevel(t, start), topLevel(t, end)

	var blocks []*tree.Block
	for _, b := range t.Children(t.Root()) {
		if b.Key() == first.Key() || len(blocks) > 0 {
			blocks = append(blocks, b)
		}
		if b.Key() == last.Key() {
			break
		}
	}

	var outside []*tree.Block
	selected := false
	for _, b := range documentOrder(t) {
		if b.Key() == start.Key() {
			selected = true
		}
		if !selected && b.Kind() == tree.KindSpan && (t.IsDescendant(first, b) || t.IsDescendant(last, b)) {
			outside = append(outside, b)
		}
		if b.Key() == end.Key() {
			selected = false
		}
	}
	for _, b := range outside {
		parent := t.Parent(b)
		t.RemoveBlock(b)
		for parent != nil && !t.IsRoot(parent) && t.ChildCount(parent) == 0 && !isTopLevel(t, parent) {
			next := t.Parent(parent)
			t.RemoveBlock(parent)
			parent = next
		}
	}
	return t, blocks
}

func isTopLevel(t *tree.Tree, b *tree.Block) bool {
	return t.IsRoot(t.Parent(b))
}
