package markdown

import (
	"strings"
	"unicode/utf8"

	"github.com/stateful/mdedit/pkg/document/tree"
)

// CursorMarker is embedded into Markdown text to carry a cursor position
// through parsing. It is a private use character and never rendered.
const CursorMarker = "\uE000"

// LineCursor is a cursor position in serialized Markdown text.
type LineCursor struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// AddCursorMarker inserts the marker at the given line and character.
// Positions outside the text are clamped.
func AddCursorMarker(markdown string, c LineCursor) string {
	lines := strings.Split(markdown, "\n")
	line := min(max(c.Line, 0), len(lines)-1)
	lines[line] = tree.Splice(lines[line], c.Ch, c.Ch, CursorMarker)
	return strings.Join(lines, "\n")
}

// ImportCursor removes every cursor marker from the attached blocks of t
// and returns a collapsed cursor at the first one. Without a marker the
// cursor is placed at the end of the last editable block.
func ImportCursor(t *tree.Tree) (tree.Cursor, bool) {
	var (
		cursor tree.Cursor
		found  bool
	)
	t.Walk(t.Root(), func(b *tree.Block, _ int) bool {
		b.Lang = strings.ReplaceAll(b.Lang, CursorMarker, "")
		if !strings.Contains(b.Text, CursorMarker) {
			return true
		}
		offset := utf8.RuneCountInString(b.Text[:strings.Index(b.Text, CursorMarker)])
		b.Text = strings.ReplaceAll(b.Text, CursorMarker, "")
		if !found && b.Editable() {
			cursor = tree.Collapsed(b.Key(), offset)
			found = true
		}
		return true
	})
	if found {
		return cursor, true
	}
	return EndCursor(t), false
}

// EndCursor returns a collapsed cursor at the end of the last editable
// block, or the zero cursor for an empty tree.
func EndCursor(t *tree.Tree) tree.Cursor {
	last := t.LastEditable()
	if last == nil {
		return tree.Cursor{}
	}
	return tree.Collapsed(last.Key(), last.Len())
}

// MarkdownCursor returns the position of the cursor start in the
// serialized document. The tree is not modified.
func (s *Serializer) MarkdownCursor(t *tree.Tree, c tree.Cursor) (LineCursor, bool) {
	clone := t.Clone()
	b := clone.Block(c.Start.Key)
	if b == nil || !b.Editable() {
		return LineCursor{}, false
	}
	b.Text = tree.Splice(b.Text, c.Start.Offset, c.Start.Offset, CursorMarker)

	markdown := s.SerializeDocument(clone)
	i := strings.Index(markdown, CursorMarker)
	if i < 0 {
		return LineCursor{}, false
	}
	before := markdown[:i]
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return LineCursor{
		Line: strings.Count(before, "\n"),
		Ch:   utf8.RuneCountInString(before[lineStart:]),
	}, true
}
