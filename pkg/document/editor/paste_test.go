package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/mdedit/pkg/document/tree"
)

func TestPasteHandler_Empty(t *testing.T) {
	s := newSession(t, "he"+mark+"llo")
	before, cursor := s.Tree(), s.Cursor()

	require.NoError(t, s.PasteHandler(Payload{}, PasteNormal))
	assert.Same(t, before, s.Tree())
	assert.Equal(t, cursor, s.Cursor())
}

func TestPasteHandler_CodeLine(t *testing.T) {
	s := newSession(t, "```go\nx"+mark+"y\n```")

	require.NoError(t, s.PasteHandler(Payload{Text: "a\nb"}, PasteNormal))

	xa := findBlock(t, s, "xa")
	by := findBlock(t, s, "by")
	for _, b := range []*tree.Block{xa, by} {
		assert.Equal(t, tree.FunctionCodeLine, b.Function)
		assert.Equal(t, "go", b.Lang)
	}
	assert.Same(t, by, s.Tree().NextSibling(xa))
	assert.Equal(t, tree.Collapsed(by.Key(), 1), s.Cursor())
	assert.Equal(t, "```go\nxa\nby\n```\n", s.ExportMarkdown())
}

func TestPasteHandler_CodeLineSingle(t *testing.T) {
	s := newSession(t, "```go\nx"+mark+"y\n```")

	require.NoError(t, s.PasteHandler(Payload{Text: "abc"}, PasteNormal))
	line := findBlock(t, s, "xabcy")
	assert.Equal(t, tree.Collapsed(line.Key(), 4), s.Cursor())
}

func TestPasteHandler_TableCell(t *testing.T) {
	s := newSession(t, "| a"+mark+" | b |\n| --- | --- |\n| c | d |")

	require.NoError(t, s.PasteHandler(Payload{Text: "x\ny\n"}, PasteNormal))
	cell := cursorBlock(s)
	assert.Equal(t, tree.KindTableCell, cell.Kind())
	assert.Equal(t, "ax<br/>y", cell.Text)
	assert.Equal(t, 8, s.Cursor().Start.Offset)
}

func TestPasteHandler_MergeParagraph(t *testing.T) {
	s := newSession(t, "Hel"+mark+"rld")

	require.NoError(t, s.PasteHandler(Payload{Text: "lo wo"}, PasteNormal))
	assert.Equal(t, "Hello world\n", s.ExportMarkdown())

	span := findBlock(t, s, "Hello world")
	assert.Equal(t, tree.Collapsed(span.Key(), 8), s.Cursor())
}

func TestPasteHandler_MultipleParagraphs(t *testing.T) {
	s := newSession(t, "Para "+mark+" two")

	require.NoError(t, s.PasteHandler(Payload{Text: "one\n\nPara"}, PasteNormal))
	assert.Equal(t, "Para one\n\nPara two\n", s.ExportMarkdown())

	span := findBlock(t, s, "Para two")
	assert.Equal(t, tree.Collapsed(span.Key(), 4), s.Cursor())
}

func TestPasteHandler_NewlineReplacesEmptyParagraph(t *testing.T) {
	s := newSession(t, "")

	require.NoError(t, s.PasteHandler(Payload{Text: "# Title"}, PasteNormal))
	assert.Equal(t, []tree.Kind{tree.KindHeading}, topKinds(s))
	assert.Equal(t, "# Title\n", s.ExportMarkdown())

	span := findBlock(t, s, "# Title")
	assert.Equal(t, tree.Collapsed(span.Key(), 7), s.Cursor())
}

func TestPasteHandler_NewlineAfterParagraph(t *testing.T) {
	s := newSession(t, "abc"+mark)

	require.NoError(t, s.PasteHandler(Payload{Text: "> quote"}, PasteNormal))
	assert.Equal(t, []tree.Kind{tree.KindParagraph, tree.KindBlockquote}, topKinds(s))
	assert.Equal(t, "abc\n\n> quote\n", s.ExportMarkdown())
}

func TestPasteHandler_MergeHeading(t *testing.T) {
	s := newSession(t, "# Hi "+mark)

	require.NoError(t, s.PasteHandler(Payload{Text: "# there"}, PasteNormal))
	assert.Equal(t, "# Hi there\n", s.ExportMarkdown())
	assert.Equal(t, 10, s.Cursor().Start.Offset)
}

func TestPasteHandler_MergeList(t *testing.T) {
	s := newSession(t, "- one"+mark)

	require.NoError(t, s.PasteHandler(Payload{Text: "- two\n- three"}, PasteNormal))
	assert.Equal(t, "- onetwo\n- three\n", s.ExportMarkdown())

	span := findBlock(t, s, "three")
	assert.Equal(t, tree.Collapsed(span.Key(), 5), s.Cursor())
}

func TestPasteHandler_HTML(t *testing.T) {
	s := newSession(t, "")

	payload := Payload{HTML: "<p>Hello <strong>bold</strong></p>", Text: "Hello bold"}
	require.NoError(t, s.PasteHandler(payload, PasteNormal))
	assert.Equal(t, "Hello **bold**\n", s.ExportMarkdown())
}

func TestPasteHandler_PlainText(t *testing.T) {
	s := newSession(t, "")

	payload := Payload{HTML: "<p>Hello <strong>bold</strong></p>", Text: "Hello bold"}
	require.NoError(t, s.PasteHandler(payload, PastePlainText))
	assert.Equal(t, "Hello bold\n", s.ExportMarkdown())
}

func TestPasteHandler_CopiedAsHTML(t *testing.T) {
	s := newSession(t, "")

	require.NoError(t, s.PasteHandler(Payload{Text: "<p>hi</p>"}, PasteNormal))
	assert.Equal(t, []tree.Kind{tree.KindHTMLBlock}, topKinds(s))
	assert.Equal(t, "<p>hi</p>\n", s.ExportMarkdown())

	line := cursorBlock(s)
	assert.True(t, line.IsCodeLine())
	assert.Equal(t, 9, s.Cursor().Start.Offset)
}

func TestPasteHandler_CopiedAsHTMLIntoText(t *testing.T) {
	s := newSession(t, "ab"+mark)

	require.NoError(t, s.PasteHandler(Payload{Text: "<p>hi</p>"}, PasteNormal))
	assert.Equal(t, "ab<p>hi</p>", cursorBlock(s).Text)
}

func TestPasteHandler_ReplacesSelection(t *testing.T) {
	s := newSession(t, "first\n\nsecond")
	first := findBlock(t, s, "first")
	second := findBlock(t, s, "second")
	require.NoError(t, s.SetCursor(tree.Cursor{
		Start: tree.Position{Key: first.Key(), Offset: 2},
		End:   tree.Position{Key: second.Key(), Offset: 3},
	}))

	require.NoError(t, s.PasteHandler(Payload{Text: "X"}, PasteNormal))
	assert.Equal(t, "fiXond\n", s.ExportMarkdown())
	assert.Equal(t, 3, s.Cursor().Start.Offset)
}

func TestCheckPasteType(t *testing.T) {
	s := newSession(t, "para\n\n- item\n\n## head")
	tr := s.Tree()

	parse := func(src string) *tree.Block {
		blocks, err := s.parser.Parse(tr, []byte(src))
		require.NoError(t, err)
		return blocks[0]
	}

	para := findBlock(t, s, "para")
	item := findBlock(t, s, "item")
	head := findBlock(t, s, "## head")

	testCases := []struct {
		name     string
		start    *tree.Block
		fragment string
		expected pasteType
	}{
		{"paragraph", para, "text", pasteMerge},
		{"blockquote", item, "> quote", pasteNewline},
		{"list into list", item, "1. one", pasteMerge},
		{"list into paragraph", para, "- one", pasteNewline},
		{"same heading", head, "## other", pasteMerge},
		{"other heading", head, "# other", pasteNewline},
		{"code", para, "```\ncode\n```", pasteNewline},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, checkPasteType(tr, tc.start, parse(tc.fragment)))
		})
	}
}
