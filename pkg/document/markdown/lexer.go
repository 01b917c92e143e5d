package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/tree"
)

var (
	taskPrefixRe    = regexp.MustCompile(`^\[([ xX])\][ \t]+`)
	thematicBreakRe = regexp.MustCompile(`^[ \t>]*(?:(?:[-+*]|\d{1,9}[.)])[ \t]+)*((?:\*[ \t]*){3,}|(?:-[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	setextMarkerRe  = regexp.MustCompile(`^[ \t>]*(=+|-+)[ \t]*$`)
)

// newBlockParser returns a goldmark instance which only recognizes block
// structure. Inline parsers and the link reference transformer are left
// out, so paragraph text stays exactly as written.
func newBlockParser() goldmark.Markdown {
	blockParsers := append(
		parser.DefaultBlockParsers(),
		util.Prioritized(newMathBlockParser(), 750),
	)
	p := parser.NewParser(parser.WithBlockParsers(blockParsers...))
	return goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(extension.Table),
	)
}

// lexer flattens the block AST into tokens.
type lexer struct {
	source []byte
	logger *zap.Logger
	tokens []Token

	// pos is the end of the source consumed by emitted tokens. It is used
	// to recover markers goldmark does not keep, like thematic breaks.
	pos int
	// stripTask is set when the next text token starts with a task marker.
	stripTask bool
}

func (l *lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
}

func (l *lexer) advance(pos int) {
	if pos > l.pos {
		l.pos = pos
	}
}

// lines returns the raw text of a block's lines with the final line break
// trimmed.
func (l *lexer) lines(n ast.Node) string {
	var buf bytes.Buffer
	segments := n.Lines()
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		buf.Write(seg.Value(l.source))
		l.advance(seg.Stop)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// paragraphLines is like lines but keeps the indentation of continuation
// lines beyond the column of the first line.
func (l *lexer) paragraphLines(n ast.Node) string {
	segments := n.Lines()
	if segments.Len() < 2 {
		return l.lines(n)
	}

	var buf bytes.Buffer
	first := segments.At(0)
	base := l.column(first.Start)
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		if i > 0 {
			if extra := l.column(seg.Start) - base; extra > 0 {
				prefix := l.source[seg.Start-extra : seg.Start]
				if len(bytes.Trim(prefix, " \t")) == 0 {
					buf.Write(prefix)
				}
			}
		}
		buf.Write(seg.Value(l.source))
		l.advance(seg.Stop)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// column returns the byte offset of pos from the start of its line.
func (l *lexer) column(pos int) int {
	return pos - (bytes.LastIndexByte(l.source[:pos], '\n') + 1)
}

func (l *lexer) walk(parent ast.Node) {
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch node.Kind() {
		case ast.KindParagraph:
			l.emit(Token{Type: TokenParagraph, Text: l.text(node)})
		case ast.KindTextBlock:
			l.emit(Token{Type: TokenText, Text: l.text(node)})
		case ast.KindHeading:
			l.heading(node.(*ast.Heading))
		case ast.KindThematicBreak:
			l.emit(Token{Type: TokenThematicBreak, Marker: l.thematicBreakMarker()})
		case ast.KindFencedCodeBlock:
			n := node.(*ast.FencedCodeBlock)
			lang := ""
			if n.Info != nil {
				lang = string(n.Language(l.source))
			}
			l.emit(Token{Type: TokenCode, CodeStyle: tree.CodeFenced, Lang: lang, Text: l.lines(n)})
		case ast.KindCodeBlock:
			l.emit(Token{Type: TokenCode, CodeStyle: tree.CodeIndented, Text: l.lines(node)})
		case ast.KindHTMLBlock:
			n := node.(*ast.HTMLBlock)
			value := l.lines(n)
			if n.HasClosure() {
				value += "\n" + string(n.ClosureLine.Value(l.source))
				l.advance(n.ClosureLine.Stop)
			}
			l.emit(Token{Type: TokenHTML, Text: strings.TrimSpace(value)})
		case KindMathBlock:
			l.emit(Token{Type: TokenMultipleMath, Text: l.lines(node)})
		case east.KindTable:
			l.table(node.(*east.Table))
		case ast.KindBlockquote:
			l.emit(Token{Type: TokenBlockquoteStart})
			l.walk(node)
			l.emit(Token{Type: TokenBlockquoteEnd})
		case ast.KindList:
			l.list(node.(*ast.List))
		default:
			l.logger.Warn("skipping unsupported block", zap.String("kind", node.Kind().String()))
		}
	}
}

func (l *lexer) text(n ast.Node) string {
	value := l.paragraphLines(n)
	if l.stripTask {
		value = taskPrefixRe.ReplaceAllString(value, "")
		l.stripTask = false
	}
	return value
}

func (l *lexer) heading(n *ast.Heading) {
	tok := Token{Type: TokenHeading, Depth: n.Level, Text: strings.TrimSpace(l.lines(n))}
	if l.isSetext(n) {
		tok.HeadingStyle = tree.HeadingSetext
		tok.Marker = l.setextMarker(n)
	}
	l.emit(tok)
}

// isSetext reports whether the heading text is not preceded by "#".
func (l *lexer) isSetext(n *ast.Heading) bool {
	if n.Lines().Len() == 0 {
		return false
	}
	i := n.Lines().At(0).Start - 1
	for i >= 0 && (l.source[i] == ' ' || l.source[i] == '\t') {
		i--
	}
	return i < 0 || l.source[i] != '#'
}

func (l *lexer) setextMarker(n *ast.Heading) string {
	last := n.Lines().At(n.Lines().Len() - 1)
	line, end := l.lineAfter(last.Stop)
	l.advance(end)
	if m := setextMarkerRe.FindSubmatch(line); m != nil {
		return string(m[1])
	}
	if n.Level == 1 {
		return "==="
	}
	return "---"
}

// lineAfter returns the line following the one containing pos, and the
// offset of its end.
func (l *lexer) lineAfter(pos int) ([]byte, int) {
	from := pos - 1
	if from < 0 {
		from = 0
	}
	i := bytes.IndexByte(l.source[from:], '\n')
	if i < 0 {
		return nil, len(l.source)
	}
	return l.lineAt(from + i + 1)
}

// lineAt returns the line starting at pos without its line break.
func (l *lexer) lineAt(pos int) ([]byte, int) {
	if pos >= len(l.source) {
		return nil, len(l.source)
	}
	end := len(l.source)
	if i := bytes.IndexByte(l.source[pos:], '\n'); i >= 0 {
		end = pos + i
	}
	return bytes.TrimRight(l.source[pos:end], "\r"), end
}

func (l *lexer) thematicBreakMarker() string {
	start := 0
	if l.pos > 0 {
		start = len(l.source)
		if i := bytes.IndexByte(l.source[l.pos-1:], '\n'); i >= 0 {
			start = l.pos + i
		}
	}
	for start < len(l.source) {
		line, end := l.lineAt(start)
		if m := thematicBreakRe.FindSubmatch(line); m != nil {
			l.advance(end)
			return strings.TrimSpace(string(m[1]))
		}
		start = end + 1
	}
	return "---"
}

func (l *lexer) table(n *east.Table) {
	tok := Token{Type: TokenTable}
	for _, a := range n.Alignments {
		tok.Align = append(tok.Align, alignment(a))
	}
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(l.lines(cell)))
		}
		if row.Kind() == east.KindTableHeader {
			tok.Header = cells
		} else {
			tok.Cells = append(tok.Cells, cells)
		}
	}
	if len(tok.Cells) == 0 {
		// Move past the delimiter row.
		_, end := l.lineAfter(l.pos)
		l.advance(end)
	}
	l.emit(tok)
}

func alignment(a east.Alignment) tree.Align {
	switch a {
	case east.AlignLeft:
		return tree.AlignLeft
	case east.AlignCenter:
		return tree.AlignCenter
	case east.AlignRight:
		return tree.AlignRight
	default:
		return tree.AlignNone
	}
}

func (l *lexer) list(n *ast.List) {
	start := Token{
		Type:     TokenListStart,
		Ordered:  n.IsOrdered(),
		ListType: tree.ListBullet,
	}
	if n.IsOrdered() {
		start.ListType = tree.ListOrder
		start.Start = n.Start
	} else if first := n.FirstChild(); first != nil && l.taskState(first) != nil {
		start.ListType = tree.ListTask
	}
	l.emit(start)

	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if item.Kind() != ast.KindListItem {
			l.logger.Warn("skipping unexpected list child", zap.String("kind", item.Kind().String()))
			continue
		}
		tok := Token{
			Type:                    TokenListItemStart,
			BulletMarkerOrDelimiter: string(n.Marker),
		}
		if !n.IsTight {
			tok.Type = TokenLooseItemStart
		}
		if !n.IsOrdered() {
			tok.Checked = l.taskState(item)
			l.stripTask = tok.Checked != nil
		}
		l.emit(tok)
		l.walk(item)
		l.stripTask = false
		l.emit(Token{Type: TokenListItemEnd})
	}

	l.emit(Token{Type: TokenListEnd})
}

// taskState returns the checked state when the item starts with a task
// marker, and nil otherwise.
func (l *lexer) taskState(item ast.Node) *bool {
	first := item.FirstChild()
	if first == nil || (first.Kind() != ast.KindParagraph && first.Kind() != ast.KindTextBlock) {
		return nil
	}
	if first.Lines().Len() == 0 {
		return nil
	}
	seg := first.Lines().At(0)
	line := seg.Value(l.source)
	m := taskPrefixRe.FindSubmatch(line)
	if m == nil {
		return nil
	}
	checked := m[1][0] != ' '
	return &checked
}

// lex turns content without front matter into tokens.
func lex(md goldmark.Markdown, content []byte, logger *zap.Logger) []Token {
	doc := md.Parser().Parse(text.NewReader(content))
	l := &lexer{source: content, logger: logger}
	l.walk(doc)
	return l.tokens
}
