package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/tree"
)

var (
	atxTextRe       = regexp.MustCompile(`^(#{1,6})(.*)$`)
	backtickRunRe   = regexp.MustCompile("`{3,}")
	validBulletsSet = "-*+"
)

// Serializer renders blocks back to Markdown.
type Serializer struct {
	bulletMarker string
	logger       *zap.Logger
}

type SerializerOption func(*Serializer)

func WithSerializerLogger(logger *zap.Logger) SerializerOption {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// WithBulletMarker sets the marker used by list items which do not carry
// their own.
func WithBulletMarker(marker string) SerializerOption {
	return func(s *Serializer) {
		if len(marker) == 1 && strings.Contains(validBulletsSet, marker) {
			s.bulletMarker = marker
		}
	}
}

func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{bulletMarker: "-"}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Serialize renders the given sibling blocks.
func (s *Serializer) Serialize(t *tree.Tree, blocks []*tree.Block) string {
	r := &renderer{tree: t, bulletMarker: s.bulletMarker, logger: s.logger}
	return r.blocks(blocks, "", false)
}

// SerializeDocument renders the whole document of t.
func (s *Serializer) SerializeDocument(t *tree.Tree) string {
	return s.Serialize(t, t.Children(t.Root()))
}

type renderer struct {
	tree         *tree.Tree
	bulletMarker string
	logger       *zap.Logger
}

// blockLine writes a blank separator line carrying the non-space part of
// the indentation, like "> " becoming ">".
func blankLine(out *strings.Builder, indent string) {
	out.WriteString(strings.TrimRight(indent, " \t"))
	out.WriteByte('\n')
}

// lines writes every line of text with the indentation prefix.
func lines(out *strings.Builder, indent, text string) {
	for _, line := range strings.Split(text, "\n") {
		out.WriteString(indent)
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

// separated reports whether b is preceded by a blank line when it is not
// the first output of its level.
func separated(b *tree.Block, tight bool) bool {
	switch b.Kind() {
	case tree.KindSpan, tree.KindTableCell, tree.KindTaskCheckbox, tree.KindCode:
		return false
	case tree.KindListItem:
		return b.Loose
	default:
		return !tight
	}
}

// blocks renders siblings. tight is set for the children of a tight list
// item, which are never separated by blank lines.
func (r *renderer) blocks(blocks []*tree.Block, indent string, tight bool) string {
	var out strings.Builder
	for _, b := range blocks {
		chunk := r.block(b, indent)
		if chunk == "" {
			continue
		}
		if out.Len() > 0 && separated(b, tight) {
			blankLine(&out, indent)
		}
		out.WriteString(chunk)
	}
	return out.String()
}

func (r *renderer) block(b *tree.Block, indent string) string {
	var out strings.Builder

	switch b.Kind() {
	case tree.KindParagraph:
		for _, span := range r.tree.Children(b) {
			lines(&out, indent, span.Text)
		}
	case tree.KindSpan:
		lines(&out, indent, b.Text)
	case tree.KindHeading:
		r.heading(&out, b, indent)
	case tree.KindThematicBreak:
		marker := b.Marker
		if span := r.tree.FirstChild(b); span != nil && strings.TrimSpace(span.Text) != "" {
			marker = span.Text
		}
		if marker == "" {
			marker = "---"
		}
		lines(&out, indent, marker)
	case tree.KindBlockquote:
		out.WriteString(r.blocks(r.tree.Children(b), indent+"> ", false))
	case tree.KindList:
		r.list(&out, b, indent)
	case tree.KindCodeBlock:
		r.codeBlock(&out, b, indent)
	case tree.KindHTMLBlock:
		for _, line := range r.codeLines(b) {
			lines(&out, indent, line)
		}
	case tree.KindContainer:
		r.container(&out, b, indent)
	case tree.KindTable:
		r.table(&out, b, indent)
	case tree.KindCode:
		for _, line := range r.textOf(r.tree.Children(b)) {
			lines(&out, indent, line)
		}
	case tree.KindTaskCheckbox:
	case tree.KindListItem, tree.KindTableHead, tree.KindTableBody, tree.KindTableRow, tree.KindTableCell:
		r.logger.Warn("skipping block outside of its container", zap.Stringer("kind", b.Kind()))
	default:
		r.logger.Warn("skipping unknown block", zap.Stringer("kind", b.Kind()))
	}

	return out.String()
}

func (r *renderer) heading(out *strings.Builder, b *tree.Block, indent string) {
	text := ""
	if span := r.tree.FirstChild(b); span != nil {
		text = span.Text
	}

	if b.HeadingStyle == tree.HeadingSetext {
		lines(out, indent, strings.TrimSpace(text))
		marker := b.Marker
		switch {
		case b.Level == 1:
			if !strings.HasPrefix(marker, "=") {
				marker = "==="
			}
		case b.Level == 2:
			if !strings.HasPrefix(marker, "-") {
				marker = "---"
			}
		default:
			r.logger.Error("setext heading with a level above 2", zap.Int("level", b.Level))
			marker = "---"
		}
		lines(out, indent, marker)
		return
	}

	if m := atxTextRe.FindStringSubmatch(text); m != nil {
		text = m[1] + " " + strings.TrimSpace(m[2])
	} else {
		level := b.Level
		if level < 1 || level > 6 {
			level = 1
		}
		text = strings.Repeat("#", level) + " " + strings.TrimSpace(text)
	}
	lines(out, indent, strings.TrimRight(text, " "))
}

func (r *renderer) list(out *strings.Builder, list *tree.Block, indent string) {
	n := list.Start
	if list.Ordered && n == 0 && list.ListType != tree.ListOrder {
		n = 1
	}

	items := r.tree.Children(list)
	for i, item := range items {
		if item.Kind() != tree.KindListItem {
			r.logger.Warn("skipping non item list child", zap.Stringer("kind", item.Kind()))
			continue
		}
		if i > 0 && item.Loose {
			blankLine(out, indent)
		}
		marker := r.itemMarker(list, item, n)
		n++
		out.WriteString(r.listItem(item, marker, indent))
	}
}

func (r *renderer) itemMarker(list, item *tree.Block, n int) string {
	if list.Ordered {
		delim := item.BulletMarkerOrDelimiter
		if delim != ")" {
			delim = "."
		}
		return strconv.Itoa(n) + delim + " "
	}
	bullet := item.BulletMarkerOrDelimiter
	if len(bullet) != 1 || !strings.Contains(validBulletsSet, bullet) {
		bullet = r.bulletMarker
	}
	return bullet + " "
}

func (r *renderer) listItem(item *tree.Block, marker, indent string) string {
	children := r.tree.Children(item)

	checkbox := ""
	if len(children) > 0 && children[0].Kind() == tree.KindTaskCheckbox {
		checkbox = "[ ] "
		if children[0].Checked {
			checkbox = "[x] "
		}
		children = children[1:]
	}

	childIndent := indent + strings.Repeat(" ", len(marker))
	body := strings.TrimPrefix(r.blocks(children, childIndent, !item.Loose), childIndent)
	if body == "" {
		body = "\n"
	}
	return indent + marker + checkbox + body
}

func (r *renderer) textOf(blocks []*tree.Block) []string {
	result := make([]string, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, b.Text)
	}
	return result
}

// codeLines returns the lines of a code-like block's code child.
func (r *renderer) codeLines(b *tree.Block) []string {
	for _, c := range r.tree.Children(b) {
		if c.Kind() == tree.KindCode {
			return r.textOf(r.tree.Children(c))
		}
	}
	return nil
}

func fence(codeLines []string) string {
	longest := 0
	for _, line := range codeLines {
		for _, run := range backtickRunRe.FindAllString(line, -1) {
			longest = max(longest, len(run))
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func (r *renderer) codeBlock(out *strings.Builder, b *tree.Block, indent string) {
	codeLines := r.codeLines(b)

	switch b.CodeStyle {
	case tree.CodeFrontMatter:
		delim := "---"
		if b.Lang == "toml" {
			delim = "+++"
		}
		out.WriteString(delim + "\n")
		for _, line := range codeLines {
			out.WriteString(line + "\n")
		}
		out.WriteString(delim + "\n")
	case tree.CodeIndented:
		for _, line := range codeLines {
			lines(out, indent+"    ", line)
		}
	default:
		lang := b.Lang
		if input := r.tree.FirstChild(b); input != nil && input.Function == tree.FunctionLanguageInput {
			lang = strings.TrimSpace(input.Text)
		}
		f := fence(codeLines)
		lines(out, indent, f+lang)
		for _, line := range codeLines {
			lines(out, indent, line)
		}
		lines(out, indent, f)
	}
}

func (r *renderer) container(out *strings.Builder, b *tree.Block, indent string) {
	codeLines := r.codeLines(b)
	open, closing := "$$", "$$"
	if b.Container != tree.ContainerMath {
		f := fence(codeLines)
		open, closing = f+b.Container.String(), f
	}
	lines(out, indent, open)
	for _, line := range codeLines {
		lines(out, indent, line)
	}
	lines(out, indent, closing)
}

func (r *renderer) table(out *strings.Builder, b *tree.Block, indent string) {
	var (
		rows   [][]string
		aligns []tree.Align
	)
	for _, section := range r.tree.Children(b) {
		for _, row := range r.tree.Children(section) {
			var cells []string
			for _, cell := range r.tree.Children(row) {
				cells = append(cells, strings.TrimSpace(cell.Text))
				if section.Kind() == tree.KindTableHead && len(rows) == 0 {
					aligns = append(aligns, cell.Align)
				}
			}
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 {
		return
	}

	columns := 0
	for _, row := range rows {
		columns = max(columns, len(row))
	}
	widths := make([]int, columns)
	for j := range widths {
		widths[j] = 5
		for _, row := range rows {
			if j < len(row) {
				widths[j] = max(widths[j], runewidth.StringWidth(row[j])+2)
			}
		}
	}

	writeRow := func(cells []string) {
		var line strings.Builder
		line.WriteString("|")
		for j, width := range widths {
			cell := ""
			if j < len(cells) {
				cell = cells[j]
			}
			line.WriteString(runewidth.FillRight(" "+cell, width))
			line.WriteString("|")
		}
		lines(out, indent, line.String())
	}

	writeRow(rows[0])

	var delimiter strings.Builder
	delimiter.WriteString("|")
	for j, width := range widths {
		dashes := strings.Repeat("-", width-2)
		align := tree.AlignNone
		if j < len(aligns) {
			align = aligns[j]
		}
		switch align {
		case tree.AlignLeft:
			delimiter.WriteString(":" + dashes + " ")
		case tree.AlignCenter:
			delimiter.WriteString(":" + dashes + ":")
		case tree.AlignRight:
			delimiter.WriteString(" " + dashes + ":")
		default:
			delimiter.WriteString(" " + dashes + " ")
		}
		delimiter.WriteString("|")
	}
	lines(out, indent, delimiter.String())

	for _, row := range rows[1:] {
		writeRow(row)
	}
}
