package tree

// Key identifies a block within a document. Keys are never reused.
type Key string

// Attrs holds the kind-specific attributes of a block. Only the fields
// relevant to the block's kind are meaningful.
type Attrs struct {
	// Text is the raw text of an editable leaf (span or table cell).
	Text string

	// Function is the role of a span.
	Function Function
	// Lang is the language of a code block, or of a code line inheriting it.
	Lang string

	// Heading.
	Level        int
	HeadingStyle HeadingStyle

	// Marker is the source marker of a thematic break or a setext underline.
	Marker string

	// List.
	Ordered  bool
	ListType ListType
	Start    int

	// List item.
	ListItemType ListType
	// BulletMarkerOrDelimiter is "-", "*" or "+" for bullet items and
	// "." or ")" for ordered ones.
	BulletMarkerOrDelimiter string
	Loose                   bool

	// Task checkbox.
	Checked bool

	// Code block.
	CodeStyle CodeStyle

	// Container block.
	Container Container

	// Table cell.
	Align  Align
	Column int
	Header bool

	// Table.
	Rows    int
	Columns int
}

// Block is a node of the document tree. Structure is owned by the Tree;
// only Attrs may be changed in place.
type Block struct {
	Attrs

	key      Key
	kind     Kind
	parent   Key
	children []Key
}

func (b *Block) Key() Key { return b.key }

func (b *Block) Kind() Kind { return b.kind }

// Editable reports whether the block carries leaf text a cursor can point into.
func (b *Block) Editable() bool {
	return b.kind == KindSpan || b.kind == KindTableCell
}

// Len returns the text length in characters.
func (b *Block) Len() int {
	return Len(b.Text)
}

// IsList reports whether the block is an ordered or unordered list.
func (b *Block) IsList() bool {
	return b.kind == KindList
}

// IsCodeLine reports whether the block is a line of a code-like block.
func (b *Block) IsCodeLine() bool {
	return b.kind == KindSpan && b.Function == FunctionCodeLine
}

// SameType reports whether two blocks would render as the same element,
// comparing heading levels and list flavours.
func SameType(a, b *Block) bool {
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindHeading:
		return a.Level == b.Level
	case KindList:
		return a.Ordered == b.Ordered
	case KindTableCell:
		return a.Header == b.Header
	default:
		return true
	}
}

func (b *Block) clone() *Block {
	c := *b
	c.children = append([]Key(nil), b.children...)
	return &c
}
