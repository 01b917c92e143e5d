package markdown

import (
	"github.com/stateful/mdedit/pkg/document/tree"
)

// TokenType is the type of a block-level token produced by the lexer.
type TokenType int

const (
	TokenUnknown TokenType = iota
	TokenFrontMatter
	TokenThematicBreak
	TokenHeading
	TokenCode
	TokenMultipleMath
	TokenTable
	TokenHTML
	TokenText
	TokenParagraph
	TokenBlockquoteStart
	TokenBlockquoteEnd
	TokenListStart
	TokenListEnd
	TokenListItemStart
	TokenLooseItemStart
	TokenListItemEnd
	TokenSpace
)

var tokenNames = [...]string{
	TokenUnknown:         "unknown",
	TokenFrontMatter:     "front_matter",
	TokenThematicBreak:   "hr",
	TokenHeading:         "heading",
	TokenCode:            "code",
	TokenMultipleMath:    "multiplemath",
	TokenTable:           "table",
	TokenHTML:            "html",
	TokenText:            "text",
	TokenParagraph:       "paragraph",
	TokenBlockquoteStart: "blockquote_start",
	TokenBlockquoteEnd:   "blockquote_end",
	TokenListStart:       "list_start",
	TokenListEnd:         "list_end",
	TokenListItemStart:   "list_item_start",
	TokenLooseItemStart:  "loose_item_start",
	TokenListItemEnd:     "list_item_end",
	TokenSpace:           "space",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return tokenNames[TokenUnknown]
}

// Token is a flat block-level token. Inline content is kept raw in Text.
type Token struct {
	Type TokenType
	Text string

	// Heading.
	Depth        int
	HeadingStyle tree.HeadingStyle
	// Marker is the thematic break or setext underline as written.
	Marker string

	// Code and front matter.
	CodeStyle tree.CodeStyle
	Lang      string

	// Table.
	Header []string
	Align  []tree.Align
	Cells  [][]string

	// List.
	Ordered  bool
	ListType tree.ListType
	Start    int

	// List item.
	Checked                 *bool
	BulletMarkerOrDelimiter string
}
