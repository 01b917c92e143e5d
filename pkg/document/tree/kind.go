package tree

// Kind is the closed set of block kinds a document tree is built from.
type Kind int

const (
	KindUnknown Kind = iota
	KindRoot
	KindParagraph
	KindHeading
	KindThematicBreak
	KindBlockquote
	KindList
	KindListItem
	KindTaskCheckbox
	KindCodeBlock
	KindCode
	KindHTMLBlock
	KindTable
	KindTableHead
	KindTableBody
	KindTableRow
	KindTableCell
	KindContainer
	KindSpan
)

var kindNames = map[Kind]string{
	KindRoot:          "root",
	KindParagraph:     "p",
	KindHeading:       "heading",
	KindThematicBreak: "hr",
	KindBlockquote:    "blockquote",
	KindList:          "list",
	KindListItem:      "li",
	KindTaskCheckbox:  "input",
	KindCodeBlock:     "pre",
	KindCode:          "code",
	KindHTMLBlock:     "html",
	KindTable:         "table",
	KindTableHead:     "thead",
	KindTableBody:     "tbody",
	KindTableRow:      "tr",
	KindTableCell:     "cell",
	KindContainer:     "container",
	KindSpan:          "span",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Function distinguishes the role of an inline span.
type Function int

const (
	FunctionPlain Function = iota
	FunctionAtxLine
	FunctionCodeLine
	FunctionLanguageInput
	FunctionThematicBreakLine
)

func (f Function) String() string {
	switch f {
	case FunctionPlain:
		return "plain"
	case FunctionAtxLine:
		return "atx-line"
	case FunctionCodeLine:
		return "code-line"
	case FunctionLanguageInput:
		return "language-input"
	case FunctionThematicBreakLine:
		return "thematic-break-line"
	default:
		return "unknown"
	}
}

type HeadingStyle int

const (
	HeadingATX HeadingStyle = iota
	HeadingSetext
)

func (s HeadingStyle) String() string {
	if s == HeadingSetext {
		return "setext"
	}
	return "atx"
}

type ListType int

const (
	ListBullet ListType = iota
	ListOrder
	ListTask
)

func (t ListType) String() string {
	switch t {
	case ListOrder:
		return "order"
	case ListTask:
		return "task"
	default:
		return "bullet"
	}
}

type CodeStyle int

const (
	CodeFenced CodeStyle = iota
	CodeIndented
	CodeFrontMatter
)

func (s CodeStyle) String() string {
	switch s {
	case CodeIndented:
		return "indented"
	case CodeFrontMatter:
		return "front-matter"
	default:
		return "fenced"
	}
}

// Container is the rendering flavour of a container block.
type Container int

const (
	ContainerMath Container = iota
	ContainerMermaid
	ContainerFlowchart
	ContainerSequence
	ContainerVegaLite
)

var containerNames = map[Container]string{
	ContainerMath:      "math",
	ContainerMermaid:   "mermaid",
	ContainerFlowchart: "flowchart",
	ContainerSequence:  "sequence",
	ContainerVegaLite:  "vega-lite",
}

func (c Container) String() string {
	return containerNames[c]
}

// ContainerForLang maps a fenced code language to a diagram container.
// Math is never selected by language; it comes from "$$" blocks.
func ContainerForLang(lang string) (Container, bool) {
	for c, name := range containerNames {
		if c != ContainerMath && name == lang {
			return c, true
		}
	}
	return 0, false
}

type Align int

const (
	AlignNone Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return ""
	}
}
