package markdown

import (
	"bytes"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var errUnterminatedFrontMatter = errors.New("got EOF while looking for the end of the front matter")

const eof = -1

type itemType int

const (
	itemError itemType = iota
	itemFrontMatter
	itemContent
)

type item struct {
	typ   itemType
	start int
	end   int
	delim byte
	err   error
}

func (i item) Value(source []byte) []byte {
	return source[i.start:i.end]
}

// itemParser splits a document into its front matter and content.
type itemParser struct {
	input []byte
	start int
	pos   int
	width int
	items []item
}

type parserStateFunc func(*itemParser) parserStateFunc

func runItemParser(l *itemParser, state parserStateFunc) {
	for state != nil {
		state = state(l)
	}
}

func (l *itemParser) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *itemParser) hasPrefix(prefix []byte) bool {
	return bytes.HasPrefix(l.input[l.pos:], prefix)
}

func (l *itemParser) ignore() {
	l.start = l.pos
}

// consumeEOL consumes "\n" or "\r\n" at the current position.
func (l *itemParser) consumeEOL() bool {
	switch {
	case l.hasPrefix([]byte{'\r', '\n'}):
		l.pos += 2
	case l.hasPrefix([]byte{'\n'}):
		l.pos++
	default:
		return false
	}
	return true
}

// atEOL reports whether the current position ends a line.
func (l *itemParser) atEOL() bool {
	return l.pos >= len(l.input) || l.hasPrefix([]byte{'\n'}) || l.hasPrefix([]byte{'\r', '\n'})
}

// skipLine moves past the end of the current line. It returns false at EOF.
func (l *itemParser) skipLine() bool {
	for {
		r := l.next()
		if r == eof {
			return false
		}
		if r == '\n' {
			return true
		}
	}
}

func (l *itemParser) emit(t itemType, delim byte) {
	l.items = append(l.items, item{typ: t, start: l.start, end: l.pos, delim: delim})
	l.start = l.pos
}

func (l *itemParser) error(err error) {
	l.items = append(l.items, item{typ: itemError, start: l.start, end: l.pos, err: err})
}

func parseInit(l *itemParser) parserStateFunc {
	switch {
	case l.hasPrefix([]byte("---")):
		return parseFrontMatter('-')
	case l.hasPrefix([]byte("+++")):
		return parseFrontMatter('+')
	default:
		return parseContent
	}
}

// parseFrontMatter consumes a block delimited by lines of exactly three
// delimiter characters. The emitted item spans the body only.
func parseFrontMatter(delim byte) parserStateFunc {
	fence := bytes.Repeat([]byte{delim}, 3)

	return func(l *itemParser) parserStateFunc {
		l.pos += len(fence)
		if !l.consumeEOL() {
			l.pos = 0
			return parseContent
		}
		l.ignore()

		for {
			if l.hasPrefix(fence) {
				bodyEnd := l.pos
				l.pos += len(fence)
				if l.atEOL() {
					if bodyEnd == l.start {
						// An empty block is two thematic breaks.
						l.pos, l.start = 0, 0
						return parseContent
					}
					end := l.pos
					l.pos = bodyEnd
					l.emit(itemFrontMatter, delim)
					l.pos = end
					l.consumeEOL()
					l.ignore()
					return parseContent
				}
				l.pos = bodyEnd
			}
			if !l.skipLine() {
				l.error(errUnterminatedFrontMatter)
				return nil
			}
		}
	}
}

func parseContent(l *itemParser) parserStateFunc {
	l.pos = len(l.input)
	l.emit(itemContent, 0)
	return nil
}

type frontMatter struct {
	Body []byte
	Lang string
}

// splitFrontMatter separates the leading front matter from the content.
// An unterminated block is reported and the whole source is content.
func splitFrontMatter(source []byte) (*frontMatter, []byte, error) {
	l := &itemParser{input: source}
	runItemParser(l, parseInit)

	var (
		fm      *frontMatter
		content []byte
	)
	for _, item := range l.items {
		switch item.typ {
		case itemFrontMatter:
			lang := "yaml"
			if item.delim == '+' {
				lang = "toml"
			}
			fm = &frontMatter{Body: item.Value(source), Lang: lang}
		case itemContent:
			content = item.Value(source)
		case itemError:
			return nil, source, item.err
		}
	}
	return fm, content, nil
}

// validateFrontMatter checks the front matter syntax for its language.
func validateFrontMatter(body []byte, lang string) error {
	var v map[string]any
	switch lang {
	case "toml":
		return errors.Wrap(toml.Unmarshal(body, &v), "invalid toml front matter")
	default:
		return errors.Wrap(yaml.Unmarshal(body, &v), "invalid yaml front matter")
	}
}
