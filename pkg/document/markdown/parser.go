package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/tree"
)

// Parser converts Markdown into detached block fragments.
type Parser struct {
	md         goldmark.Markdown
	logger     *zap.Logger
	onLanguage func(string)
}

type ParserOption func(*Parser)

func WithParserLogger(logger *zap.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithLanguageObserver registers a function called once per parse for
// every distinct fenced code language.
func WithLanguageObserver(fn func(lang string)) ParserOption {
	return func(p *Parser) {
		p.onLanguage = fn
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{md: newBlockParser()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Lex returns the block token stream of source.
func (p *Parser) Lex(source []byte) []Token {
	source = NormalizeLineBreaks(source)

	var tokens []Token

	fm, content, err := splitFrontMatter(source)
	if err != nil {
		p.logger.Warn("treating front matter as content", zap.Error(err))
	}
	if fm != nil {
		if err := validateFrontMatter(fm.Body, fm.Lang); err != nil {
			p.logger.Warn("front matter is not valid", zap.String("lang", fm.Lang), zap.Error(err))
		}
		tokens = append(tokens, Token{
			Type:      TokenFrontMatter,
			Text:      string(fm.Body),
			Lang:      fm.Lang,
			CodeStyle: tree.CodeFrontMatter,
		})
	}

	tokens = append(tokens, lex(p.md, content, p.logger)...)
	p.logger.Debug("lexed markdown", zap.Int("tokens", len(tokens)))
	return tokens
}

// Parse builds the blocks of source in t. The returned top-level blocks
// are detached; callers splice them into the document. There is always
// at least one block.
func (p *Parser) Parse(t *tree.Tree, source []byte) ([]*tree.Block, error) {
	return p.Build(t, p.Lex(source))
}

// Build turns tokens into detached blocks of t.
func (p *Parser) Build(t *tree.Tree, tokens []Token) ([]*tree.Block, error) {
	b := &builder{
		tree:       t,
		logger:     p.logger,
		onLanguage: p.onLanguage,
	}
	return b.build(tokens)
}

// DetectLineBreak returns the line break used by source. CRLF is only
// reported when every line break is CRLF.
func DetectLineBreak(source []byte) []byte {
	crlfCount := bytes.Count(source, []byte{'\r', '\n'})
	lfCount := bytes.Count(source, []byte{'\n'})
	if crlfCount > 0 && crlfCount == lfCount {
		return []byte{'\r', '\n'}
	}
	return []byte{'\n'}
}

// NormalizeLineBreaks converts CRLF line breaks to LF.
func NormalizeLineBreaks(source []byte) []byte {
	if !bytes.Contains(source, []byte{'\r', '\n'}) {
		return source
	}
	return bytes.ReplaceAll(source, []byte{'\r', '\n'}, []byte{'\n'})
}

// RestoreLineBreaks converts LF line breaks to lineBreak.
func RestoreLineBreaks(source, lineBreak []byte) []byte {
	if bytes.Equal(lineBreak, []byte{'\n'}) {
		return source
	}
	return bytes.ReplaceAll(source, []byte{'\n'}, lineBreak)
}
