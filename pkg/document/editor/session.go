package editor

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/pkg/document/clipboard"
	"github.com/stateful/mdedit/pkg/document/markdown"
	"github.com/stateful/mdedit/pkg/document/tree"
)

// ErrNotApplicable is returned by operations which do not apply at the
// current cursor.
var ErrNotApplicable = errors.New("operation not applicable at cursor")

// errNoChange aborts an edit without touching the tree or the cursor.
var errNoChange = errors.New("no change")

const (
	defaultTabSize = 4
	maxTabSize     = 4
)

// Session owns one document tree and its cursor. A session is not safe
// for concurrent use; background collaborator calls report back through
// Flush and Wait.
type Session struct {
	tree      *tree.Tree
	cursor    tree.Cursor
	lineBreak []byte

	parser     *markdown.Parser
	serializer *markdown.Serializer
	normalizer *clipboard.Normalizer

	renderer  Renderer
	selection SelectionSource
	images    ImageResolver
	paths     PathCompleter
	languages LanguageLoader

	keyGen       tree.KeyGenerator
	tabSize      int
	bulletMarker string
	logger       *zap.Logger
	tasks        *taskQueue
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

func WithSelectionSource(src SelectionSource) Option {
	return func(s *Session) {
		s.selection = src
	}
}

func WithImageResolver(r ImageResolver) Option {
	return func(s *Session) {
		s.images = r
	}
}

func WithPathCompleter(c PathCompleter) Option {
	return func(s *Session) {
		s.paths = c
	}
}

func WithLanguageLoader(l LanguageLoader) Option {
	return func(s *Session) {
		s.languages = l
	}
}

func WithNormalizer(n *clipboard.Normalizer) Option {
	return func(s *Session) {
		s.normalizer = n
	}
}

func WithKeyGenerator(gen tree.KeyGenerator) Option {
	return func(s *Session) {
		s.keyGen = gen
	}
}

// WithTabSize sets the number of non-breaking spaces inserted by tab.
// Values are clamped to [1, 4]; zero selects the default.
func WithTabSize(size int) Option {
	return func(s *Session) {
		switch {
		case size == 0:
			s.tabSize = defaultTabSize
		case size < 1:
			s.tabSize = 1
		case size > maxTabSize:
			s.tabSize = maxTabSize
		default:
			s.tabSize = size
		}
	}
}

func WithBulletListMarker(marker string) Option {
	return func(s *Session) {
		s.bulletMarker = marker
	}
}

// NewSession returns a session holding an empty document.
func NewSession(opts ...Option) *Session {
	s := &Session{
		tabSize:   defaultTabSize,
		lineBreak: []byte{'\n'},
		keyGen:    tree.DefaultKeyGenerator,
		tasks:     newTaskQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.renderer == nil {
		s.renderer = nopRenderer{}
	}
	if s.normalizer == nil {
		normalizerOpts := []clipboard.Option{clipboard.WithLogger(s.logger.Named("clipboard"))}
		if s.bulletMarker != "" {
			normalizerOpts = append(normalizerOpts, clipboard.WithBulletListMarker(s.bulletMarker))
		}
		s.normalizer = clipboard.NewNormalizer(normalizerOpts...)
	}

	s.parser = markdown.NewParser(
		markdown.WithParserLogger(s.logger.Named("markdown.parser")),
		markdown.WithLanguageObserver(s.loadLanguage),
	)
	s.serializer = markdown.NewSerializer(
		markdown.WithSerializerLogger(s.logger.Named("markdown.serializer")),
		markdown.WithBulletMarker(s.bulletMarker),
	)

	if err := s.ImportMarkdown(""); err != nil {
		// An empty document always parses.
		panic(err)
	}
	return s
}

// Tree returns the current document tree. It is replaced by every
// successful edit, so callers should not keep it.
func (s *Session) Tree() *tree.Tree {
	return s.tree
}

func (s *Session) Block(key tree.Key) *tree.Block {
	return s.tree.Block(key)
}

func (s *Session) Cursor() tree.Cursor {
	return s.cursor
}

// SetCursor replaces the cursor after validating it.
func (s *Session) SetCursor(c tree.Cursor) error {
	if err := c.Validate(s.tree); err != nil {
		return err
	}
	s.cursor = c
	return nil
}

// ImportMarkdown replaces the document. A cursor marker embedded in the
// text becomes the cursor.
func (s *Session) ImportMarkdown(text string) error {
	source := []byte(text)

	t := tree.New(tree.WithKeyGenerator(s.keyGen))
	blocks, err := s.parser.Parse(t, source)
	if err != nil {
		return errors.Wrap(err, "failed to import markdown")
	}
	for _, b := range blocks {
		if err := t.AppendChild(t.Root(), b); err != nil {
			return errors.Wrap(err, "failed to import markdown")
		}
	}

	cursor, _ := markdown.ImportCursor(t)
	s.tree, s.cursor = t, cursor
	s.lineBreak = markdown.DetectLineBreak(source)

	s.logger.Debug("imported markdown", zap.Int("blocks", t.Len()))
	s.renderer.RequestFullRender()
	return nil
}

// ExportMarkdown serializes the document with the line breaks it was
// imported with.
func (s *Session) ExportMarkdown() string {
	text := s.serializer.SerializeDocument(s.tree)
	return string(markdown.RestoreLineBreaks([]byte(text), s.lineBreak))
}

// SetMarkdown replaces the document and places the cursor at the given
// position of the text, if any.
func (s *Session) SetMarkdown(text string, cursor *markdown.LineCursor) error {
	if cursor != nil {
		text = markdown.AddCursorMarker(string(markdown.NormalizeLineBreaks([]byte(text))), *cursor)
	}
	return s.ImportMarkdown(text)
}

// MarkdownCursor returns the cursor start as a line position in the
// exported text.
func (s *Session) MarkdownCursor() (markdown.LineCursor, bool) {
	return s.serializer.MarkdownCursor(s.tree, s.cursor)
}

// EditFunc mutates a scratch copy of the tree and returns the new cursor.
type EditFunc func(t *tree.Tree, c tree.Cursor) (tree.Cursor, error)

// Edit applies fn transactionally: on error the document is unchanged.
func (s *Session) Edit(fn EditFunc) error {
	return s.transact("edit", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		next, err := fn(t, c)
		return next, "", err
	})
}

type editFunc func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error)

func (s *Session) transact(op string, fn editFunc) error {
	if err := s.cursor.Validate(s.tree); err != nil {
		return errors.Wrapf(err, "%s", op)
	}

	scratch := s.tree.Clone()
	cursor, from, err := fn(scratch, s.cursor)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "%s", op)
	}
	if err := cursor.Validate(scratch); err != nil {
		return errors.Wrapf(err, "%s left an invalid cursor", op)
	}

	s.tree, s.cursor = scratch, cursor
	s.logger.Debug("applied edit", zap.String("op", op), zap.Any("cursor", cursor))
	s.renderer.RequestPartialRender(from)
	return nil
}

// moveCursor sets a cursor which is known to be valid.
func (s *Session) moveCursor(c tree.Cursor, from tree.Key) {
	s.cursor = c
	s.renderer.RequestPartialRender(from)
}

// topLevel returns the ancestor of b which is a child of the root.
func topLevel(t *tree.Tree, b *tree.Block) *tree.Block {
	for b != nil {
		parent := t.Parent(b)
		if parent == nil || t.IsRoot(parent) {
			return b
		}
		b = parent
	}
	return nil
}

// documentOrder returns the attached blocks in document order.
func documentOrder(t *tree.Tree) []*tree.Block {
	var order []*tree.Block
	t.Walk(t.Root(), func(b *tree.Block, _ int) bool {
		order = append(order, b)
		return true
	})
	return order
}

// ordered returns c with its ends swapped when the end precedes the start
// in the document.
func ordered(t *tree.Tree, c tree.Cursor) tree.Cursor {
	if c.SameBlock() {
		return c
	}
	for _, b := range documentOrder(t) {
		switch b.Key() {
		case c.Start.Key:
			return c
		case c.End.Key:
			return tree.Cursor{Start: c.End, End: c.Start}
		}
	}
	return c
}
