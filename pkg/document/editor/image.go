package editor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/ulid"
	"github.com/stateful/mdedit/pkg/document/tree"
)

// ImageInfo describes an image to insert.
type ImageInfo struct {
	Alt   string `json:"alt"`
	Src   string `json:"src"`
	Title string `json:"title"`
}

// ImageRef locates an image token by its character range in a block.
type ImageRef struct {
	Key   tree.Key `json:"key"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// ImageToken is an image found in the text of a block.
type ImageToken struct {
	ImageInfo
	Start, End int
}

var (
	imageRe     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]*)(?:\s+"([^"]*)")?\)`)
	imageStemRe = regexp.MustCompile(`(?:/|\\)?([^./\\]+)\.[a-z]+$`)
	urlRe       = regexp.MustCompile(`(?i)^http(s)?://([a-z0-9\-._~]+\.[a-z]{2,}|[0-9.]+|localhost|\[[a-f0-9.:]+\])(:[0-9]{1,5})?(/\S+)?`)
)

// Images returns the image tokens in text with character offsets.
func Images(text string) []ImageToken {
	var tokens []ImageToken
	for _, m := range imageRe.FindAllStringSubmatchIndex(text, -1) {
		token := ImageToken{
			ImageInfo: ImageInfo{
				Alt: text[m[2]:m[3]],
				Src: text[m[4]:m[5]],
			},
			Start: tree.Len(text[:m[0]]),
			End:   tree.Len(text[:m[1]]),
		}
		if m[6] >= 0 {
			token.Title = text[m[6]:m[7]]
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func (info ImageInfo) markdown() string {
	src := info.Src
	switch {
	case info.Title == "":
	case src == "":
		src = `"` + info.Title + `"`
	default:
		src += ` "` + info.Title + `"`
	}
	return "![" + info.Alt + "](" + src + ")"
}

// imageTarget reports whether images may be placed into b.
func imageTarget(b *tree.Block) bool {
	if b.Kind() != tree.KindSpan {
		return b.Editable()
	}
	switch b.Function {
	case tree.FunctionCodeLine, tree.FunctionLanguageInput, tree.FunctionThematicBreakLine:
		return false
	default:
		return true
	}
}

// InsertImage inserts an image at the cursor. An image which strictly
// contains the cursor is replaced. The cursor selects the alt text.
func (s *Session) InsertImage(info ImageInfo) error {
	if info.Alt == "" {
		if m := imageStemRe.FindStringSubmatch(info.Src); m != nil {
			info.Alt = m[1]
		}
	}
	if urlRe.MatchString(info.Src) {
		info.Src = encodeURI(info.Src)
	}

	return s.transact("insert image", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		c = ordered(t, c)
		block := t.Block(c.Start.Key)
		if !imageTarget(block) {
			return tree.Cursor{}, "", errors.Wrapf(ErrNotApplicable, "insert image into %s", block.Function)
		}
		from := topLevel(t, block).Key()
		so, eo := c.Start.Offset, c.End.Offset

		var inside []ImageToken
		for _, token := range Images(block.Text) {
			if token.Start < so && eo < token.End {
				inside = append(inside, token)
			}
		}

		switch {
		case len(inside) == 1 && c.SameBlock():
			existing := inside[0]
			alt := info.Alt
			if existing.Alt != "" && existing.Src == "" {
				alt = existing.Alt
			}
			image := ImageInfo{Alt: alt, Src: info.Src, Title: info.Title}
			block.Text = tree.Splice(block.Text, existing.Start, existing.End, image.markdown())
			return altSelection(block.Key(), existing.Start, alt), from, nil
		case !c.SameBlock():
			end := t.Block(c.End.Key)
			end.Text = tree.Splice(end.Text, eo, eo, info.markdown())
			return altSelection(end.Key(), eo, info.Alt), topLevel(t, end).Key(), nil
		default:
			image := info
			if so != eo {
				image.Alt = tree.Slice(block.Text, so, eo)
			}
			block.Text = tree.Splice(block.Text, so, eo, image.markdown())
			return altSelection(block.Key(), so, image.Alt), from, nil
		}
	})
}

func altSelection(key tree.Key, at int, alt string) tree.Cursor {
	return tree.Cursor{
		Start: tree.Position{Key: key, Offset: at + 2},
		End:   tree.Position{Key: key, Offset: at + 2 + tree.Len(alt)},
	}
}

// ReplaceImage rewrites the image at ref.
func (s *Session) ReplaceImage(ref ImageRef, info ImageInfo) error {
	return s.transact("replace image", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		block, err := imageBlock(t, ref)
		if err != nil {
			return tree.Cursor{}, "", err
		}
		text := info.markdown()
		block.Text = tree.Splice(block.Text, ref.Start, ref.End, text)
		if c.Validate(t) != nil {
			c = tree.Collapsed(block.Key(), ref.Start+tree.Len(text))
		}
		return c, topLevel(t, block).Key(), nil
	})
}

// DeleteImage removes the image at ref and collapses the cursor where it was.
func (s *Session) DeleteImage(ref ImageRef) error {
	return s.transact("delete image", func(t *tree.Tree, _ tree.Cursor) (tree.Cursor, tree.Key, error) {
		block, err := imageBlock(t, ref)
		if err != nil {
			return tree.Cursor{}, "", err
		}
		block.Text = tree.Splice(block.Text, ref.Start, ref.End, "")
		return tree.Collapsed(block.Key(), ref.Start), topLevel(t, block).Key(), nil
	})
}

func imageBlock(t *tree.Tree, ref ImageRef) (*tree.Block, error) {
	block := t.Block(ref.Key)
	if block == nil || !t.Contains(ref.Key) {
		return nil, errors.Wrapf(tree.ErrBlockNotFound, "key %q", ref.Key)
	}
	if !block.Editable() {
		return nil, errors.Wrapf(tree.ErrNotEditable, "key %q is %s", ref.Key, block.Kind())
	}
	if ref.Start < 0 || ref.Start > ref.End || ref.End > block.Len() {
		return nil, errors.Wrapf(tree.ErrOffsetOutOfRange, "image range [%d, %d]", ref.Start, ref.End)
	}
	return block, nil
}

// ReplaceImageAsync replaces the image at ref with a placeholder and
// resolves the source in the background. Once resolved, the placeholder
// is swapped for the final source. The unresolved source is kept when
// resolution fails.
func (s *Session) ReplaceImageAsync(ref ImageRef, info ImageInfo) error {
	if s.images == nil {
		return s.ReplaceImage(ref, info)
	}

	placeholder := ulid.GeneratePrefixedID("loading")
	pending := info
	pending.Src = placeholder
	if err := s.ReplaceImage(ref, pending); err != nil {
		return err
	}

	s.tasks.Go(func(ctx context.Context) (func(), error) {
		src, err := s.images.ResolveImage(ctx, info.Src)
		if err != nil {
			s.logger.Warn("failed to resolve image", zap.String("src", info.Src), zap.Error(err))
			err = errors.Wrapf(err, "resolve image %q", info.Src)
			src = info.Src
		}
		return func() { s.swapImageSource(ref.Key, placeholder, src) }, err
	})
	return nil
}

// swapImageSource replaces the placeholder source of an image. The cursor
// is shifted when it follows the image in the same block.
func (s *Session) swapImageSource(key tree.Key, placeholder, src string) {
	err := s.transact("swap image source", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		block := t.Block(key)
		if block == nil || !t.Contains(key) {
			return tree.Cursor{}, "", errNoChange
		}
		for _, token := range Images(block.Text) {
			if token.Src != placeholder {
				continue
			}
			image := token.ImageInfo
			image.Src = src
			text := image.markdown()
			block.Text = tree.Splice(block.Text, token.Start, token.End, text)

			delta := tree.Len(text) - (token.End - token.Start)
			c.Start = shiftPosition(c.Start, key, token.Start, delta)
			c.End = shiftPosition(c.End, key, token.Start, delta)
			return c, topLevel(t, block).Key(), nil
		}
		return tree.Cursor{}, "", errNoChange
	})
	if err != nil {
		s.logger.Warn("failed to swap image source", zap.String("key", string(key)), zap.Error(err))
		return
	}
	s.renderer.RequestFullRender()
}

func shiftPosition(p tree.Position, key tree.Key, after, delta int) tree.Position {
	if p.Key == key && p.Offset > after {
		p.Offset += delta
		if p.Offset < after {
			p.Offset = after
		}
	}
	return p
}

// CompleteImagePath returns path candidates for partial. Failures are
// logged and yield no candidates.
func (s *Session) CompleteImagePath(ctx context.Context, partial string) []string {
	if s.paths == nil {
		return nil
	}
	candidates, err := s.paths.CompletePath(ctx, partial)
	if err != nil {
		s.logger.Warn("failed to complete image path", zap.String("partial", partial), zap.Error(err))
		return nil
	}
	return candidates
}

// uriReserved are the characters encodeURI leaves untouched besides
// ASCII letters and digits.
const uriReserved = ";,/?:@&=+$-_.!~*'()#"

// encodeURI percent-encodes src the way browsers encode a full URI.
func encodeURI(src string) string {
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte(uriReserved, c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
