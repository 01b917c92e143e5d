package editor

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/mdedit/pkg/document/tree"
)

func TestInsertImage(t *testing.T) {
	s := newSession(t, "")

	require.NoError(t, s.InsertImage(ImageInfo{Src: "pic.png"}))
	span := cursorBlock(s)
	assert.Equal(t, "![pic](pic.png)", span.Text)
	assert.Equal(t, "pic", selection(s))
	assert.Equal(t, tree.Cursor{
		Start: tree.Position{Key: span.Key(), Offset: 2},
		End:   tree.Position{Key: span.Key(), Offset: 5},
	}, s.Cursor())
}

func TestInsertImage_Variants(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		info     ImageInfo
		expected string
		selected string
	}{
		{
			name:     "title",
			source:   "a" + mark + "b",
			info:     ImageInfo{Src: "img/cat.jpg", Title: "Cat"},
			expected: `a![cat](img/cat.jpg "Cat")b`,
			selected: "cat",
		},
		{
			name:     "alt",
			source:   "x" + mark,
			info:     ImageInfo{Alt: "logo", Src: "c:\\images\\logo.svg"},
			expected: "x![logo](c:\\images\\logo.svg)",
			selected: "logo",
		},
		{
			name:     "url is encoded",
			source:   "",
			info:     ImageInfo{Src: "https://example.com/a b.png"},
			expected: "![a b](https://example.com/a%20b.png)",
			selected: "a b",
		},
		{
			name:     "replace existing",
			source:   "see ![o" + mark + "ld](a.png) here",
			info:     ImageInfo{Src: "b.png"},
			expected: "see ![b](b.png) here",
			selected: "b",
		},
		{
			name:     "keep alt of empty image",
			source:   "![ca" + mark + "ption]()",
			info:     ImageInfo{Src: "b.png"},
			expected: "![caption](b.png)",
			selected: "caption",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t, tc.source)

			require.NoError(t, s.InsertImage(tc.info))
			assert.Equal(t, tc.expected, cursorBlock(s).Text)
			assert.Equal(t, tc.selected, selection(s))
		})
	}
}

func TestImageInfoMarkdown(t *testing.T) {
	testCases := []struct {
		info     ImageInfo
		expected string
	}{
		{ImageInfo{Alt: "a", Src: "b.png"}, "![a](b.png)"},
		{ImageInfo{Alt: "a", Src: "b.png", Title: "T"}, `![a](b.png "T")`},
		{ImageInfo{Alt: "a", Title: "T"}, `![a]("T")`},
		{ImageInfo{Alt: "a"}, "![a]()"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.info.markdown())
	}
}

func TestInsertImage_SelectionBecomesAlt(t *testing.T) {
	s := newSession(t, "a photo here")
	selectRange(t, s, "a photo here", 2, "a photo here", 7)

	require.NoError(t, s.InsertImage(ImageInfo{Src: "p.png"}))
	assert.Equal(t, "a ![photo](p.png) here", cursorBlock(s).Text)
	assert.Equal(t, "photo", selection(s))
}

func TestInsertImage_AcrossBlocks(t *testing.T) {
	s := newSession(t, "one\n\ntwo")
	selectRange(t, s, "one", 1, "two", 2)

	require.NoError(t, s.InsertImage(ImageInfo{Src: "p.png"}))
	assert.Equal(t, "tw![p](p.png)o", cursorBlock(s).Text)
	assert.Equal(t, "one", findBlock(t, s, "one").Text)
}

func TestInsertImage_NotApplicable(t *testing.T) {
	testCases := []struct {
		name   string
		source string
	}{
		{"code line", "```go\nx" + mark + "\n```"},
		{"thematic break", "---"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t, tc.source)
			before := s.Tree()

			assert.ErrorIs(t, s.InsertImage(ImageInfo{Src: "p.png"}), ErrNotApplicable)
			assert.Same(t, before, s.Tree())
		})
	}
}

func imageRef(t *testing.T, s *Session, text string) ImageRef {
	t.Helper()
	b := findBlock(t, s, text)
	images := Images(b.Text)
	require.Len(t, images, 1)
	return ImageRef{Key: b.Key(), Start: images[0].Start, End: images[0].End}
}

func TestImages(t *testing.T) {
	images := Images(`é ![a](x.png "T") and ![](y.gif)`)
	require.Len(t, images, 2)

	assert.Equal(t, ImageToken{ImageInfo: ImageInfo{Alt: "a", Src: "x.png", Title: "T"}, Start: 2, End: 17}, images[0])
	assert.Equal(t, ImageToken{ImageInfo: ImageInfo{Src: "y.gif"}, Start: 22, End: 32}, images[1])
}

func TestReplaceImage(t *testing.T) {
	s := newSession(t, "x![a](b.png)y")
	ref := imageRef(t, s, "x![a](b.png)y")

	require.NoError(t, s.ReplaceImage(ref, ImageInfo{Alt: "new", Src: "c.png", Title: "c"}))
	assert.Equal(t, `x![new](c.png "c")y`, findBlock(t, s, `x![new](c.png "c")y`).Text)
	require.NoError(t, s.Cursor().Validate(s.Tree()))
}

func TestReplaceImage_InvalidRef(t *testing.T) {
	s := newSession(t, "x![a](b.png)y")
	ref := imageRef(t, s, "x![a](b.png)y")

	err := s.ReplaceImage(ImageRef{Key: ref.Key, Start: 3, End: 40}, ImageInfo{Src: "c.png"})
	assert.ErrorIs(t, err, tree.ErrOffsetOutOfRange)

	err = s.DeleteImage(ImageRef{Key: "missing"})
	assert.ErrorIs(t, err, tree.ErrBlockNotFound)
}

func TestDeleteImage(t *testing.T) {
	s := newSession(t, "x![a](b.png)y")
	ref := imageRef(t, s, "x![a](b.png)y")

	require.NoError(t, s.DeleteImage(ref))
	assert.Equal(t, "xy", cursorBlock(s).Text)
	assert.Equal(t, tree.Collapsed(ref.Key, 1), s.Cursor())
}

func TestReplaceImageAsync(t *testing.T) {
	renderer := &fakeRenderer{}
	s := newSession(t, "x![a](local.png)y", WithRenderer(renderer),
		WithImageResolver(fakeResolver{src: "https://cdn.example.com/a.png"}))
	ref := imageRef(t, s, "x![a](local.png)y")

	require.NoError(t, s.ReplaceImageAsync(ref, ImageInfo{Alt: "a", Src: "local.png"}))
	pending := cursorBlock(s).Text
	assert.True(t, strings.HasPrefix(pending, "x![a](loading-"), pending)

	require.NoError(t, s.Wait())
	assert.Equal(t, "x![a](https://cdn.example.com/a.png)y", cursorBlock(s).Text)
	assert.Equal(t, 3, renderer.full)
	require.NoError(t, s.Cursor().Validate(s.Tree()))
}

func TestReplaceImageAsync_Failure(t *testing.T) {
	s := newSession(t, "x![a](local.png)y", WithImageResolver(fakeResolver{err: errors.New("offline")}))
	ref := imageRef(t, s, "x![a](local.png)y")

	require.NoError(t, s.ReplaceImageAsync(ref, ImageInfo{Alt: "a", Src: "local.png"}))

	err := s.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Equal(t, "x![a](local.png)y", cursorBlock(s).Text)
}

func TestReplaceImageAsync_WithoutResolver(t *testing.T) {
	s := newSession(t, "![a](local.png)")
	ref := imageRef(t, s, "![a](local.png)")

	require.NoError(t, s.ReplaceImageAsync(ref, ImageInfo{Alt: "b", Src: "other.png"}))
	assert.Equal(t, "![b](other.png)", cursorBlock(s).Text)
}

func TestCompleteImagePath(t *testing.T) {
	s := newSession(t, "", WithPathCompleter(fakeCompleter{candidates: []string{"img/a.png", "img/b.png"}}))
	assert.Equal(t, []string{"img/a.png", "img/b.png"}, s.CompleteImagePath(context.Background(), "img/"))

	s = newSession(t, "", WithPathCompleter(fakeCompleter{err: errors.New("denied")}))
	assert.Nil(t, s.CompleteImagePath(context.Background(), "img/"))

	s = newSession(t, "")
	assert.Nil(t, s.CompleteImagePath(context.Background(), "img/"))
}

func TestEncodeURI(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"https://example.com/a b.png", "https://example.com/a%20b.png"},
		{"https://example.com/é.png", "https://example.com/%C3%A9.png"},
		{"https://example.com/?q=1&r=(2)#top", "https://example.com/?q=1&r=(2)#top"},
		{"https://example.com/100%", "https://example.com/100%25"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, encodeURI(tc.input))
	}
}
