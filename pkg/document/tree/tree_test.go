package tree

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialKeys() KeyGenerator {
	n := 0
	return func() Key {
		n++
		return Key("b" + strconv.Itoa(n))
	}
}

func newParagraph(t *testing.T, tr *Tree, text string) (*Block, *Block) {
	t.Helper()
	p := tr.CreateBlock(KindParagraph, Attrs{})
	span := tr.CreateBlock(KindSpan, Attrs{Text: text})
	require.NoError(t, tr.AppendChild(p, span))
	return p, span
}

func TestTree_CreateBlock(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))

	b := tr.CreateBlock(KindSpan, Attrs{Text: "hello"})
	assert.Equal(t, Key("b2"), b.Key())
	assert.Equal(t, KindSpan, b.Kind())
	assert.Same(t, b, tr.Block(b.Key()))
	assert.False(t, tr.Contains(b.Key()))
	assert.True(t, tr.Contains(tr.Root().Key()))
	assert.Equal(t, 2, tr.Len())
}

func TestTree_InsertAndSiblings(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	root := tr.Root()

	a, _ := newParagraph(t, tr, "a")
	c, _ := newParagraph(t, tr, "c")
	b, _ := newParagraph(t, tr, "b")

	require.NoError(t, tr.AppendChild(root, a))
	require.NoError(t, tr.AppendChild(root, c))
	require.NoError(t, tr.InsertBefore(b, c))

	assert.Equal(t, []*Block{a, b, c}, tr.Children(root))
	assert.Same(t, b, tr.NextSibling(a))
	assert.Same(t, a, tr.PrevSibling(b))
	assert.Nil(t, tr.PrevSibling(a))
	assert.Nil(t, tr.NextSibling(c))
	assert.Equal(t, []*Block{b, c}, tr.NextSiblings(a))
	assert.True(t, tr.IsFirstChild(a))
	assert.False(t, tr.IsOnlyChild(a))

	d, _ := newParagraph(t, tr, "d")
	require.NoError(t, tr.InsertAfter(d, c))
	assert.Same(t, d, tr.LastChild(root))
}

func TestTree_AppendChildMoves(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	root := tr.Root()

	p1, span := newParagraph(t, tr, "x")
	p2 := tr.CreateBlock(KindParagraph, Attrs{})
	require.NoError(t, tr.AppendChild(root, p1))
	require.NoError(t, tr.AppendChild(root, p2))

	require.NoError(t, tr.AppendChild(p2, span))
	assert.Equal(t, 0, tr.ChildCount(p1))
	assert.Same(t, p2, tr.Parent(span))
	assert.True(t, tr.IsOnlyChild(span))
}

func TestTree_Cycle(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	quote := tr.CreateBlock(KindBlockquote, Attrs{})
	p, _ := newParagraph(t, tr, "x")
	require.NoError(t, tr.AppendChild(quote, p))

	err := tr.AppendChild(p, quote)
	require.ErrorIs(t, err, ErrCycle)

	err = tr.AppendChild(p, tr.Root())
	require.ErrorIs(t, err, ErrRootBlock)
}

func TestTree_RemoveAndDetach(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	root := tr.Root()
	p, span := newParagraph(t, tr, "x")
	require.NoError(t, tr.AppendChild(root, p))

	tr.Detach(span)
	assert.NotNil(t, tr.Block(span.Key()))
	assert.False(t, tr.Contains(span.Key()))
	assert.Equal(t, 0, tr.ChildCount(p))

	require.NoError(t, tr.AppendChild(p, span))
	tr.RemoveBlock(p)
	assert.Nil(t, tr.Block(p.Key()))
	assert.Nil(t, tr.Block(span.Key()))
	assert.Equal(t, 0, tr.ChildCount(root))
}

func TestTree_Clone(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	p, span := newParagraph(t, tr, "x")
	require.NoError(t, tr.AppendChild(tr.Root(), p))

	c := tr.Clone()
	c.Block(span.Key()).Text = "changed"
	c.RemoveBlock(c.Block(p.Key()))

	assert.Equal(t, "x", span.Text)
	assert.True(t, tr.Contains(span.Key()))
	assert.Equal(t, tr.Outline(tr.Root()).Kind, c.Outline(c.Root()).Kind)
}

func TestTree_Leaves(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	root := tr.Root()
	p1, s1 := newParagraph(t, tr, "first")
	p2, s2 := newParagraph(t, tr, "second")
	require.NoError(t, tr.AppendChild(root, p1))
	require.NoError(t, tr.AppendChild(root, p2))

	assert.Same(t, s1, tr.FirstLeaf(root))
	assert.Same(t, s2, tr.LastLeaf(root))
	assert.Same(t, s2, tr.LastEditable())
	assert.Equal(t, []*Block{s1, s2}, tr.EditableBlocks(root))
	assert.Same(t, p2, tr.Closest(s2, KindParagraph))
	assert.True(t, tr.IsDescendant(root, s1))
}

func TestCursor_Validate(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	p, span := newParagraph(t, tr, "héllo")
	require.NoError(t, tr.AppendChild(tr.Root(), p))

	require.NoError(t, Collapsed(span.Key(), 5).Validate(tr))
	require.ErrorIs(t, Collapsed(span.Key(), 6).Validate(tr), ErrOffsetOutOfRange)
	require.ErrorIs(t, Collapsed(p.Key(), 0).Validate(tr), ErrNotEditable)
	require.ErrorIs(t, Collapsed("missing", 0).Validate(tr), ErrBlockNotFound)

	backwards := Cursor{Start: Position{span.Key(), 3}, End: Position{span.Key(), 1}}
	require.ErrorIs(t, backwards.Validate(tr), ErrOffsetOutOfRange)
}

func TestText(t *testing.T) {
	assert.Equal(t, 5, Len("héllo"))
	assert.Equal(t, "él", Slice("héllo", 1, 3))
	assert.Equal(t, "hé", Head("héllo", 2))
	assert.Equal(t, "llo", Tail("héllo", 2))
	assert.Equal(t, "hXlo", Splice("héllo", 1, 3, "X"))
	assert.Equal(t, "", Slice("abc", 5, 9))
}

func TestSameType(t *testing.T) {
	tr := New(WithKeyGenerator(sequentialKeys()))
	h1 := tr.CreateBlock(KindHeading, Attrs{Level: 1})
	h2 := tr.CreateBlock(KindHeading, Attrs{Level: 2})
	ul := tr.CreateBlock(KindList, Attrs{})
	ol := tr.CreateBlock(KindList, Attrs{Ordered: true})

	assert.False(t, SameType(h1, h2))
	assert.True(t, SameType(h1, tr.CreateBlock(KindHeading, Attrs{Level: 1})))
	assert.False(t, SameType(ul, ol))
	assert.False(t, SameType(ul, nil))
}
