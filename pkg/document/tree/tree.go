package tree

import (
	"github.com/pkg/errors"

	"github.com/stateful/mdedit/internal/ulid"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrCycle         = errors.New("block cannot become its own descendant")
	ErrRootBlock     = errors.New("operation not allowed on the root block")
)

// KeyGenerator produces fresh block keys.
type KeyGenerator func() Key

func DefaultKeyGenerator() Key {
	return Key(ulid.GenerateID())
}

// Tree is an arena of blocks addressed by key. Blocks which are not
// reachable from the root are detached; they stay in the arena until
// removed and are used for parsed fragments before they are spliced in.
type Tree struct {
	blocks map[Key]*Block
	root   Key
	newKey KeyGenerator
}

type Option func(*Tree)

func WithKeyGenerator(gen KeyGenerator) Option {
	return func(t *Tree) {
		t.newKey = gen
	}
}

func New(opts ...Option) *Tree {
	t := &Tree{
		blocks: make(map[Key]*Block),
		newKey: DefaultKeyGenerator,
	}
	for _, opt := range opts {
		opt(t)
	}
	root := t.CreateBlock(KindRoot, Attrs{})
	t.root = root.key
	return t
}

func (t *Tree) Root() *Block {
	return t.blocks[t.root]
}

// Len returns the number of blocks in the arena, detached ones included.
func (t *Tree) Len() int {
	return len(t.blocks)
}

// CreateBlock allocates a detached block with a fresh key.
func (t *Tree) CreateBlock(kind Kind, attrs Attrs) *Block {
	key := t.newKey()
	for _, ok := t.blocks[key]; ok || key == ""; _, ok = t.blocks[key] {
		key = t.newKey()
	}
	b := &Block{Attrs: attrs, key: key, kind: kind}
	t.blocks[key] = b
	return b
}

// Block returns the block with the given key or nil.
func (t *Tree) Block(key Key) *Block {
	return t.blocks[key]
}

// Contains reports whether the block is attached to the root.
func (t *Tree) Contains(key Key) bool {
	for b := t.blocks[key]; b != nil; b = t.blocks[b.parent] {
		if b.key == t.root {
			return true
		}
	}
	return false
}

func (t *Tree) IsRoot(b *Block) bool {
	return b != nil && b.key == t.root
}

// Parent returns the parent of b, which is the root block for top-level
// blocks, or nil for detached blocks and the root itself.
func (t *Tree) Parent(b *Block) *Block {
	if b == nil {
		return nil
	}
	return t.blocks[b.parent]
}

func (t *Tree) Children(b *Block) []*Block {
	if b == nil {
		return nil
	}
	result := make([]*Block, 0, len(b.children))
	for _, key := range b.children {
		result = append(result, t.blocks[key])
	}
	return result
}

func (t *Tree) ChildCount(b *Block) int {
	if b == nil {
		return 0
	}
	return len(b.children)
}

func (t *Tree) FirstChild(b *Block) *Block {
	if b == nil || len(b.children) == 0 {
		return nil
	}
	return t.blocks[b.children[0]]
}

func (t *Tree) LastChild(b *Block) *Block {
	if b == nil || len(b.children) == 0 {
		return nil
	}
	return t.blocks[b.children[len(b.children)-1]]
}

func (t *Tree) PrevSibling(b *Block) *Block {
	parent := t.Parent(b)
	if parent == nil {
		return nil
	}
	if i := indexOf(parent.children, b.key); i > 0 {
		return t.blocks[parent.children[i-1]]
	}
	return nil
}

func (t *Tree) NextSibling(b *Block) *Block {
	parent := t.Parent(b)
	if parent == nil {
		return nil
	}
	if i := indexOf(parent.children, b.key); i >= 0 && i+1 < len(parent.children) {
		return t.blocks[parent.children[i+1]]
	}
	return nil
}

// NextSiblings returns all siblings following b in order.
func (t *Tree) NextSiblings(b *Block) []*Block {
	var result []*Block
	for s := t.NextSibling(b); s != nil; s = t.NextSibling(s) {
		result = append(result, s)
	}
	return result
}

func (t *Tree) IsOnlyChild(b *Block) bool {
	parent := t.Parent(b)
	return parent != nil && len(parent.children) == 1
}

func (t *Tree) IsFirstChild(b *Block) bool {
	parent := t.Parent(b)
	return parent != nil && len(parent.children) > 0 && parent.children[0] == b.key
}

// IsDescendant reports whether b lies strictly inside ancestor.
func (t *Tree) IsDescendant(ancestor, b *Block) bool {
	if ancestor == nil || b == nil {
		return false
	}
	for p := t.Parent(b); p != nil; p = t.Parent(p) {
		if p.key == ancestor.key {
			return true
		}
	}
	return false
}

// Closest returns the nearest ancestor of b, b included, matching kind.
func (t *Tree) Closest(b *Block, kind Kind) *Block {
	for ; b != nil; b = t.Parent(b) {
		if b.kind == kind {
			return b
		}
	}
	return nil
}

// AppendChild moves child to the end of parent's children.
func (t *Tree) AppendChild(parent, child *Block) error {
	if err := t.checkMove(parent, child); err != nil {
		return err
	}
	t.unlink(child)
	parent.children = append(parent.children, child.key)
	child.parent = parent.key
	return nil
}

// InsertBefore moves b right before ref.
func (t *Tree) InsertBefore(b, ref *Block) error {
	return t.insertAt(b, ref, 0)
}

// InsertAfter moves b right after ref.
func (t *Tree) InsertAfter(b, ref *Block) error {
	return t.insertAt(b, ref, 1)
}

func (t *Tree) insertAt(b, ref *Block, shift int) error {
	parent := t.Parent(ref)
	if parent == nil {
		if ref != nil && ref.key == t.root {
			return errors.WithStack(ErrRootBlock)
		}
		return errors.Wrap(ErrBlockNotFound, "reference block has no parent")
	}
	if b != nil && b.key == ref.key {
		return nil
	}
	if err := t.checkMove(parent, b); err != nil {
		return err
	}
	t.unlink(b)
	i := indexOf(parent.children, ref.key) + shift
	parent.children = append(parent.children, "")
	copy(parent.children[i+1:], parent.children[i:])
	parent.children[i] = b.key
	b.parent = parent.key
	return nil
}

func (t *Tree) checkMove(parent, child *Block) error {
	if parent == nil || t.blocks[parent.key] != parent {
		return errors.Wrap(ErrBlockNotFound, "parent")
	}
	if child == nil || t.blocks[child.key] != child {
		return errors.Wrap(ErrBlockNotFound, "child")
	}
	if child.key == t.root {
		return errors.WithStack(ErrRootBlock)
	}
	if child.key == parent.key || t.IsDescendant(child, parent) {
		return errors.WithStack(ErrCycle)
	}
	return nil
}

// Detach unlinks b from its parent. The block and its subtree stay in
// the arena and can be inserted again.
func (t *Tree) Detach(b *Block) {
	if b == nil || b.key == t.root {
		return
	}
	t.unlink(b)
}

// RemoveBlock unlinks b and deletes it with its whole subtree.
// The parent is kept even if it becomes empty.
func (t *Tree) RemoveBlock(b *Block) {
	if b == nil || b.key == t.root || t.blocks[b.key] != b {
		return
	}
	t.unlink(b)
	t.drop(b)
}

func (t *Tree) drop(b *Block) {
	for _, key := range b.children {
		if c := t.blocks[key]; c != nil {
			t.drop(c)
		}
	}
	delete(t.blocks, b.key)
}

func (t *Tree) unlink(b *Block) {
	parent := t.blocks[b.parent]
	b.parent = ""
	if parent == nil {
		return
	}
	if i := indexOf(parent.children, b.key); i >= 0 {
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
	}
}

// WalkFunc is called for every visited block. Returning false skips the
// block's children.
type WalkFunc func(b *Block, depth int) bool

// Walk visits b and its descendants in document order.
func (t *Tree) Walk(b *Block, fn WalkFunc) {
	t.walk(b, 0, fn)
}

func (t *Tree) walk(b *Block, depth int, fn WalkFunc) {
	if b == nil || !fn(b, depth) {
		return
	}
	for _, key := range b.children {
		t.walk(t.blocks[key], depth+1, fn)
	}
}

// LastLeaf returns the deepest last descendant of b, b itself when it has
// no children.
func (t *Tree) LastLeaf(b *Block) *Block {
	for b != nil && len(b.children) > 0 {
		b = t.blocks[b.children[len(b.children)-1]]
	}
	return b
}

// FirstLeaf returns the deepest first descendant of b.
func (t *Tree) FirstLeaf(b *Block) *Block {
	for b != nil && len(b.children) > 0 {
		b = t.blocks[b.children[0]]
	}
	return b
}

// EditableBlocks returns the editable descendants of b in document order.
func (t *Tree) EditableBlocks(b *Block) []*Block {
	var result []*Block
	t.Walk(b, func(n *Block, _ int) bool {
		if n.Editable() {
			result = append(result, n)
		}
		return true
	})
	return result
}

// LastEditable returns the last editable block of the document.
func (t *Tree) LastEditable() *Block {
	blocks := t.EditableBlocks(t.Root())
	if len(blocks) == 0 {
		return nil
	}
	return blocks[len(blocks)-1]
}

// Clone returns a deep copy of the arena sharing the key generator.
// Keys are preserved.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		blocks: make(map[Key]*Block, len(t.blocks)),
		root:   t.root,
		newKey: t.newKey,
	}
	for key, b := range t.blocks {
		c.blocks[key] = b.clone()
	}
	return c
}

func indexOf(keys []Key, key Key) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
