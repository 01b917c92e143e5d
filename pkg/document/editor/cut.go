package editor

import (
	"github.com/stateful/mdedit/pkg/document/tree"
)

// CutHandler deletes the selection. The text before the selection start
// and after its end are joined in the start block.
func (s *Session) CutHandler() error {
	return s.transact("cut", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		c = cut(t, ordered(t, c))
		return c, topLevel(t, t.Block(c.Start.Key)).Key(), nil
	})
}

func cut(t *tree.Tree, c tree.Cursor) tree.Cursor {
	start := t.Block(c.Start.Key)
	end := t.Block(c.End.Key)

	start.Text = tree.Head(start.Text, c.Start.Offset) + tree.Tail(end.Text, c.End.Offset)
	if start.Key() != end.Key() {
		removeBlocks(t, start, end)
	}
	return tree.Collapsed(start.Key(), c.Start.Offset)
}

// removeBlocks removes everything after start up to and including end.
// Containers left empty are removed as well. Tables holding start or end
// keep their structure.
func removeBlocks(t *tree.Tree, start, end *tree.Block) {
	var exempt []*tree.Block
	for _, b := range []*tree.Block{start, end} {
		if table := t.Closest(b, tree.KindTable); table != nil {
			exempt = append(exempt, table)
		}
	}
	isExempt := func(b *tree.Block) bool {
		for _, table := range exempt {
			if b.Key() == table.Key() || t.IsDescendant(table, b) {
				return true
			}
		}
		return false
	}

	order := documentOrder(t)
	from, to := -1, -1
	for i, b := range order {
		switch b.Key() {
		case start.Key():
			from = i
		case end.Key():
			to = i
		}
	}
	if from < 0 || to <= from {
		return
	}

	var parents []*tree.Block
	for _, b := range order[from+1 : to+1] {
		if t.Block(b.Key()) != b || !t.Contains(b.Key()) {
			// Removed with an ancestor.
			continue
		}
		if t.IsDescendant(b, end) || isExempt(b) {
			continue
		}
		parents = append(parents, t.Parent(b))
		t.RemoveBlock(b)
	}

	for _, p := range parents {
		for p != nil && t.Block(p.Key()) == p && !t.IsRoot(p) && t.ChildCount(p) == 0 && !isExempt(p) {
			next := t.Parent(p)
			t.RemoveBlock(p)
			p = next
		}
	}
}
