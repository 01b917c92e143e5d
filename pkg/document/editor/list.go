package editor

import (
	"github.com/pkg/errors"

	"github.com/stateful/mdedit/pkg/document/tree"
)

type unindentType int

const (
	unindentNone unindentType = iota
	// unindentReplacement lifts the paragraph into the enclosing item.
	unindentReplacement
	// unindentIndent moves the item after the enclosing item.
	unindentIndent
)

// listContext is the chain of blocks around a span in a list item.
type listContext struct {
	span, paragraph, item, list *tree.Block
}

func listContextOf(t *tree.Tree, c tree.Cursor) (listContext, bool) {
	if !c.IsCollapsed() || c.Start.Offset != 0 {
		return listContext{}, false
	}
	lc := listContext{span: t.Block(c.Start.Key)}
	if lc.span == nil || lc.span.Kind() != tree.KindSpan {
		return listContext{}, false
	}
	lc.paragraph = t.Parent(lc.span)
	if lc.paragraph == nil || lc.paragraph.Kind() != tree.KindParagraph {
		return listContext{}, false
	}
	lc.item = t.Parent(lc.paragraph)
	if lc.item == nil || lc.item.Kind() != tree.KindListItem {
		return listContext{}, false
	}
	lc.list = t.Parent(lc.item)
	if lc.list == nil || !lc.list.IsList() {
		return listContext{}, false
	}
	return lc, true
}

func unindentTypeOf(t *tree.Tree, c tree.Cursor) (listContext, unindentType) {
	lc, ok := listContextOf(t, c)
	if !ok {
		return lc, unindentNone
	}
	outer := t.Parent(lc.list)
	if outer == nil || outer.Kind() != tree.KindListItem {
		return lc, unindentNone
	}
	if t.PrevSibling(lc.list) == nil {
		return lc, unindentReplacement
	}
	return lc, unindentIndent
}

func indentable(t *tree.Tree, c tree.Cursor) (listContext, bool) {
	lc, ok := listContextOf(t, c)
	if !ok || t.PrevSibling(lc.item) == nil {
		return lc, false
	}
	return lc, true
}

// IndentListItem moves the list item of the cursor into a sub-list of its
// preceding sibling.
func (s *Session) IndentListItem() error {
	return s.transact("indent list item", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		lc, ok := indentable(t, c)
		if !ok {
			return tree.Cursor{}, "", ErrNotApplicable
		}
		if err := indentListItem(t, lc); err != nil {
			return tree.Cursor{}, "", err
		}
		return c, topLevel(t, lc.list).Key(), nil
	})
}

func indentListItem(t *tree.Tree, lc listContext) error {
	prev := t.PrevSibling(lc.item)
	t.Detach(lc.item)

	sub := t.LastChild(prev)
	if sub == nil || !sub.IsList() {
		sub = t.CreateBlock(tree.KindList, listAttrs(lc.list))
		if err := t.AppendChild(prev, sub); err != nil {
			return err
		}
	}
	if first := t.FirstChild(sub); first != nil {
		lc.item.Loose = first.Loose
	}
	return t.AppendChild(sub, lc.item)
}

// UnindentListItem moves the nested list item of the cursor one level up.
func (s *Session) UnindentListItem() error {
	return s.transact("unindent list item", func(t *tree.Tree, c tree.Cursor) (tree.Cursor, tree.Key, error) {
		lc, typ := unindentTypeOf(t, c)
		if typ == unindentNone {
			return tree.Cursor{}, "", ErrNotApplicable
		}
		if err := unindentListItem(t, lc, typ); err != nil {
			return tree.Cursor{}, "", err
		}
		return c, topLevel(t, lc.span).Key(), nil
	})
}

func unindentListItem(t *tree.Tree, lc listContext, typ unindentType) error {
	outer := t.Parent(lc.list)

	switch typ {
	case unindentReplacement:
		if err := t.InsertBefore(lc.paragraph, lc.list); err != nil {
			return err
		}
		ref := lc.paragraph
		for _, child := range t.Children(lc.item) {
			if child.Kind() == tree.KindTaskCheckbox {
				continue
			}
			if err := t.InsertAfter(child, ref); err != nil {
				return err
			}
			ref = child
		}
		if t.IsOnlyChild(lc.item) {
			t.RemoveBlock(lc.list)
		} else {
			t.RemoveBlock(lc.item)
		}
		return nil
	case unindentIndent:
		following := t.NextSiblings(lc.list)

		if t.ChildCount(lc.list) == 1 {
			t.Detach(lc.item)
			t.RemoveBlock(lc.list)
		} else {
			if rest := t.NextSiblings(lc.item); len(rest) > 0 {
				sub := t.CreateBlock(tree.KindList, listAttrs(lc.list))
				for _, b := range rest {
					if err := t.AppendChild(sub, b); err != nil {
						return err
					}
				}
				if err := t.AppendChild(lc.item, sub); err != nil {
					return err
				}
			}
			t.Detach(lc.item)
			if t.ChildCount(lc.list) == 0 {
				t.RemoveBlock(lc.list)
			}
		}

		if err := t.InsertAfter(lc.item, outer); err != nil {
			return err
		}
		for _, b := range following {
			if err := t.AppendChild(lc.item, b); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.WithStack(ErrNotApplicable)
	}
}

func listAttrs(list *tree.Block) tree.Attrs {
	return tree.Attrs{
		Ordered:  list.Ordered,
		ListType: list.ListType,
		Start:    1,
	}
}
