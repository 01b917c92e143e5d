package tree

import (
	"github.com/pkg/errors"
)

var (
	ErrOffsetOutOfRange = errors.New("cursor offset out of range")
	ErrNotEditable      = errors.New("cursor block is not editable")
)

// Position is a character offset within the text of an editable block.
type Position struct {
	Key    Key `json:"key"`
	Offset int `json:"offset"`
}

// Cursor is a selection between two positions. Start precedes End in
// document order.
type Cursor struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func Collapsed(key Key, offset int) Cursor {
	p := Position{Key: key, Offset: offset}
	return Cursor{Start: p, End: p}
}

func (c Cursor) IsCollapsed() bool {
	return c.Start == c.End
}

func (c Cursor) IsZero() bool {
	return c == Cursor{}
}

// SameBlock reports whether both ends lie in one block.
func (c Cursor) SameBlock() bool {
	return c.Start.Key == c.End.Key
}

// Validate checks that both ends reference attached editable blocks with
// offsets inside their text.
func (c Cursor) Validate(t *Tree) error {
	if err := c.Start.validate(t); err != nil {
		return errors.Wrap(err, "cursor start")
	}
	if err := c.End.validate(t); err != nil {
		return errors.Wrap(err, "cursor end")
	}
	if c.SameBlock() && c.Start.Offset > c.End.Offset {
		return errors.Wrap(ErrOffsetOutOfRange, "start after end")
	}
	return nil
}

func (p Position) validate(t *Tree) error {
	b := t.Block(p.Key)
	if b == nil || !t.Contains(p.Key) {
		return errors.Wrapf(ErrBlockNotFound, "key %q", p.Key)
	}
	if !b.Editable() {
		return errors.Wrapf(ErrNotEditable, "key %q is %s", p.Key, b.Kind())
	}
	if p.Offset < 0 || p.Offset > b.Len() {
		return errors.Wrapf(ErrOffsetOutOfRange, "offset %d not in [0, %d]", p.Offset, b.Len())
	}
	return nil
}
