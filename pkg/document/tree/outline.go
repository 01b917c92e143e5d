package tree

// Outline is a key-free snapshot of a subtree, used to compare document
// structure and to dump it as JSON.
type Outline struct {
	Kind     string     `json:"kind"`
	Attrs    Attrs      `json:"attrs"`
	Children []*Outline `json:"children,omitempty"`
}

// Outline builds the snapshot of b.
func (t *Tree) Outline(b *Block) *Outline {
	if b == nil {
		return nil
	}
	o := &Outline{Kind: b.kind.String(), Attrs: b.Attrs}
	for _, c := range t.Children(b) {
		o.Children = append(o.Children, t.Outline(c))
	}
	return o
}

// Outlines builds snapshots of several blocks.
func (t *Tree) Outlines(blocks []*Block) []*Outline {
	result := make([]*Outline, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, t.Outline(b))
	}
	return result
}
