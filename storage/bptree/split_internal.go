package bptree

import "pagedb/storage/page"

// splitInternal splits an overflowing internal node: the key at the
// midpoint is promoted (not retained on either side); the left node keeps
// everything before it, the right node receives everything after, per
// spec.md §4.6 "Internal split".
func (t *Tree) splitInternal(pg *page.Page, node *Node, path []page.ID) error {
	mid := len(node.Keys) / 2
	promoteKey := node.Keys[mid]

	rightPg, err := t.pool.NewPage(page.TypeBTreeInternal)
	if err != nil {
		t.release(pg, false)
		return err
	}

	right := &Node{
		ID:       rightPg.ID,
		Leaf:     false,
		Parent:   node.Parent,
		Keys:     append([]int64(nil), node.Keys[mid+1:]...),
		Children: append([]page.ID(nil), node.Children[mid+1:]...),
	}

	node.Keys = node.Keys[:mid]
	node.Children = node.Children[:mid+1]

	for _, childID := range right.Children {
		if err := t.setParentOf(childID, right.ID); err != nil {
			t.release(rightPg, false)
			t.release(pg, false)
			return err
		}
	}

	if err := t.writeAndRelease(rightPg, right, true); err != nil {
		t.release(pg, false)
		return err
	}
	if err := t.writeAndRelease(pg, node, true); err != nil {
		return err
	}

	return t.promote(node.ID, promoteKey, right.ID, path)
}
