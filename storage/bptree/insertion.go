package bptree

import (
	"pagedb/internal/errs"
	"pagedb/storage/heap"
	"pagedb/storage/page"
)

// Insert adds key -> rid to the tree. It fails with a DuplicateKey error
// if key is already present — this tree is single-value-per-key.
func (t *Tree) Insert(key int64, rid heap.RID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pg, leaf, path, err := t.descendWithPath(key)
	if err != nil {
		return err
	}

	if binarySearch(leaf.Keys, key) >= 0 {
		t.release(pg, false)
		return errs.Wrap(errs.DuplicateKey, "insert", nil)
	}

	pos := lowerBound(leaf.Keys, key)
	leaf.Keys = insertAt(leaf.Keys, pos, key)
	leaf.Values = insertAt(leaf.Values, pos, rid)

	if len(leaf.Keys) <= F {
		return t.writeAndRelease(pg, leaf, true)
	}

	return t.splitLeaf(pg, leaf, path)
}

// splitLeaf moves the upper half of an overflowing leaf's entries to a
// freshly allocated right sibling, links the two leaves, and propagates
// the right sibling's first key into the parent (or creates a new root if
// the leaf had none), per spec.md §4.6 "Leaf split".
func (t *Tree) splitLeaf(pg *page.Page, leaf *Node, path []page.ID) error {
	mid := len(leaf.Keys) / 2

	rightPg, err := t.pool.NewPage(page.TypeBTreeLeaf)
	if err != nil {
		t.release(pg, false)
		return err
	}

	right := &Node{
		ID:     rightPg.ID,
		Leaf:   true,
		Parent: leaf.Parent,
		Next:   leaf.Next,
		Keys:   append([]int64(nil), leaf.Keys[mid:]...),
		Values: append([]heap.RID(nil), leaf.Values[mid:]...),
	}

	leaf.Keys = leaf.Keys[:mid]
	leaf.Values = leaf.Values[:mid]
	leaf.Next = right.ID

	promoteKey := right.Keys[0]

	if err := t.writeAndRelease(rightPg, right, true); err != nil {
		t.release(pg, false)
		return err
	}
	if err := t.writeAndRelease(pg, leaf, true); err != nil {
		return err
	}

	return t.promote(leaf.ID, promoteKey, right.ID, path)
}
