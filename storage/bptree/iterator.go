package bptree

import (
	"pagedb/storage/heap"
	"pagedb/storage/page"
)

// Iterator is a forward-only cursor over the leaf sibling chain, used for
// range scans (spec.md §4.6 "Range scan") and full in-order traversal
// (testable property 6). It holds at most one leaf pinned at a time.
type Iterator struct {
	tree  *Tree
	pg    *page.Page
	leaf  *Node
	idx   int
	hi    int64
	hasHi bool
}

// Range returns an iterator over every key k in [lo, hi] in ascending
// order, positioned before the first entry (call Next to advance to it).
func (t *Tree) Range(lo, hi int64) (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pg, leaf, err := t.descendToLeaf(lo)
	if err != nil {
		return nil, err
	}

	idx := lowerBound(leaf.Keys, lo)
	return &Iterator{tree: t, pg: pg, leaf: leaf, idx: idx - 1, hi: hi, hasHi: true}, nil
}

// All returns an iterator over every key in the tree, ascending.
func (t *Tree) All() (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id := t.root
	for {
		pg, n, err := t.fetchNode(id)
		if err != nil {
			return nil, err
		}
		if n.Leaf {
			return &Iterator{tree: t, pg: pg, leaf: n, idx: -1}, nil
		}
		next := n.Children[0]
		t.release(pg, false)
		id = next
	}
}

// Next advances the iterator, returning false once the chain or the
// range's upper bound is exhausted.
func (it *Iterator) Next() bool {
	for {
		it.idx++
		if it.idx < len(it.leaf.Keys) {
			if it.hasHi && it.leaf.Keys[it.idx] > it.hi {
				return false
			}
			return true
		}

		next := it.leaf.Next
		it.tree.release(it.pg, false)
		it.pg, it.leaf = nil, nil

		if next == page.InvalidID {
			return false
		}
		pg, n, err := it.tree.fetchNode(next)
		if err != nil {
			return false
		}
		it.pg, it.leaf = pg, n
		it.idx = -1
	}
}

// Key returns the key at the iterator's current position.
func (it *Iterator) Key() int64 { return it.leaf.Keys[it.idx] }

// RID returns the record id at the iterator's current position.
func (it *Iterator) RID() heap.RID { return it.leaf.Values[it.idx] }

// Close releases the iterator's pinned leaf, if any. Safe to call more
// than once.
func (it *Iterator) Close() {
	if it.pg != nil {
		it.tree.release(it.pg, false)
		it.pg, it.leaf = nil, nil
	}
}
