package bptree

import "pagedb/storage/page"

// childIndex picks which child of an internal node's Keys/Children a key
// belongs under: the smallest i such that key < keys[i], or len(keys) if
// key is >= every key (spec.md §4.6: "keys[i-1] <= k < keys[i]").
func childIndex(keys []int64, key int64) int {
	return lowerBoundAfter(keys, key)
}

// lowerBoundAfter returns the number of keys that are <= target — i.e.
// the index of the first child subtree that may contain target.
func lowerBoundAfter(keys []int64, target int64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if keys[mid] <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// descendToLeaf walks from the root to the leaf that may contain key,
// pinning exactly one page at a time — the parent is unpinned before the
// child is fetched, per spec.md §4.6's single-pin descent requirement.
// The returned page/node are the leaf, still pinned; the caller releases
// it.
func (t *Tree) descendToLeaf(key int64) (*page.Page, *Node, error) {
	id := t.root
	for {
		pg, n, err := t.fetchNode(id)
		if err != nil {
			return nil, nil, err
		}
		if n.Leaf {
			return pg, n, nil
		}
		i := childIndex(n.Keys, key)
		if i >= len(n.Children) {
			i = len(n.Children) - 1
		}
		next := n.Children[i]
		t.release(pg, false)
		id = next
	}
}

// descendWithPath behaves like descendToLeaf but also returns the chain
// of ancestor page ids from the root down to (excluding) the leaf. Insert
// and Delete use the path to walk back up for split/merge propagation
// instead of trusting each node's stored Parent pointer while it is being
// rewritten — the design note in spec.md §9 ("Parent pointers in tree
// nodes") recommends exactly this to avoid a class of bugs when a node's
// bytes move during a split.
func (t *Tree) descendWithPath(key int64) (*page.Page, *Node, []page.ID, error) {
	var path []page.ID
	id := t.root
	for {
		pg, n, err := t.fetchNode(id)
		if err != nil {
			return nil, nil, nil, err
		}
		if n.Leaf {
			return pg, n, path, nil
		}
		i := childIndex(n.Keys, key)
		if i >= len(n.Children) {
			i = len(n.Children) - 1
		}
		next := n.Children[i]
		path = append(path, id)
		t.release(pg, false)
		id = next
	}
}
