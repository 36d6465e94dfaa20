package bptree

import "pagedb/storage/heap"

// Lookup returns the record id stored under key, and false if the tree
// holds no such key.
func (t *Tree) Lookup(key int64) (heap.RID, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pg, leaf, err := t.descendToLeaf(key)
	if err != nil {
		return heap.RID{}, false, err
	}
	defer t.release(pg, false)

	idx := binarySearch(leaf.Keys, key)
	if idx < 0 {
		return heap.RID{}, false, nil
	}
	return leaf.Values[idx], true, nil
}
