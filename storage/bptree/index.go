package bptree

import (
	"pagedb/storage/buffer"
	"pagedb/storage/heap"
	"pagedb/storage/page"
)

// Index is the caller-facing surface spec.md §6 names under "Index":
// create/insert/lookup/remove/range, distinct from the bare Tree type
// which only spec.md §4.6 names directly. It is a thin wrapper — all the
// work happens in Tree — added because the caller contract needs a named
// handle a table can be paired with (spec.md §4.8).
type Index struct {
	Name string
	tree *Tree
}

// CreateIndex allocates a fresh, empty index backed by pool.
func CreateIndex(name string, pool *buffer.Pool) (*Index, error) {
	tree, err := Create(pool)
	if err != nil {
		return nil, err
	}
	return &Index{Name: name, tree: tree}, nil
}

// OpenIndex reattaches to an existing index whose root page id is known.
func OpenIndex(name string, pool *buffer.Pool, root page.ID) (*Index, error) {
	tree, err := Open(pool, root)
	if err != nil {
		return nil, err
	}
	return &Index{Name: name, tree: tree}, nil
}

// Root exposes the backing tree's root page id, for persistence by a
// caller-owned catalog.
func (ix *Index) Root() page.ID { return ix.tree.Root() }

// Insert inserts key -> rid. It returns an error of kind DuplicateKey
// (check with errs.Is) if key is already present.
func (ix *Index) Insert(key int64, rid heap.RID) error {
	return ix.tree.Insert(key, rid)
}

// Lookup returns the record id for key, and false if absent.
func (ix *Index) Lookup(key int64) (heap.RID, bool, error) {
	return ix.tree.Lookup(key)
}

// Remove deletes key. It returns an error of kind NotFound (check with
// errs.Is) if key is absent.
func (ix *Index) Remove(key int64) error {
	return ix.tree.Delete(key)
}

// Range returns an iterator over every key in [lo, hi], ascending.
func (ix *Index) Range(lo, hi int64) (*Iterator, error) {
	return ix.tree.Range(lo, hi)
}

// All returns an iterator over every key in the index, ascending.
func (ix *Index) All() (*Iterator, error) {
	return ix.tree.All()
}
