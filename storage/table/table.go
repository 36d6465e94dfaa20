// Package table is the schema-aware handle over a heap file:
// storage_engine/structs.go wraps a heap file with a catalog-provided
// schema the same way, validating each row against it before ever
// touching the page layer; WAL/transaction logging that wrapper also did
// is out of scope here.
package table

import (
	"pagedb/cache"
	"pagedb/storage/heap"
	"pagedb/storage/value"
)

// Table binds a schema to a heap file and an optional decoded-tuple cache.
type Table struct {
	Name   string
	Schema value.Schema

	file  *heap.File
	cache *cache.TupleCache // nil disables caching
}

// New wraps an already-open heap file with a schema.
func New(name string, schema value.Schema, file *heap.File, tc *cache.TupleCache) *Table {
	return &Table{Name: name, Schema: schema, file: file, cache: tc}
}

// FirstPage exposes the backing heap file's entry point, for persistence
// by a caller-owned catalog.
func (t *Table) FirstPage() uint64 { return uint64(t.file.FirstPage()) }

// Cache exposes the table's decoded-tuple cache, or nil if caching is
// disabled. Callers mostly need this to call Wait after a Get/Insert when
// a test must observe a just-written cache entry deterministically;
// production code has no reason to reach past Table's own methods.
func (t *Table) Cache() *cache.TupleCache { return t.cache }

// Insert validates values against the schema, encodes them, and appends
// the resulting tuple to the heap file.
func (t *Table) Insert(values []value.Value) (heap.RID, error) {
	if err := t.Schema.Validate(values); err != nil {
		return heap.RID{}, err
	}
	return t.file.Insert(value.Encode(values))
}

// Get decodes and returns the row at rid, consulting the tuple cache
// first when one is configured.
func (t *Table) Get(rid heap.RID) ([]value.Value, error) {
	if t.cache != nil {
		if values, ok := t.cache.Get(rid); ok {
			return values, nil
		}
	}

	raw, err := t.file.Get(rid)
	if err != nil {
		return nil, err
	}

	values, err := value.Decode(raw, t.Schema)
	if err != nil {
		return nil, err
	}

	if t.cache != nil {
		t.cache.Set(rid, values)
	}
	return values, nil
}

// Update validates the new values, invalidates any cached entry, and
// rewrites the record in place. The returned rid always equals the one
// passed in — Update never relocates a record, since an index may already
// point at its rid.
func (t *Table) Update(rid heap.RID, values []value.Value) (heap.RID, error) {
	if err := t.Schema.Validate(values); err != nil {
		return heap.RID{}, err
	}

	if t.cache != nil {
		t.cache.Invalidate(rid)
	}

	newRID, err := t.file.Update(rid, value.Encode(values))
	if err != nil {
		return heap.RID{}, err
	}
	return newRID, nil
}

// Delete removes the record at rid and drops it from the cache.
func (t *Table) Delete(rid heap.RID) error {
	if t.cache != nil {
		t.cache.Invalidate(rid)
	}
	return t.file.Delete(rid)
}

// Scan returns a forward iterator over the table's rows.
func (t *Table) Scan() *Cursor {
	return &Cursor{it: t.file.NewIterator(), schema: t.Schema}
}

// Cursor decodes each record an underlying heap.Iterator visits.
type Cursor struct {
	it     *heap.Iterator
	schema value.Schema
}

func (c *Cursor) Next() bool { return c.it.Next() }

func (c *Cursor) RID() heap.RID { return c.it.RID() }

func (c *Cursor) Values() ([]value.Value, error) {
	raw, err := c.it.Value()
	if err != nil {
		return nil, err
	}
	return value.Decode(raw, c.schema)
}

func (c *Cursor) Close() error { return c.it.Close() }
