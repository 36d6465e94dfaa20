// Package engine is the storage core's top-level lifecycle surface:
// Open/Close, and creation/lookup of table and index handles backed by
// one shared file manager and buffer pool. It generalizes
// storage_engine/main.go's NewStorageEngine — which wires a disk manager,
// buffer pool, heap manager and catalog manager together for one on-disk
// database root — down to spec.md §6's scope: no catalog persistence, no
// transaction manager, a single database file instead of the donor's
// per-table file layout.
package engine

import (
	"fmt"
	"io"
	"log"
	"sync"

	"pagedb/cache"
	"pagedb/internal/errs"
	"pagedb/storage/buffer"
	"pagedb/storage/bptree"
	"pagedb/storage/filemanager"
	"pagedb/storage/heap"
	"pagedb/storage/page"
	"pagedb/storage/table"
	"pagedb/storage/value"
)

// DefaultCacheCapacity is the buffer pool frame count used when Options
// omits one, matching the pool size the spec.md §8 scenarios exercise.
const DefaultCacheCapacity = 50

// Options configures Open. A zero Options is valid: CacheCapacity
// defaults to DefaultCacheCapacity and Logger defaults to a discarding
// logger, the same plain-struct-with-sane-zero-value style
// lintang-b-s-rtreed's page.Options/DefaultOptions follows, kept here
// instead of introducing a config-file format (see SPEC_FULL.md AMBIENT
// STACK "Configuration" — no config-file library appears anywhere in the
// retrieval pack to ground one on).
type Options struct {
	// CacheCapacity is the number of frames the buffer pool is built
	// with. Zero means DefaultCacheCapacity.
	CacheCapacity int

	// Logger receives the diagnostic messages the buffer pool prints at
	// hits/misses/evictions/errors. The file manager does not log. Nil
	// discards them.
	Logger *log.Logger

	// TupleCacheCapacity is the approximate number of decoded rows each
	// table's tuple cache holds. Zero disables the tuple cache entirely
	// (tables read straight through the heap file on every Get).
	TupleCacheCapacity int64
}

func (o Options) withDefaults() Options {
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = DefaultCacheCapacity
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// Engine owns one database file's FileManager and buffer.Pool, plus the
// set of table and index handles opened against them for the life of the
// process. It persists nothing about which tables or indexes exist —
// spec.md §6 and §9 call this an acknowledged limitation: a caller must
// re-declare schemas and known first-page/root ids on every reopen.
type Engine struct {
	opts Options
	fm   *filemanager.FileManager
	pool *buffer.Pool

	mu      sync.Mutex
	tables  map[string]*table.Table
	indexes map[string]*bptree.Index
}

// Open creates path if absent (with a fresh header page) or attaches to
// it, validating the header magic otherwise — a bad magic is fatal
// (errs.BadFormat), per spec.md §4.1 and §4.9.
func Open(path string, opts Options) (*Engine, error) {
	opts = opts.withDefaults()

	fm, err := filemanager.Open(path)
	if err != nil {
		return nil, err
	}

	pool := buffer.New(opts.CacheCapacity, fm, opts.Logger)

	return &Engine{
		opts:    opts,
		fm:      fm,
		pool:    pool,
		tables:  make(map[string]*table.Table),
		indexes: make(map[string]*bptree.Index),
	}, nil
}

// newTupleCache builds the per-table decoded-tuple cache Options calls
// for, or returns nil (caching disabled) when TupleCacheCapacity is zero.
func (e *Engine) newTupleCache() (*cache.TupleCache, error) {
	if e.opts.TupleCacheCapacity <= 0 {
		return nil, nil
	}
	return cache.NewTupleCache(e.opts.TupleCacheCapacity)
}

// Pool exposes the engine's shared buffer pool, for callers that need to
// drive the lower layers directly (tests, cmd/inspect).
func (e *Engine) Pool() *buffer.Pool { return e.pool }

// FileManager exposes the engine's shared file manager, for the same
// reason as Pool.
func (e *Engine) FileManager() *filemanager.FileManager { return e.fm }

// CreateTable allocates a fresh heap file and registers name -> Table.
// It fails if name is already registered in this process.
func (e *Engine) CreateTable(name string, schema value.Schema) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tables[name]; ok {
		return nil, errs.Wrap(errs.DuplicateKey, fmt.Sprintf("table %q already open", name), nil)
	}

	hf, err := heap.Create(e.pool)
	if err != nil {
		return nil, err
	}
	tc, err := e.newTupleCache()
	if err != nil {
		return nil, err
	}
	tbl := table.New(name, schema, hf, tc)
	e.tables[name] = tbl
	return tbl, nil
}

// OpenTable reattaches to an existing heap file by its first page id — the
// caller must supply the schema and first-page id it recorded out of band
// before the previous Close, per spec.md §6's persisted-state-layout
// limitation.
func (e *Engine) OpenTable(name string, schema value.Schema, firstPage page.ID) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.tables[name]; ok {
		return t, nil
	}

	hf, err := heap.Open(e.pool, firstPage)
	if err != nil {
		return nil, err
	}
	tc, err := e.newTupleCache()
	if err != nil {
		return nil, err
	}
	tbl := table.New(name, schema, hf, tc)
	e.tables[name] = tbl
	return tbl, nil
}

// Table returns a previously created/opened table handle, and false if
// none is registered under name in this process.
func (e *Engine) Table(name string) (*table.Table, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	return t, ok
}

// CreateIndex allocates a fresh B+ tree index and registers name ->
// Index.
func (e *Engine) CreateIndex(name string) (*bptree.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.indexes[name]; ok {
		return nil, errs.Wrap(errs.DuplicateKey, fmt.Sprintf("index %q already open", name), nil)
	}

	ix, err := bptree.CreateIndex(name, e.pool)
	if err != nil {
		return nil, err
	}
	e.indexes[name] = ix
	return ix, nil
}

// OpenIndex reattaches to an existing index by its root page id.
func (e *Engine) OpenIndex(name string, root page.ID) (*bptree.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ix, ok := e.indexes[name]; ok {
		return ix, nil
	}

	ix, err := bptree.OpenIndex(name, e.pool, root)
	if err != nil {
		return nil, err
	}
	e.indexes[name] = ix
	return ix, nil
}

// Index returns a previously created/opened index handle, and false if
// none is registered under name in this process.
func (e *Engine) Index(name string) (*bptree.Index, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, ok := e.indexes[name]
	return ix, ok
}

// Close flushes every dirty resident page and writes the header page,
// then releases the underlying file handle, per spec.md §6's engine
// lifecycle contract. It is best-effort on the buffer-pool flush (see
// buffer.Pool.FlushAll) but fatal on the final header write/close.
func (e *Engine) Close() error {
	if err := e.pool.FlushAll(); err != nil {
		return err
	}
	return e.fm.Close()
}
