package heap

import (
	"sync"

	"pagedb/storage/buffer"
	"pagedb/storage/page"
)

// File is a chain of record pages, growing a new tail page whenever no
// page in the chain has room left — the same page-chain-walk-then-append
// idiom heapfile_manager.go's findSuitablePage/insertRow pair implements,
// generalized from DaemonDB's multi-file/global-page-id addressing down
// to this engine's single buffer pool.
type File struct {
	pool *buffer.Pool

	mu        sync.Mutex
	firstPage page.ID
	lastPage  page.ID
}

// Create allocates a fresh, empty heap file backed by pool.
func Create(pool *buffer.Pool) (*File, error) {
	p, err := pool.NewPage(page.TypeHeap)
	if err != nil {
		return nil, err
	}
	InitRecordPage(p, page.InvalidID)
	if err := pool.Unpin(p.ID, true); err != nil {
		return nil, err
	}
	return &File{pool: pool, firstPage: p.ID, lastPage: p.ID}, nil
}

// Open reattaches to an existing heap file whose first page id is known
// (persisted by the caller, e.g. in a table catalog), walking the chain
// once to find the current tail.
func Open(pool *buffer.Pool, firstPage page.ID) (*File, error) {
	cur := firstPage
	for {
		p, err := pool.FetchPage(cur)
		if err != nil {
			return nil, err
		}
		next := NextPageID(p)
		if err := pool.Unpin(cur, false); err != nil {
			return nil, err
		}
		if next == page.InvalidID {
			break
		}
		cur = next
	}
	return &File{pool: pool, firstPage: firstPage, lastPage: cur}, nil
}

// FirstPage is the heap file's entry point, to be persisted by the owning
// table so the file can be reopened later.
func (f *File) FirstPage() page.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firstPage
}

// Insert appends data as a new record. It walks the page chain from first
// to last, per spec.md §4.5, and hands the record to the first page with
// enough free space; only when none in the chain fits does it allocate and
// link a fresh tail page.
func (f *File) Insert(data []byte) (RID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur := f.firstPage
	for {
		p, err := f.pool.FetchPage(cur)
		if err != nil {
			return RID{}, err
		}

		if FreeSpace(p) >= len(data)+slotSize {
			slot, err := InsertRecord(p, data)
			if err != nil {
				f.pool.Unpin(p.ID, false)
				return RID{}, err
			}
			f.pool.Unpin(p.ID, true)
			return RID{PageID: p.ID, Slot: slot}, nil
		}

		next := NextPageID(p)
		if err := f.pool.Unpin(p.ID, false); err != nil {
			return RID{}, err
		}
		if next == page.InvalidID {
			break
		}
		cur = next
	}

	// No page in the chain fits: allocate and link a new tail, then
	// insert into the fresh page.
	newTail, err := f.pool.NewPage(page.TypeHeap)
	if err != nil {
		return RID{}, err
	}
	InitRecordPage(newTail, page.InvalidID)

	oldTail, err := f.pool.FetchPage(f.lastPage)
	if err != nil {
		f.pool.Unpin(newTail.ID, true)
		return RID{}, err
	}
	SetNextPageID(oldTail, newTail.ID)
	if err := f.pool.Unpin(oldTail.ID, true); err != nil {
		return RID{}, err
	}

	f.lastPage = newTail.ID

	slot, err := InsertRecord(newTail, data)
	if err != nil {
		f.pool.Unpin(newTail.ID, true)
		return RID{}, err
	}
	f.pool.Unpin(newTail.ID, true)
	return RID{PageID: newTail.ID, Slot: slot}, nil
}

// Get returns the raw bytes stored at rid.
func (f *File) Get(rid RID) ([]byte, error) {
	p, err := f.pool.FetchPage(rid.PageID)
	if err != nil {
		return nil, err
	}
	defer f.pool.Unpin(rid.PageID, false)
	return ReadRecord(p, rid.Slot)
}

// Delete tombstones the record at rid.
func (f *File) Delete(rid RID) error {
	p, err := f.pool.FetchPage(rid.PageID)
	if err != nil {
		return err
	}
	defer f.pool.Unpin(rid.PageID, true)
	return DeleteRecord(p, rid.Slot)
}

// Update rewrites the record at rid, always keeping it at the same rid:
// in place when data fits the existing slot, or via tombstone-and-reinsert
// on the same page with the slot table swapped back into rid.Slot when it
// doesn't. A B+ tree index may already hold this rid, so Update never
// relocates a record to a different page — the same rid-stability
// requirement storage_engine/access/heapfile_manager/row_ops_internal.go's
// updateRow ignores by simply reinserting wherever fits.
func (f *File) Update(rid RID, data []byte) (RID, error) {
	p, err := f.pool.FetchPage(rid.PageID)
	if err != nil {
		return RID{}, err
	}

	if err := UpdateRecord(p, rid.Slot, data); err != nil {
		f.pool.Unpin(rid.PageID, false)
		return RID{}, err
	}
	f.pool.Unpin(rid.PageID, true)
	return rid, nil
}

// NewIterator returns a forward cursor over every live record in the
// file, starting from its first page.
func (f *File) NewIterator() *Iterator {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Iterator{pool: f.pool, pageID: f.firstPage}
}
