package heap

import (
	"pagedb/storage/buffer"
	"pagedb/storage/page"
)

// Iterator walks a heap file's page chain, pinning only the page it is
// currently consulting, the way original_source/src/table/table_page.*'s
// GetNextTupleRid advances a cursor one tuple at a time without pinning
// the whole file.
type Iterator struct {
	pool *buffer.Pool

	pageID  page.ID
	curPage *page.Page
	slot    uint16
	curSlot uint16
	done    bool
}

// Next advances to the next live record, returning false once the chain
// is exhausted. RID and Value are only valid after Next returns true.
func (it *Iterator) Next() bool {
	for {
		if it.done {
			return false
		}

		if it.curPage == nil {
			p, err := it.pool.FetchPage(it.pageID)
			if err != nil {
				it.done = true
				return false
			}
			it.curPage = p
			it.slot = 0
		}

		n := SlotCount(it.curPage)
		for it.slot < n {
			idx := it.slot
			it.slot++
			if IsLive(it.curPage, idx) {
				it.curSlot = idx
				return true
			}
		}

		next := NextPageID(it.curPage)
		it.pool.Unpin(it.pageID, false)
		it.curPage = nil

		if next == page.InvalidID {
			it.done = true
			return false
		}
		it.pageID = next
	}
}

// RID reports the current record's identity.
func (it *Iterator) RID() RID {
	return RID{PageID: it.pageID, Slot: it.curSlot}
}

// Value returns the current record's raw bytes.
func (it *Iterator) Value() ([]byte, error) {
	return ReadRecord(it.curPage, it.curSlot)
}

// Close releases any pinned page the iterator is holding. Safe to call
// multiple times and after exhaustion.
func (it *Iterator) Close() error {
	if it.curPage != nil {
		err := it.pool.Unpin(it.pageID, false)
		it.curPage = nil
		return err
	}
	return nil
}
