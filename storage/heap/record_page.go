// Package heap implements the slotted record page and the heap file built
// from a chain of them. The physical layout — a slot array growing
// forward right after a small mini-header, and record bytes growing
// backward from the page tail — follows
// kfigon-simple-db/page/slotted_page.go's SlottedPage/AppendCell/ReadCell
// shape, since that is the layout this engine's data model requires; the
// accessor style (typed getters/setters over fixed byte offsets via
// encoding/binary) follows heapfile_manager/heap_page_helpers.go, whose
// own page grows records forward and slots backward — the mirror image of
// what is needed here.
package heap

import (
	"encoding/binary"
	"fmt"

	"pagedb/internal/errs"
	"pagedb/storage/page"
)

// Mini-header byte offsets, relative to page.Payload().
const (
	mhOffNextPageID = 0  // uint64
	mhOffSlotCount  = 8  // uint16
	mhOffFreeSpace  = 10 // uint16, offset within payload where record bytes begin
	mhOffDeleted    = 12 // uint16
	// 14-15 reserved

	miniHeaderSize = 16
	slotSize       = 8 // offset uint16 + size uint16, then 4 unused bytes
)

// RID identifies one record: the page it lives on and its slot index.
type RID struct {
	PageID page.ID
	Slot   uint16
}

func (r RID) String() string { return fmt.Sprintf("(%d,%d)", r.PageID, r.Slot) }

// InitRecordPage stamps a freshly allocated page as an empty record page,
// chained after next (use page.InvalidID if it is the new tail).
func InitRecordPage(p *page.Page, next page.ID) {
	p.SetType(page.TypeHeap)
	payload := p.Payload()
	binary.LittleEndian.PutUint64(payload[mhOffNextPageID:], uint64(next))
	binary.LittleEndian.PutUint16(payload[mhOffSlotCount:], 0)
	binary.LittleEndian.PutUint16(payload[mhOffFreeSpace:], uint16(page.PayloadSize))
	binary.LittleEndian.PutUint16(payload[mhOffDeleted:], 0)
}

func nextPageID(payload []byte) page.ID {
	return page.ID(binary.LittleEndian.Uint64(payload[mhOffNextPageID:]))
}

func setNextPageID(payload []byte, id page.ID) {
	binary.LittleEndian.PutUint64(payload[mhOffNextPageID:], uint64(id))
}

func slotCount(payload []byte) uint16 {
	return binary.LittleEndian.Uint16(payload[mhOffSlotCount:])
}

func setSlotCount(payload []byte, n uint16) {
	binary.LittleEndian.PutUint16(payload[mhOffSlotCount:], n)
}

func freeSpacePointer(payload []byte) uint16 {
	return binary.LittleEndian.Uint16(payload[mhOffFreeSpace:])
}

func setFreeSpacePointer(payload []byte, off uint16) {
	binary.LittleEndian.PutUint16(payload[mhOffFreeSpace:], off)
}

func deletedSlotCount(payload []byte) uint16 {
	return binary.LittleEndian.Uint16(payload[mhOffDeleted:])
}

func setDeletedSlotCount(payload []byte, n uint16) {
	binary.LittleEndian.PutUint16(payload[mhOffDeleted:], n)
}

func slotOffset(idx uint16) int { return miniHeaderSize + int(idx)*slotSize }

// readSlot reads the (offset, size) pair for slot idx. size == 0 means the
// slot is a tombstone for a deleted record.
func readSlot(payload []byte, idx uint16) (offset, size uint16) {
	o := slotOffset(idx)
	offset = binary.LittleEndian.Uint16(payload[o:])
	size = binary.LittleEndian.Uint16(payload[o+2:])
	return
}

func writeSlot(payload []byte, idx uint16, offset, size uint16) {
	o := slotOffset(idx)
	binary.LittleEndian.PutUint16(payload[o:], offset)
	binary.LittleEndian.PutUint16(payload[o+2:], size)
}

// NextPageID returns the page this one chains to, or page.InvalidID.
func NextPageID(p *page.Page) page.ID { return nextPageID(p.Payload()) }

// SetNextPageID rewrites the page's successor link.
func SetNextPageID(p *page.Page, id page.ID) { setNextPageID(p.Payload(), id) }

// FreeSpace reports how many unallocated bytes remain between the slot
// array and the record data region.
func FreeSpace(p *page.Page) int {
	payload := p.Payload()
	used := miniHeaderSize + int(slotCount(payload))*slotSize
	return int(freeSpacePointer(payload)) - used
}

// SlotCount reports the number of slots the page has ever allocated,
// including tombstoned ones.
func SlotCount(p *page.Page) uint16 { return slotCount(p.Payload()) }

// IsLive reports whether slot idx currently holds a record.
func IsLive(p *page.Page, idx uint16) bool {
	payload := p.Payload()
	if idx >= slotCount(payload) {
		return false
	}
	_, size := readSlot(payload, idx)
	return size > 0
}

// InsertRecord stores data as a record, reusing a tombstoned slot if one
// exists (so no new slot entry is needed) or else appending a new slot.
// If free space is insufficient it compacts the page once and retries
// before giving up, per spec.md §4.4 insert().
func InsertRecord(p *page.Page, data []byte) (uint16, error) {
	if idx, ok := tryInsertRecord(p, data); ok {
		return idx, nil
	}
	Compact(p)
	if idx, ok := tryInsertRecord(p, data); ok {
		return idx, nil
	}
	return 0, errs.New(errs.OutOfRange, "record page full")
}

// tombstoneSlot returns the lowest tombstoned slot index and true, or
// (0, false) if the page has none.
func tombstoneSlot(payload []byte) (uint16, bool) {
	n := slotCount(payload)
	for i := uint16(0); i < n; i++ {
		if _, size := readSlot(payload, i); size == 0 {
			return i, true
		}
	}
	return 0, false
}

func tryInsertRecord(p *page.Page, data []byte) (uint16, bool) {
	payload := p.Payload()
	n := slotCount(payload)

	reuseIdx, reusable := tombstoneSlot(payload)
	needed := len(data)
	if !reusable {
		needed += slotSize
	}
	if FreeSpace(p) < needed {
		return 0, false
	}

	newFree := freeSpacePointer(payload) - uint16(len(data))
	copy(payload[newFree:], data)
	setFreeSpacePointer(payload, newFree)

	if reusable {
		writeSlot(payload, reuseIdx, newFree, uint16(len(data)))
		setDeletedSlotCount(payload, deletedSlotCount(payload)-1)
		return reuseIdx, true
	}

	writeSlot(payload, n, newFree, uint16(len(data)))
	setSlotCount(payload, n+1)
	return n, true
}

// ReadRecord returns the bytes stored at slot idx, or NotFound if the slot
// is out of range or tombstoned.
func ReadRecord(p *page.Page, idx uint16) ([]byte, error) {
	payload := p.Payload()
	if idx >= slotCount(payload) {
		return nil, errs.ErrNotFound
	}
	offset, size := readSlot(payload, idx)
	if size == 0 {
		return nil, errs.ErrNotFound
	}
	out := make([]byte, size)
	copy(out, payload[offset:offset+size])
	return out, nil
}

// DeleteRecord tombstones slot idx by zeroing its recorded size. The
// record's bytes are reclaimed later by Compact, not immediately.
func DeleteRecord(p *page.Page, idx uint16) error {
	payload := p.Payload()
	if idx >= slotCount(payload) {
		return errs.ErrNotFound
	}
	offset, size := readSlot(payload, idx)
	if size == 0 {
		return errs.ErrNotFound
	}
	writeSlot(payload, idx, offset, 0)
	setDeletedSlotCount(payload, deletedSlotCount(payload)+1)
	return nil
}

// UpdateRecord overwrites slot idx's bytes when data fits within the
// slot's existing allocation. When it doesn't, it tombstones the old
// slot, inserts data as a fresh record (via InsertRecord's
// compact-and-retry/tombstone-reuse path), and swaps the resulting
// slot's contents into idx so the record's rid — (page, idx) — never
// changes, per spec.md §4.4 update(). If the new data cannot be made to
// fit even after compaction, the original bytes are restored at idx
// before returning the error, so a failed update never loses data.
func UpdateRecord(p *page.Page, idx uint16, data []byte) error {
	payload := p.Payload()
	if idx >= slotCount(payload) {
		return errs.ErrNotFound
	}
	offset, size := readSlot(payload, idx)
	if size == 0 {
		return errs.ErrNotFound
	}
	if len(data) <= int(size) {
		copy(payload[offset:offset+uint16(len(data))], data)
		writeSlot(payload, idx, offset, uint16(len(data)))
		return nil
	}

	old := make([]byte, size)
	copy(old, payload[offset:offset+size])

	if err := DeleteRecord(p, idx); err != nil {
		return err
	}
	newIdx, err := InsertRecord(p, data)
	if err != nil {
		restoreSlot(p, idx, old)
		return err
	}
	if newIdx == idx {
		return nil
	}

	payload = p.Payload()
	newOffset, newSize := readSlot(payload, newIdx)
	writeSlot(payload, idx, newOffset, newSize)
	writeSlot(payload, newIdx, 0, 0)
	return nil
}

// restoreSlot re-establishes idx (already tombstoned) as live with old's
// bytes, used to undo UpdateRecord's tombstone when the reinsert it was
// staging for fails. idx's slot entry already exists, so only the byte
// arena — not the slot array — needs to grow.
func restoreSlot(p *page.Page, idx uint16, old []byte) {
	payload := p.Payload()
	if FreeSpace(p) < len(old) {
		Compact(p)
		payload = p.Payload()
	}
	newFree := freeSpacePointer(payload) - uint16(len(old))
	copy(payload[newFree:], old)
	setFreeSpacePointer(payload, newFree)
	writeSlot(payload, idx, newFree, uint16(len(old)))
	setDeletedSlotCount(payload, deletedSlotCount(payload)-1)
}

// Compact rewrites the page's record bytes contiguously from the tail,
// discarding tombstoned slots' storage (their slot entries remain so RIDs
// referencing later slots by index stay valid, but their size stays 0).
func Compact(p *page.Page) {
	payload := p.Payload()
	n := slotCount(payload)

	type liveSlot struct {
		idx  uint16
		data []byte
	}
	live := make([]liveSlot, 0, n)
	for i := uint16(0); i < n; i++ {
		offset, size := readSlot(payload, i)
		if size == 0 {
			continue
		}
		data := make([]byte, size)
		copy(data, payload[offset:offset+size])
		live = append(live, liveSlot{idx: i, data: data})
	}

	cursor := uint16(page.PayloadSize)
	for _, ls := range live {
		cursor -= uint16(len(ls.data))
		copy(payload[cursor:], ls.data)
		writeSlot(payload, ls.idx, cursor, uint16(len(ls.data)))
	}
	setFreeSpacePointer(payload, cursor)
	setDeletedSlotCount(payload, n-uint16(len(live)))
}
