// Package page defines the fixed-size page buffer shared by the file
// manager, buffer pool, heap file and B+ tree layers, the way
// storage_engine/page/page.go centralizes it for the disk and buffer
// managers in the donor codebase — one struct, different layers interpret
// its Data differently above the common header.
package page

import (
	"encoding/binary"
	"sync"
)

const (
	// Size is the fixed on-disk and in-memory size of every page.
	Size = 4096

	// HeaderSize is the size of the common header every page carries,
	// regardless of its PageType.
	HeaderSize = 24

	// PayloadSize is the number of bytes available to a page's
	// type-specific layout after the common header.
	PayloadSize = Size - HeaderSize
)

// Common header byte offsets, all within the first HeaderSize bytes of Data.
const (
	offID       = 0 // uint64
	offType     = 8 // byte
	offReserved = 9 // 7 bytes padding
	offLSN      = 16 // uint64, reserved for a future WAL; untouched here
)

// ID identifies a page uniquely within one database file. Page 0 is
// always the header page.
type ID uint64

// InvalidID marks the absence of a page reference (e.g. a leaf with no
// next sibling, or a record page with no successor).
const InvalidID ID = 0xFFFFFFFFFFFFFFFF

// Type discriminates what a page's payload bytes mean.
type Type byte

const (
	TypeInvalid Type = iota
	TypeHeader
	TypeHeap
	TypeBTreeInternal
	TypeBTreeLeaf
)

func (t Type) String() string {
	switch t {
	case TypeHeader:
		return "Header"
	case TypeHeap:
		return "Heap"
	case TypeBTreeInternal:
		return "BTreeInternal"
	case TypeBTreeLeaf:
		return "BTreeLeaf"
	default:
		return "Invalid"
	}
}

// Page is the unit of residency in the buffer pool: a fixed-size byte
// buffer plus the bookkeeping the buffer pool needs to decide when it may
// be evicted and whether it must be written back first.
type Page struct {
	ID       ID
	Data     []byte
	Dirty    bool
	PinCount int32

	mu sync.RWMutex
}

// New allocates a zeroed page carrying the given id and type, with the
// common header already stamped into Data.
func New(id ID, typ Type) *Page {
	p := &Page{
		ID:   id,
		Data: make([]byte, Size),
	}
	p.SetHeaderID(id)
	p.SetType(typ)
	return p
}

func (p *Page) Lock()    { p.mu.Lock() }
func (p *Page) Unlock()  { p.mu.Unlock() }
func (p *Page) RLock()   { p.mu.RLock() }
func (p *Page) RUnlock() { p.mu.RUnlock() }

// Payload returns the slice of Data following the common header — the
// region each layer (heap, B+ tree, header page) lays its own structure
// over.
func (p *Page) Payload() []byte { return p.Data[HeaderSize:] }

// HeaderID reads the page id stamped in the common header. This is
// normally identical to p.ID; the buffer pool compares the two after a
// disk read to catch a file manager / frame mismatch (see REDESIGN FLAGS).
func (p *Page) HeaderID() ID {
	return ID(binary.LittleEndian.Uint64(p.Data[offID:]))
}

func (p *Page) SetHeaderID(id ID) {
	binary.LittleEndian.PutUint64(p.Data[offID:], uint64(id))
}

func (p *Page) HeaderType() Type {
	return Type(p.Data[offType])
}

func (p *Page) SetType(t Type) {
	p.Data[offType] = byte(t)
}

// LSN is a reserved slot in the common header. No component in this
// engine's scope writes a real log sequence number to it; it exists so a
// future WAL layer would not need to change the page layout.
func (p *Page) LSN() uint64 {
	return binary.LittleEndian.Uint64(p.Data[offLSN:])
}

func (p *Page) SetLSN(lsn uint64) {
	binary.LittleEndian.PutUint64(p.Data[offLSN:], lsn)
}
