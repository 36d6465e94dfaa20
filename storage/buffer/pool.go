// Package buffer is the storage engine's buffer pool: a fixed number of
// in-memory frames backing pages fetched from the file manager, replaced
// under an LRU policy when full. It follows the donor's
// storage_engine/bufferpool/bufferpool.go method set (here named FetchPage,
// NewPage, Unpin, FlushPage, FlushAll, DeletePage) but is restructured
// around a fixed frame array plus free-frame list the way
// lintang-b-s-rtreed/lib/buffer/buffer_pool_manager.go organizes its pool,
// so that free_list.len() + replacer.size() + pinned_count always equals
// pool capacity — the donor's map-plus-linear-scan accessOrder slice
// doesn't preserve that invariant in O(1).
package buffer

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/cespare/xxhash/v2"

	"pagedb/internal/errs"
	"pagedb/storage/filemanager"
	"pagedb/storage/page"
	"pagedb/storage/replacer"
)

// Stats reports buffer pool occupancy and health counters.
type Stats struct {
	Capacity              int
	Resident              int
	Pinned                int
	Dirty                 int
	EvictionWriteFailures int
}

// Pool is a bounded cache of page.Page frames in front of a
// filemanager.FileManager.
type Pool struct {
	mu sync.Mutex

	fm       *filemanager.FileManager
	logger   *log.Logger
	capacity int

	frames    []*page.Page    // frame index -> resident page, nil if frame is empty
	pageTable map[page.ID]int // page id -> frame index, for resident pages only
	freeList  []int           // frame indices with no page loaded
	replacer  *replacer.LRU

	evictionWriteFailures int
}

// New builds a pool with `capacity` frames backed by fm. logger may be
// nil, in which case diagnostics are discarded.
func New(capacity int, fm *filemanager.FileManager, logger *log.Logger) *Pool {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	free := make([]int, capacity)
	for i := range free {
		free[i] = i
	}

	return &Pool{
		fm:        fm,
		logger:    logger,
		capacity:  capacity,
		frames:    make([]*page.Page, capacity),
		pageTable: make(map[page.ID]int, capacity),
		freeList:  free,
		replacer:  replacer.New(),
	}
}

// FetchPage returns the page for id, pinned once, loading it from the file
// manager on a miss. Callers must Unpin it exactly once when done.
func (p *Pool) FetchPage(id page.ID) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frame, ok := p.pageTable[id]; ok {
		p.logger.Printf("[buffer] HIT page=%d frame=%d", id, frame)
		pg := p.frames[frame]
		pg.PinCount++
		p.replacer.Pin(frame)
		return pg, nil
	}

	p.logger.Printf("[buffer] MISS page=%d — loading from disk", id)
	pg, err := p.fm.ReadPage(id)
	if err != nil {
		return nil, err
	}

	if pg.HeaderID() != id {
		p.logger.Printf("[buffer] WARNING page=%d header id=%d mismatch, content checksum=%x",
			id, pg.HeaderID(), xxhash.Sum64(pg.Data))
	}

	frame, err := p.allocateFrame()
	if err != nil {
		return nil, err
	}

	p.installLocked(frame, pg)
	pg.PinCount++
	p.replacer.Pin(frame)
	return pg, nil
}

// NewPage allocates a fresh page of the given type from the file manager,
// places it in the pool pinned and dirty, and returns it.
func (p *Pool) NewPage(typ page.Type) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pg, err := p.fm.Allocate(typ)
	if err != nil {
		return nil, err
	}
	pg.Dirty = true

	frame, err := p.allocateFrame()
	if err != nil {
		return nil, err
	}

	p.installLocked(frame, pg)
	pg.PinCount++
	p.replacer.Pin(frame)
	return pg, nil
}

// allocateFrame returns a frame index ready to receive a page, evicting
// the LRU victim if no frame is free. Callers must hold p.mu.
func (p *Pool) allocateFrame() (int, error) {
	if n := len(p.freeList); n > 0 {
		frame := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return frame, nil
	}

	frame, ok := p.replacer.Victim()
	if !ok {
		return 0, errs.ErrOutOfFrames
	}

	victim := p.frames[frame]
	if victim.Dirty {
		if err := p.fm.WritePage(victim); err != nil {
			p.evictionWriteFailures++
			p.logger.Printf("[buffer] EVICTION WRITE FAILED page=%d frame=%d: %v", victim.ID, frame, err)
		}
	}
	delete(p.pageTable, victim.ID)
	p.frames[frame] = nil
	return frame, nil
}

func (p *Pool) installLocked(frame int, pg *page.Page) {
	p.frames[frame] = pg
	p.pageTable[pg.ID] = frame
}

// Unpin decrements a page's pin count and marks it dirty if the caller
// modified it. Once a page's pin count reaches zero it becomes eligible
// for eviction.
func (p *Pool) Unpin(id page.ID, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame, ok := p.pageTable[id]
	if !ok {
		return errs.Wrap(errs.NotResident, fmt.Sprintf("page %d", id), nil)
	}

	pg := p.frames[frame]
	if dirty {
		pg.Dirty = true
	}
	if pg.PinCount > 0 {
		pg.PinCount--
	}
	if pg.PinCount == 0 {
		p.replacer.Unpin(frame)
	}
	return nil
}

// FlushPage writes a resident page back to the file manager if dirty.
func (p *Pool) FlushPage(id page.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame, ok := p.pageTable[id]
	if !ok {
		return errs.Wrap(errs.NotResident, fmt.Sprintf("page %d", id), nil)
	}

	pg := p.frames[frame]
	if !pg.Dirty {
		return nil
	}
	if err := p.fm.WritePage(pg); err != nil {
		return err
	}
	pg.Dirty = false
	return nil
}

// FlushAll writes every dirty resident page back to the file manager. It
// is best-effort: a single page's write failure is logged and counted but
// does not stop the remaining pages from being attempted, matching the
// donor's FlushAllPages behavior.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, frame := range p.pageTable {
		pg := p.frames[frame]
		if !pg.Dirty {
			continue
		}
		if err := p.fm.WritePage(pg); err != nil {
			p.evictionWriteFailures++
			p.logger.Printf("[buffer] FLUSH FAILED page=%d: %v", id, err)
			continue
		}
		pg.Dirty = false
	}
	return nil
}

// DeletePage evicts a page from the pool if resident (refusing to evict
// one still pinned) and unconditionally releases its id back to the file
// manager's free list — per spec.md §4.2, eviction and deallocation are
// separate steps and deallocation must happen even when the page was
// never loaded into the pool at all.
func (p *Pool) DeletePage(id page.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frame, ok := p.pageTable[id]; ok {
		pg := p.frames[frame]
		if pg.PinCount > 0 {
			return errs.Wrap(errs.StillPinned, fmt.Sprintf("page %d", id), nil)
		}

		p.replacer.Remove(frame)
		delete(p.pageTable, id)
		p.frames[frame] = nil
		p.freeList = append(p.freeList, frame)
	}

	if err := p.fm.Deallocate(id); err != nil {
		return err
	}
	return nil
}

// Stats reports a snapshot of the pool's occupancy and health counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Capacity:              p.capacity,
		EvictionWriteFailures: p.evictionWriteFailures,
	}
	for _, pg := range p.frames {
		if pg == nil {
			continue
		}
		s.Resident++
		if pg.PinCount > 0 {
			s.Pinned++
		}
		if pg.Dirty {
			s.Dirty++
		}
	}
	return s
}

// Capacity is the fixed number of frames the pool was constructed with.
func (p *Pool) Capacity() int { return p.capacity }
