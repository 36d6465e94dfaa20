package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedb/storage/filemanager"
	"pagedb/storage/page"
)

func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()
	fm, err := filemanager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })
	return New(capacity, fm, nil)
}

func TestNewPageIsPinnedAndDirty(t *testing.T) {
	p := newTestPool(t, 4)

	pg, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pg.PinCount)
	assert.True(t, pg.Dirty)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Resident)
	assert.Equal(t, 1, stats.Pinned)
	assert.Equal(t, 1, stats.Dirty)
}

func TestFetchPageHitsReuseSameFrame(t *testing.T) {
	p := newTestPool(t, 4)

	pg, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(pg.ID, true))

	again, err := p.FetchPage(pg.ID)
	require.NoError(t, err)
	assert.Same(t, pg, again)
	assert.Equal(t, int32(1), again.PinCount)
}

func TestUnpinUnknownPageFails(t *testing.T) {
	p := newTestPool(t, 4)
	err := p.Unpin(123, false)
	assert.Error(t, err)
}

func TestEvictionPicksLeastRecentlyUnpinned(t *testing.T) {
	p := newTestPool(t, 2)

	a, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(a.ID, false))

	b, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(b.ID, false))

	// Both frames are full and unpinned; a is the LRU victim, so a third
	// NewPage should evict it rather than b.
	_, err = p.NewPage(page.TypeHeap)
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Resident)

	_, aResident := p.pageTable[a.ID]
	_, bResident := p.pageTable[b.ID]
	assert.False(t, aResident, "a was least recently unpinned and should have been evicted")
	assert.True(t, bResident, "b should still be resident")
}

func TestDeletePageRefusesWhilePinned(t *testing.T) {
	p := newTestPool(t, 4)

	pg, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)

	err = p.DeletePage(pg.ID)
	assert.Error(t, err)

	require.NoError(t, p.Unpin(pg.ID, true))
	assert.NoError(t, p.DeletePage(pg.ID))
}

func TestDeletePageDeallocatesEvenWhenNotResident(t *testing.T) {
	p := newTestPool(t, 1)

	pg, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(pg.ID, true))

	// A second NewPage call with only one frame evicts pg, leaving it
	// absent from the page table. DeletePage must still free its id in
	// the file manager instead of treating "not resident" as "nothing to
	// do"; reallocating should hand the id straight back out.
	other, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(other.ID, true))

	require.NoError(t, p.DeletePage(pg.ID))

	again, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	assert.Equal(t, pg.ID, again.ID)
}

func TestFlushAllClearsDirtyFlags(t *testing.T) {
	p := newTestPool(t, 4)

	pg, err := p.NewPage(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, p.Unpin(pg.ID, true))

	require.NoError(t, p.FlushAll())

	stats := p.Stats()
	assert.Equal(t, 0, stats.Dirty)
}
