package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedb/storage/buffer"
	"pagedb/storage/filemanager"
)

func newTestPool(t *testing.T, capacity int) *buffer.Pool {
	t.Helper()
	fm, err := filemanager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })
	return buffer.New(capacity, fm, nil)
}

func TestCreateInsertGet(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	rid, err := f.Insert([]byte("row one"))
	require.NoError(t, err)

	got, err := f.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, "row one", string(got))
}

func TestInsertWalksChainForARecordThatFitsEarlier(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	// Fill the first page to within a few bytes of capacity, leaving just
	// enough room for a small record but not a large one.
	filler := make([]byte, 100)
	for {
		p, ferr := pool.FetchPage(f.firstPage)
		require.NoError(t, ferr)
		room := FreeSpace(p)
		require.NoError(t, pool.Unpin(p.ID, false))
		if room < len(filler)+slotSize {
			break
		}
		_, err := f.Insert(filler)
		require.NoError(t, err)
	}

	// A record too large for the first page's remaining room forces a new
	// tail page.
	large := make([]byte, 300)
	_, err = f.Insert(large)
	require.NoError(t, err)
	assert.NotEqual(t, f.firstPage, f.lastPage, "a too-large insert should have grown a second page")

	// A small record that fits in the first page's leftover room should
	// land there by walking the chain from the front, not only ever be
	// appended to the current tail.
	small := []byte("small")
	rid, err := f.Insert(small)
	require.NoError(t, err)
	assert.Equal(t, f.firstPage, rid.PageID, "insert should walk the chain and use the first page with enough room")
}

func TestDeleteThenGetFails(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	rid, err := f.Insert([]byte("temp"))
	require.NoError(t, err)

	require.NoError(t, f.Delete(rid))

	_, err = f.Get(rid)
	assert.Error(t, err)
}

func TestUpdateInPlace(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	rid, err := f.Insert([]byte("abcdefgh"))
	require.NoError(t, err)

	newRID, err := f.Update(rid, []byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, rid, newRID)

	got, err := f.Get(newRID)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(got))
}

func TestUpdateKeepsRidWhenGrowingPastOriginalSlot(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	rid, err := f.Insert([]byte("ab"))
	require.NoError(t, err)

	longer := make([]byte, 64)
	for i := range longer {
		longer[i] = byte(i)
	}
	newRID, err := f.Update(rid, longer)
	require.NoError(t, err)
	assert.Equal(t, rid, newRID, "Update must keep the record at its original rid, since an index may already point at it")

	got, err := f.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, longer, got)
}

func TestIteratorVisitsLiveRecordsAcrossPages(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	big := make([]byte, 200)
	n := 40
	for i := 0; i < n; i++ {
		_, err := f.Insert(big)
		require.NoError(t, err)
	}

	it := f.NewIterator()
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	assert.Equal(t, n, count)
}

func TestOpenReattachesToExistingChain(t *testing.T) {
	pool := newTestPool(t, 8)
	f, err := Create(pool)
	require.NoError(t, err)

	rid, err := f.Insert([]byte("persisted"))
	require.NoError(t, err)

	reopened, err := Open(pool, f.FirstPage())
	require.NoError(t, err)

	got, err := reopened.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
