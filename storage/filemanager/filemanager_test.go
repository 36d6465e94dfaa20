package filemanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedb/storage/page"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestOpenFreshFileStampsHeader(t *testing.T) {
	path := tempDBPath(t)

	fm, err := Open(path)
	require.NoError(t, err)
	defer fm.Close()

	assert.Equal(t, uint64(1), fm.PageCount())
	assert.Equal(t, 0, fm.FreeListLen())
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := tempDBPath(t)

	fm, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, fm.Close())

	// Corrupt the header by overwriting it with zeroed bytes — the magic no
	// longer matches.
	raw := make([]byte, page.Size)
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt(raw, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.Error(t, err)
}

func TestAllocateAndWriteReadPage(t *testing.T) {
	path := tempDBPath(t)
	fm, err := Open(path)
	require.NoError(t, err)
	defer fm.Close()

	p, err := fm.Allocate(page.TypeHeap)
	require.NoError(t, err)
	assert.Equal(t, page.ID(1), p.ID)

	copy(p.Payload(), []byte("hello"))
	require.NoError(t, fm.WritePage(p))

	got, err := fm.ReadPage(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got.Payload()[:5]))
}

func TestAllocateReusesDeallocatedPage(t *testing.T) {
	path := tempDBPath(t)
	fm, err := Open(path)
	require.NoError(t, err)
	defer fm.Close()

	p1, err := fm.Allocate(page.TypeHeap)
	require.NoError(t, err)

	require.NoError(t, fm.Deallocate(p1.ID))
	assert.Equal(t, 1, fm.FreeListLen())

	p2, err := fm.Allocate(page.TypeHeap)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
	assert.Equal(t, 0, fm.FreeListLen())
}

func TestDeallocateHeaderPageFails(t *testing.T) {
	path := tempDBPath(t)
	fm, err := Open(path)
	require.NoError(t, err)
	defer fm.Close()

	assert.Error(t, fm.Deallocate(page.ID(0)))
	assert.Equal(t, 0, fm.FreeListLen())
}

func TestReadPageBeyondPageCountFails(t *testing.T) {
	path := tempDBPath(t)
	fm, err := Open(path)
	require.NoError(t, err)
	defer fm.Close()

	_, err = fm.ReadPage(999)
	assert.Error(t, err)
}

func TestCloseThenReopenPersistsPageCountAndFreeList(t *testing.T) {
	path := tempDBPath(t)
	fm, err := Open(path)
	require.NoError(t, err)

	p1, err := fm.Allocate(page.TypeHeap)
	require.NoError(t, err)
	_, err = fm.Allocate(page.TypeHeap)
	require.NoError(t, err)
	require.NoError(t, fm.Deallocate(p1.ID))

	require.NoError(t, fm.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, fm.PageCount(), reopened.PageCount())
	assert.Equal(t, 1, reopened.FreeListLen())
}
