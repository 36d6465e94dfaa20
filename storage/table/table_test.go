package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedb/cache"
	"pagedb/storage/buffer"
	"pagedb/storage/filemanager"
	"pagedb/storage/heap"
	"pagedb/storage/value"
)

func newTestTable(t *testing.T, tc *cache.TupleCache) *Table {
	t.Helper()
	fm, err := filemanager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	pool := buffer.New(8, fm, nil)
	hf, err := heap.Create(pool)
	require.NoError(t, err)

	schema := value.NewSchema(
		value.ColumnDef{Name: "id", Kind: value.KindInteger},
		value.ColumnDef{Name: "name", Kind: value.KindVarchar, Size: 20},
	)
	return New("users", schema, hf, tc)
}

func TestInsertGetRoundTrip(t *testing.T) {
	tbl := newTestTable(t, nil)

	rid, err := tbl.Insert([]value.Value{value.NewInt(1), value.NewVarchar("Ada")})
	require.NoError(t, err)

	got, err := tbl.Get(rid)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(1), got[0])
	assert.Equal(t, value.NewVarchar("Ada"), got[1])
}

func TestInsertRejectsSchemaMismatch(t *testing.T) {
	tbl := newTestTable(t, nil)
	_, err := tbl.Insert([]value.Value{value.NewVarchar("wrong kind")})
	assert.Error(t, err)
}

func TestDeleteThenGetFails(t *testing.T) {
	tbl := newTestTable(t, nil)
	rid, err := tbl.Insert([]value.Value{value.NewInt(2), value.NewVarchar("Bob")})
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(rid))
	_, err = tbl.Get(rid)
	assert.Error(t, err)
}

func TestScanVisitsAllRows(t *testing.T) {
	tbl := newTestTable(t, nil)
	for i := 0; i < 5; i++ {
		_, err := tbl.Insert([]value.Value{value.NewInt(int32(i)), value.NewVarchar("row")})
		require.NoError(t, err)
	}

	cur := tbl.Scan()
	defer cur.Close()

	count := 0
	for cur.Next() {
		_, err := cur.Values()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 5, count)
}

func TestGetPopulatesCacheAndInvalidateClearsIt(t *testing.T) {
	tc, err := cache.NewTupleCache(64)
	require.NoError(t, err)
	defer tc.Close()

	tbl := newTestTable(t, tc)
	rid, err := tbl.Insert([]value.Value{value.NewInt(9), value.NewVarchar("cached")})
	require.NoError(t, err)

	_, err = tbl.Get(rid)
	require.NoError(t, err)
	tc.Wait()

	_, ok := tc.Get(rid)
	assert.True(t, ok, "first Get should have populated the tuple cache")

	require.NoError(t, tbl.Delete(rid))
	_, ok = tc.Get(rid)
	assert.False(t, ok, "Delete should invalidate the cached entry")
}
