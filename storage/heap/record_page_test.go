package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagedb/storage/page"
)

func newRecordPage() *page.Page {
	p := page.New(1, page.TypeHeap)
	InitRecordPage(p, page.InvalidID)
	return p
}

func TestInsertReadRoundTrip(t *testing.T) {
	p := newRecordPage()

	slot, err := InsertRecord(p, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), slot)

	got, err := ReadRecord(p, slot)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestReadTombstonedSlotFails(t *testing.T) {
	p := newRecordPage()
	slot, err := InsertRecord(p, []byte("gone"))
	require.NoError(t, err)

	require.NoError(t, DeleteRecord(p, slot))
	assert.False(t, IsLive(p, slot))

	_, err = ReadRecord(p, slot)
	assert.Error(t, err)
}

func TestUpdateInPlaceWhenItFits(t *testing.T) {
	p := newRecordPage()
	slot, err := InsertRecord(p, []byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, UpdateRecord(p, slot, []byte("xyz")))

	got, err := ReadRecord(p, slot)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(got))
}

func TestUpdateKeepsSlotIndexWhenRecordGrows(t *testing.T) {
	p := newRecordPage()
	other, err := InsertRecord(p, []byte("keep-me"))
	require.NoError(t, err)
	slot, err := InsertRecord(p, []byte("ab"))
	require.NoError(t, err)

	longer := []byte("much too long for the original slot allocation")
	require.NoError(t, UpdateRecord(p, slot, longer))

	got, err := ReadRecord(p, slot)
	require.NoError(t, err)
	assert.Equal(t, string(longer), string(got))

	// The unrelated record must be untouched.
	got, err = ReadRecord(p, other)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", string(got))
}

func TestUpdateFailsWhenRecordCannotFitEvenAfterCompaction(t *testing.T) {
	p := newRecordPage()
	slot, err := InsertRecord(p, []byte("ab"))
	require.NoError(t, err)

	tooBig := make([]byte, page.PayloadSize)
	err = UpdateRecord(p, slot, tooBig)
	assert.Error(t, err)

	// A failed update must not destroy the original record.
	got, err := ReadRecord(p, slot)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(got))
}

func TestInsertFailsWhenPageIsFull(t *testing.T) {
	p := newRecordPage()
	big := make([]byte, page.PayloadSize)

	_, err := InsertRecord(p, big)
	assert.Error(t, err)
}

func TestInsertReusesTombstonedSlot(t *testing.T) {
	p := newRecordPage()
	s1, err := InsertRecord(p, []byte("one"))
	require.NoError(t, err)
	_, err = InsertRecord(p, []byte("two"))
	require.NoError(t, err)

	require.NoError(t, DeleteRecord(p, s1))
	countBefore := SlotCount(p)

	reused, err := InsertRecord(p, []byte("three"))
	require.NoError(t, err)
	assert.Equal(t, s1, reused, "InsertRecord should reuse the tombstoned slot rather than append")
	assert.Equal(t, countBefore, SlotCount(p), "reusing a tombstone must not grow the slot array")

	got, err := ReadRecord(p, reused)
	require.NoError(t, err)
	assert.Equal(t, "three", string(got))
}

func TestInsertCompactsAndRetriesWhenSpaceIsFragmented(t *testing.T) {
	p := newRecordPage()

	// Fill the page with fixed-size records, then tombstone every other
	// one. Free space now exists but is fragmented behind live records;
	// a naive check against the raw free-space pointer would reject an
	// insert that only fits after compaction reclaims it.
	recSize := 48
	var slots []uint16
	for {
		s, err := InsertRecord(p, make([]byte, recSize))
		if err != nil {
			break
		}
		slots = append(slots, s)
	}
	require.Greater(t, len(slots), 4)

	for i := 0; i < len(slots); i += 2 {
		require.NoError(t, DeleteRecord(p, slots[i]))
	}

	// Reusing a tombstoned slot saves only the slot entry, not the freed
	// bytes; ask for something bigger than any single freed record so the
	// insert fits only once compaction reclaims several tombstones' space
	// contiguously.
	big := make([]byte, recSize*3)
	_, err := InsertRecord(p, big)
	require.NoError(t, err)
}

func TestCompactReclaimsTombstonedSpace(t *testing.T) {
	p := newRecordPage()
	s1, err := InsertRecord(p, []byte("one"))
	require.NoError(t, err)
	s2, err := InsertRecord(p, []byte("two"))
	require.NoError(t, err)

	require.NoError(t, DeleteRecord(p, s1))
	freeBefore := FreeSpace(p)

	Compact(p)
	assert.Greater(t, FreeSpace(p), freeBefore)

	got, err := ReadRecord(p, s2)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	_, err = ReadRecord(p, s1)
	assert.Error(t, err)
}

func TestNextPageIDRoundTrips(t *testing.T) {
	p := newRecordPage()
	assert.Equal(t, page.InvalidID, NextPageID(p))

	SetNextPageID(p, page.ID(5))
	assert.Equal(t, page.ID(5), NextPageID(p))
}
