package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStampsHeader(t *testing.T) {
	p := New(7, TypeHeap)
	assert.Equal(t, ID(7), p.ID)
	assert.Equal(t, ID(7), p.HeaderID())
	assert.Equal(t, TypeHeap, p.HeaderType())
	assert.Len(t, p.Data, Size)
}

func TestPayloadIsSizedCorrectly(t *testing.T) {
	p := New(1, TypeBTreeLeaf)
	assert.Len(t, p.Payload(), PayloadSize)
}

func TestSetHeaderIDAndType(t *testing.T) {
	p := New(1, TypeHeader)
	p.SetHeaderID(42)
	p.SetType(TypeBTreeInternal)
	assert.Equal(t, ID(42), p.HeaderID())
	assert.Equal(t, TypeBTreeInternal, p.HeaderType())
}

func TestLSNRoundTrips(t *testing.T) {
	p := New(1, TypeHeap)
	assert.Equal(t, uint64(0), p.LSN())
	p.SetLSN(99)
	assert.Equal(t, uint64(99), p.LSN())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Heap", TypeHeap.String())
	assert.Equal(t, "BTreeLeaf", TypeBTreeLeaf.String())
	assert.Equal(t, "Invalid", TypeInvalid.String())
}
