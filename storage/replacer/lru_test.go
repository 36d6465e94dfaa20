package replacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVictimOnEmptyReplacerFails(t *testing.T) {
	r := New()
	_, ok := r.Victim()
	assert.False(t, ok)
}

func TestVictimIsLeastRecentlyUnpinned(t *testing.T) {
	r := New()
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)

	v, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, r.Size())
}

func TestPinRemovesFrameFromConsideration(t *testing.T) {
	r := New()
	r.Unpin(1)
	r.Unpin(2)
	r.Pin(1)

	v, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestUnpinIsIdempotent(t *testing.T) {
	r := New()
	r.Unpin(1)
	r.Unpin(1)
	assert.Equal(t, 1, r.Size())
}

func TestRemoveDropsFrameWithoutSelectingIt(t *testing.T) {
	r := New()
	r.Unpin(1)
	r.Unpin(2)
	r.Remove(1)

	v, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 0, r.Size())
}
