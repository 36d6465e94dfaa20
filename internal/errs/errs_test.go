package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(NotFound, "missing record")
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, FileIO))
}

func TestWrapPreservesCauseViaUnwrap(t *testing.T) {
	cause := errors.New("disk failure")
	err := Wrap(FileIO, "write page", cause)

	assert.True(t, Is(err, FileIO))
	assert.ErrorIs(t, err, cause)
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), NotFound))
}

func TestSentinelsCarryExpectedKinds(t *testing.T) {
	assert.True(t, Is(ErrDuplicateKey, DuplicateKey))
	assert.True(t, Is(ErrStillPinned, StillPinned))
	assert.True(t, Is(ErrOutOfFrames, OutOfFrames))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NotFound", NotFound.String())
	assert.Equal(t, "Unknown", Unknown.String())
}
