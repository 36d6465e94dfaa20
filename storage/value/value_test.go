package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInteger(t *testing.T) {
	v := NewInt(42)
	buf := v.Encode(nil)
	assert.Len(t, buf, v.EncodedSize())

	got, n, err := DecodeValue(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, v, got)
}

func TestEncodeDecodeBoolean(t *testing.T) {
	v := NewBool(true)
	buf := v.Encode(nil)

	got, n, err := DecodeValue(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, got.Bool)
}

func TestEncodeDecodeVarchar(t *testing.T) {
	v := NewVarchar("hello, world")
	buf := v.Encode(nil)

	got, n, err := DecodeValue(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, "hello, world", got.Str)
}

func TestEncodeDecodeNull(t *testing.T) {
	v := Null()
	buf := v.Encode(nil)
	assert.Equal(t, []byte{byte(KindNull)}, buf)

	got, n, err := DecodeValue(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, got.IsNull())
}

func TestDecodeValueTruncatedBufferFails(t *testing.T) {
	_, _, err := DecodeValue([]byte{})
	assert.Error(t, err)

	_, _, err = DecodeValue([]byte{byte(KindInteger), 1, 2})
	assert.Error(t, err)

	_, _, err = DecodeValue([]byte{byte(KindVarchar), 5, 0, 0, 0, 'a', 'b'})
	assert.Error(t, err)
}
