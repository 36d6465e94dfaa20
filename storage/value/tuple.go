package value

import (
	"encoding/binary"

	"pagedb/internal/errs"
)

// tupleHeaderSize is the 4-byte total size field plus 4 reserved flag
// bytes every encoded tuple carries ahead of its values, mirroring the
// fixed-offset record headers heapfile_manager/heap_page.go stamps ahead
// of row payloads.
const tupleHeaderSize = 8

// Encode serializes values (already validated against a Schema by the
// caller) into a tuple: 4-byte total size, 4 reserved bytes, then each
// value's tag+payload in column order.
func Encode(values []Value) []byte {
	size := tupleHeaderSize
	for _, v := range values {
		size += v.EncodedSize()
	}

	buf := make([]byte, tupleHeaderSize, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	// buf[4:8] reserved, left zero.

	for _, v := range values {
		buf = v.Encode(buf)
	}
	return buf
}

// Decode parses a tuple produced by Encode back into its values, using
// schema to know how many columns to expect.
func Decode(buf []byte, schema Schema) ([]Value, error) {
	if len(buf) < tupleHeaderSize {
		return nil, errs.New(errs.BadFormat, "tuple buffer truncated before header")
	}

	totalSize := int(binary.LittleEndian.Uint32(buf[0:4]))
	if totalSize > len(buf) {
		return nil, errs.New(errs.BadFormat, "tuple declares size larger than buffer")
	}

	pos := tupleHeaderSize
	values := make([]Value, 0, len(schema.Columns))
	for range schema.Columns {
		v, n, err := DecodeValue(buf[pos:totalSize])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		pos += n
	}
	return values, nil
}
