// Package value implements the tagged column value encoding tuples are
// built from: a one-byte type tag followed by a type-specific payload, the
// way storage_engine/access/indexfile_manager/bplustree/node_to_index_page.go
// and heapfile_manager/heap_page.go pack typed fields at fixed byte
// offsets with encoding/binary — generalized here into one reusable codec
// instead of DaemonDB's own map[string]interface{} Row, which carries no
// wire format at all.
package value

import (
	"encoding/binary"
	"fmt"

	"pagedb/internal/errs"
)

// Kind tags what a Value's payload means.
type Kind byte

const (
	KindNull Kind = iota
	KindInteger
	KindBoolean
	KindVarchar
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindBoolean:
		return "BOOLEAN"
	case KindVarchar:
		return "VARCHAR"
	default:
		return "NULL"
	}
}

// Value is one column's worth of data: a Kind tag plus the payload for
// that kind. Exactly one of Int/Bool/Str is meaningful, chosen by Kind.
type Value struct {
	Kind Kind
	Int  int32
	Bool bool
	Str  string
}

func NewInt(v int32) Value       { return Value{Kind: KindInteger, Int: v} }
func NewBool(v bool) Value       { return Value{Kind: KindBoolean, Bool: v} }
func NewVarchar(v string) Value  { return Value{Kind: KindVarchar, Str: v} }
func Null() Value                { return Value{Kind: KindNull} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// EncodedSize reports how many bytes Encode will write for v.
func (v Value) EncodedSize() int {
	switch v.Kind {
	case KindInteger:
		return 1 + 4
	case KindBoolean:
		return 1 + 1
	case KindVarchar:
		return 1 + 4 + len(v.Str)
	default:
		return 1
	}
}

// Encode appends v's tag+payload to buf and returns the extended slice.
func (v Value) Encode(buf []byte) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindInteger:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v.Int))
		buf = append(buf, tmp[:]...)
	case KindBoolean:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindVarchar:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(v.Str)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, v.Str...)
	}
	return buf
}

// DecodeValue reads one tag+payload from the front of buf, returning the
// value and how many bytes it consumed.
func DecodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, errs.New(errs.BadFormat, "value buffer truncated before tag")
	}

	kind := Kind(buf[0])
	switch kind {
	case KindNull:
		return Value{Kind: KindNull}, 1, nil
	case KindInteger:
		if len(buf) < 5 {
			return Value{}, 0, errs.New(errs.BadFormat, "value buffer truncated in INTEGER payload")
		}
		return Value{Kind: KindInteger, Int: int32(binary.LittleEndian.Uint32(buf[1:5]))}, 5, nil
	case KindBoolean:
		if len(buf) < 2 {
			return Value{}, 0, errs.New(errs.BadFormat, "value buffer truncated in BOOLEAN payload")
		}
		return Value{Kind: KindBoolean, Bool: buf[1] != 0}, 2, nil
	case KindVarchar:
		if len(buf) < 5 {
			return Value{}, 0, errs.New(errs.BadFormat, "value buffer truncated in VARCHAR length")
		}
		strLen := int(binary.LittleEndian.Uint32(buf[1:5]))
		if len(buf) < 5+strLen {
			return Value{}, 0, errs.New(errs.BadFormat, "value buffer truncated in VARCHAR payload")
		}
		return Value{Kind: KindVarchar, Str: string(buf[5 : 5+strLen])}, 5 + strLen, nil
	default:
		return Value{}, 0, errs.New(errs.BadFormat, fmt.Sprintf("unknown value kind tag %d", kind))
	}
}
