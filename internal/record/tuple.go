package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Value is a tagged union over the two literal value kinds the engine
// understands, replacing a virtual Value hierarchy with a plain variant.
type Value struct {
	IsVarchar bool
	Int       int32
	Str       string
}

// IntValue constructs an INTEGER value.
func IntValue(v int32) Value { return Value{Int: v} }

// StrValue constructs a VARCHAR value.
func StrValue(v string) Value { return Value{IsVarchar: true, Str: v} }

// EncodeTuple packs values into a fixed-width byte string per schema. Each
// INTEGER is little-endian over 4 bytes; each VARCHAR is zero-padded on
// the right to its column's declared length. It is the caller's
// responsibility to have bound values to matching column types before
// calling this (a schema/data error otherwise).
func EncodeTuple(schema *Schema, values []Value) ([]byte, error) {
	if len(values) != len(schema.Columns) {
		return nil, fmt.Errorf("record: expected %d values, got %d", len(schema.Columns), len(values))
	}

	buf := make([]byte, schema.TupleLength)
	for i, col := range schema.Columns {
		v := values[i]
		dst := buf[col.Offset : col.Offset+col.Length]

		switch col.Type {
		case Integer:
			if v.IsVarchar {
				return nil, fmt.Errorf("record: column %q expects INTEGER, got VARCHAR", col.Name)
			}
			binary.LittleEndian.PutUint32(dst, uint32(v.Int))
		case Varchar:
			if !v.IsVarchar {
				return nil, fmt.Errorf("record: column %q expects VARCHAR, got INTEGER", col.Name)
			}
			if len(v.Str) > col.Length {
				return nil, fmt.Errorf("record: column %q value too long: %d > declared length %d", col.Name, len(v.Str), col.Length)
			}
			copy(dst, v.Str) // remainder stays zero (already zeroed by make)
		}
	}
	return buf, nil
}

// DecodeTuple unpacks a fixed-width byte string into values per schema.
// VARCHAR values are truncated at the first NUL byte.
func DecodeTuple(schema *Schema, data []byte) ([]Value, error) {
	if len(data) != schema.TupleLength {
		return nil, fmt.Errorf("record: tuple length %d does not match schema length %d", len(data), schema.TupleLength)
	}

	values := make([]Value, len(schema.Columns))
	for i, col := range schema.Columns {
		src := data[col.Offset : col.Offset+col.Length]

		switch col.Type {
		case Integer:
			values[i] = IntValue(int32(binary.LittleEndian.Uint32(src)))
		case Varchar:
			if nul := bytes.IndexByte(src, 0); nul >= 0 {
				values[i] = StrValue(string(src[:nul]))
			} else {
				values[i] = StrValue(string(src))
			}
		}
	}
	return values, nil
}
