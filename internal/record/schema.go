// Package record defines fixed-width tuple schemas and their byte codec.
package record

import "fmt"

// ColumnType is the type tag of a column. Only two types exist: INTEGER
// (a fixed 4-byte value) and VARCHAR (a fixed, declared-length byte
// string, zero-padded on the right).
type ColumnType int

const (
	Integer ColumnType = iota
	Varchar
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Varchar:
		return "VARCHAR"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// IntegerWidth is the fixed encoded width of an INTEGER column.
const IntegerWidth = 4

// Column describes one field of a schema: its name, type, and precomputed
// byte offset/length within a tuple.
type Column struct {
	Name   string
	Type   ColumnType
	Offset int
	Length int
}

// Schema is an ordered list of columns. Tuples following this schema are
// fixed-width: TupleLength is the sum of every column's Length.
type Schema struct {
	Columns     []Column
	TupleLength int
}

// ColumnSpec is the input to NewSchema: a name, type, and (for VARCHAR
// only) a declared fixed length. Length is ignored for INTEGER columns.
type ColumnSpec struct {
	Name   string
	Type   ColumnType
	Length int
}

// NewSchema computes each column's offset and overall tuple length from an
// ordered list of column specs.
func NewSchema(specs []ColumnSpec) (*Schema, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("record: schema must have at least one column")
	}

	cols := make([]Column, 0, len(specs))
	offset := 0
	for _, s := range specs {
		length := s.Length
		if s.Type == Integer {
			length = IntegerWidth
		} else if length <= 0 {
			return nil, fmt.Errorf("record: column %q: VARCHAR requires a positive declared length", s.Name)
		}

		cols = append(cols, Column{
			Name:   s.Name,
			Type:   s.Type,
			Offset: offset,
			Length: length,
		})
		offset += length
	}

	return &Schema{Columns: cols, TupleLength: offset}, nil
}

// ColumnByName returns the column with the given name, or false if absent.
func (s *Schema) ColumnByName(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
