package executor

import (
	"fmt"

	"github.com/tuannm99/novasql/internal/btree"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/planner"
)

// QueryExecutor is the volcano-style iterator protocol every scan
// implements: Init positions the cursor, Next yields rows one at a time.
type QueryExecutor interface {
	Init() error
	Next() (Row, bool, error)
}

// SeqScanExecutor walks every live tuple of a table, applying an optional
// equality filter.
type SeqScanExecutor struct {
	table  *heap.Table
	schema *record.Schema
	where  *planner.WhereEq

	it *heap.Iterator
}

func NewSeqScanExecutor(table *heap.Table, schema *record.Schema, where *planner.WhereEq) *SeqScanExecutor {
	return &SeqScanExecutor{table: table, schema: schema, where: where}
}

func (e *SeqScanExecutor) Init() error {
	it, err := e.table.Begin()
	if err != nil {
		return err
	}
	e.it = it
	return nil
}

func (e *SeqScanExecutor) Next() (Row, bool, error) {
	for !e.it.IsEnd() {
		tup, err := e.it.Tuple()
		if err != nil {
			return nil, false, err
		}
		values, err := record.DecodeTuple(e.schema, tup.Data)
		if err != nil {
			return nil, false, err
		}

		if err := e.it.Next(); err != nil {
			return nil, false, err
		}

		if e.where == nil {
			return Row(values), true, nil
		}
		ok, err := matchWhere(e.schema, e.where, values)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return Row(values), true, nil
		}
	}
	return nil, false, nil
}

// IndexScanExecutor looks up one key in a B+tree index, then fetches each
// matching RID from the heap directly.
type IndexScanExecutor struct {
	table  *heap.Table
	schema *record.Schema
	index  *btree.Tree
	key    int32

	rids []heap.RID
	pos  int
}

func NewIndexScanExecutor(table *heap.Table, schema *record.Schema, index *btree.Tree, key int32) *IndexScanExecutor {
	return &IndexScanExecutor{table: table, schema: schema, index: index, key: key}
}

func (e *IndexScanExecutor) Init() error {
	rids, err := e.index.GetValue(e.key)
	if err != nil {
		return err
	}
	e.rids = rids
	return nil
}

func (e *IndexScanExecutor) Next() (Row, bool, error) {
	for e.pos < len(e.rids) {
		rid := e.rids[e.pos]
		e.pos++

		tup, ok, err := e.table.GetTuple(rid)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			// stale index entry (row since deleted): skip.
			continue
		}

		values, err := record.DecodeTuple(e.schema, tup.Data)
		if err != nil {
			return nil, false, err
		}
		return Row(values), true, nil
	}
	return nil, false, nil
}

func matchWhere(schema *record.Schema, w *planner.WhereEq, row []record.Value) (bool, error) {
	idx := -1
	for i, c := range schema.Columns {
		if c.Name == w.Column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, fmt.Errorf("executor: unknown column in WHERE: %s", w.Column)
	}
	got := row[idx]

	switch want := w.Value.(type) {
	case int32:
		return !got.IsVarchar && got.Int == want, nil
	case string:
		return got.IsVarchar && got.Str == want, nil
	default:
		return false, fmt.Errorf("executor: unsupported WHERE literal type %T", w.Value)
	}
}
